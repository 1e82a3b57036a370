package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var debug bool
	opts := defaultSearchOptions()

	root := &cobra.Command{
		Use:           "go_douyin [keyword]",
		Short:         "Search Douyin videos by keyword",
		Long:          "Search Douyin videos by keyword and optionally download them.\nRunning the root command with a keyword is the same as `go_douyin search <keyword>`.",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			opts.debug = debug
			return runSearch(cmd.Context(), strings.Join(args, " "), opts, defaultSearchDeps(cmd.InOrStdin(), cmd.OutOrStdout()))
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging; skips the sign-service prompt")
	bindSearchFlags(root, &opts)

	root.AddCommand(newSearchCmd(&debug), newCookieCmd(), newServeCmd())
	return root
}
