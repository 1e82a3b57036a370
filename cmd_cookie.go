package main

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/cookies"
)

// cookiePreviewRunes is how much of a stored cookie `cookie show` prints.
const cookiePreviewRunes = 60

func newCookieCmd() *cobra.Command {
	file := env.Str("DOUYIN_COOKIE_FILE", cookies.DefaultFile)

	cmd := &cobra.Command{
		Use:   "cookie",
		Short: "Manage the Cookie header used for search requests",
	}
	cmd.PersistentFlags().StringVar(&file, "file", file, "cookie file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored cookie and whether it looks valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cookie, err := cookies.LoadFile(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", file, engine.TruncateRunes(cookie, cookiePreviewRunes, "..."))
			fmt.Fprintf(out, "valid: %t\n", cookies.Validate(cookie))
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save <cookie>",
		Short: "Validate a Cookie header copied from the browser and store it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookie := strings.TrimSpace(strings.Join(args, " "))
			if !cookies.Validate(cookie) {
				return fmt.Errorf("cookie must contain name=value pairs separated by ';'")
			}
			if err := cookies.SaveFile(file, cookie); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cookie saved to %s\n", file)
			return nil
		},
	}

	var domain string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Read the cookie from a local Chrome or Edge profile and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cookie, err := cookies.FromBrowsers(cmd.Context(), domain)
			if err != nil {
				return fmt.Errorf("browser import: %w (log in at %s first, or use `cookie save`)", err, engine.HomeURL)
			}
			if err := cookies.SaveFile(file, cookie); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cookie imported to %s (valid: %t)\n", file, cookies.Validate(cookie))
			return nil
		},
	}
	importCmd.Flags().StringVar(&domain, "domain", cookies.DefaultDomain, "cookie domain")

	cmd.AddCommand(show, save, importCmd)
	return cmd
}
