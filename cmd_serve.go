package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_douyin/internal/douyinserver"
	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/cookies"
	"github.com/anatolykoptev/go_douyin/internal/engine/download"
)

func newServeCmd() *cobra.Command {
	var noDownload bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server exposing douyin_search and douyin_download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), noDownload)
		},
	}
	cmd.Flags().BoolVar(&noDownload, "no-download", false, "do not register douyin_download")
	return cmd
}

func runServe(ctx context.Context, noDownload bool) error {
	mcpPort := env.Str("MCP_PORT", "8892")
	o := defaultSearchOptions()

	cookie, _ := cookies.Resolve(ctx, cookies.ResolveOptions{Explicit: o.cookie, File: o.cookieFile})

	c := engine.Config{
		SignerMode:     o.signer,
		SignServerURL:  o.signURL,
		TransportMode:  o.transport,
		Cookie:         cookie,
		RequestTimeout: o.requestTimeout,
		Reporter:       engine.SlogReporter{},
	}
	if strings.EqualFold(c.TransportMode, engine.TransportBrowser) {
		bc, err := engine.NewBrowserClient(15, o.webshareKey)
		if err != nil {
			return err
		}
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}
	searcher, err := engine.NewSearcherFromConfig(c)
	if err != nil {
		return err
	}

	cache := engine.NewCache(
		env.Str("REDIS_URL", ""),
		env.Duration("CACHE_TTL", 15*time.Minute),
		env.Int("CACHE_MAX_ENTRIES", 1000),
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	)
	defer cache.Close()

	deps := douyinserver.Deps{
		Searcher:   searcher,
		MaxRetries: o.retries,
		Cache:      cache,
		Probe: func(ctx context.Context) error {
			return engine.CheckConnectivity(ctx, nil, engine.HomeURL, engine.ProbeHeaders())
		},
	}
	if !noDownload {
		history := download.OpenHistoryOrNop(ctx, o.databaseURL, o.historyDB)
		defer history.Close()
		deps.Downloader = download.NewExecDownloader(strings.Fields(o.downloader), o.downloaderDir, env.Str("DOWNLOAD_DIR", ""))
		deps.History = history
	}

	slog.Info("starting go_douyin", slog.String("port", mcpPort))

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_douyin",
		Version: version,
	}, nil)
	douyinserver.RegisterTools(server, deps)

	return mcpserver.Run(server, mcpserver.Config{
		Name:         "go_douyin",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	})
}
