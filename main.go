// go_douyin: Douyin keyword search CLI and MCP server.
//
// `go_douyin search <keyword>` pages through the web search API, prints the
// hits and optionally hands them to an external downloader program.
// `go_douyin serve` exposes the same operations as MCP tools.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNoResults) {
			slog.Error("go_douyin failed", slog.Any("error", err))
		}
		return 1
	}
	return 0
}

// setupLogging installs the stderr text handler; debug lowers the level.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
