// Package douyinserver exposes the Douyin search and download operations as MCP tools.
package douyinserver

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/download"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Searcher is the part of engine.Searcher the tools need.
type Searcher interface {
	Search(ctx context.Context, keyword string, maxCount, maxRetries int) ([]engine.VideoItem, error)
}

// Deps are the collaborators shared by all tools.
type Deps struct {
	Searcher   Searcher
	MaxRetries int
	Cache      *engine.Cache // nil disables caching
	Downloader download.Downloader
	History    download.History
	Probe      func(ctx context.Context) error
	Limiter    *rate.Limiter // paces upstream calls across tool invocations
	Sleeper    engine.Sleeper
}

// RegisterTools registers douyin_search and douyin_download on server.
func RegisterTools(server *mcp.Server, d Deps) {
	if d.Limiter == nil {
		d.Limiter = rate.NewLimiter(rate.Limit(1), 2)
	}
	registerSearch(server, d)
	if d.Downloader != nil {
		registerDownload(server, d)
	} else {
		slog.Info("douyin_download disabled: no downloader configured")
	}
}

func registerSearch(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "douyin_search",
		Description: "Search Douyin videos by keyword. Returns id, description, author, like and comment counts, and the canonical video URL for up to 100 videos, in server order.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, searchHandler(d))
}

func registerDownload(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "douyin_download",
		Description: "Download Douyin videos by id with the configured downloader program. Videos already in the download history are skipped. Returns one outcome per id.",
	}, downloadHandler(d))
}
