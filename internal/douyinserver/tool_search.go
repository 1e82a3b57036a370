package douyinserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultSearchCount = 20
	maxSearchCount     = 100
)

type SearchInput struct {
	Keyword string `json:"keyword" jsonschema:"Search keyword (Chinese or English)"`
	Count   int    `json:"count,omitempty" jsonschema:"Max videos to return (default 20, max 100)"`
}

type SearchOutput struct {
	Keyword string             `json:"keyword"`
	Count   int                `json:"count"`
	Partial bool               `json:"partial,omitempty"`
	Videos  []engine.VideoItem `json:"videos"`
}

func searchHandler(d Deps) func(context.Context, *mcp.CallToolRequest, SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
		keyword := strings.TrimSpace(input.Keyword)
		if keyword == "" {
			return nil, SearchOutput{}, errors.New("keyword is required")
		}
		count := toolutil.ClampCount(input.Count, defaultSearchCount, maxSearchCount)

		cacheKey := engine.CacheKey("douyin_search", keyword, fmt.Sprintf("%d", count))
		if out, ok := toolutil.CacheLoadJSON[SearchOutput](ctx, d.Cache, cacheKey); ok {
			return nil, out, nil
		}

		if d.Limiter != nil {
			if err := d.Limiter.Wait(ctx); err != nil {
				return nil, SearchOutput{}, err
			}
		}

		var videos []engine.VideoItem
		err := engine.TrackOperation(ctx, "douyin_search", 30*time.Second, func(ctx context.Context) error {
			var err error
			videos, err = d.Searcher.Search(ctx, keyword, count, d.MaxRetries)
			return err
		})
		out := SearchOutput{Keyword: keyword, Count: len(videos), Videos: videos}
		if out.Videos == nil {
			out.Videos = []engine.VideoItem{}
		}
		if err != nil {
			if len(videos) == 0 {
				return nil, SearchOutput{}, fmt.Errorf("douyin search failed: %w", err)
			}
			slog.Warn("douyin_search: returning partial result", slog.Int("count", len(videos)), slog.Any("error", err))
			out.Partial = true
			return nil, out, nil
		}

		if len(videos) > 0 {
			toolutil.CacheStoreJSON(ctx, d.Cache, cacheKey, out)
		}
		return nil, out, nil
	}
}
