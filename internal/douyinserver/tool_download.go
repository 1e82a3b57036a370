package douyinserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/download"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxDownloadIDs = 20

type DownloadInput struct {
	VideoIDs []string `json:"video_ids" jsonschema:"Video ids (aweme_id) from douyin_search, at most 20"`
	Keyword  string   `json:"keyword,omitempty" jsonschema:"Keyword the ids came from, stored in the download history"`
}

type DownloadOutput struct {
	Requested int                `json:"requested"`
	Succeeded int                `json:"succeeded"`
	Outcomes  []download.Outcome `json:"outcomes"`
}

func downloadHandler(d Deps) func(context.Context, *mcp.CallToolRequest, DownloadInput) (*mcp.CallToolResult, DownloadOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DownloadInput) (*mcp.CallToolResult, DownloadOutput, error) {
		var items []engine.VideoItem
		seen := make(map[string]bool)
		for _, id := range input.VideoIDs {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			items = append(items, engine.VideoItem{ID: id, ShareURL: engine.VideoURL(id)})
		}
		if len(items) == 0 {
			return nil, DownloadOutput{}, errors.New("video_ids is required")
		}
		if len(items) > maxDownloadIDs {
			return nil, DownloadOutput{}, errors.New("at most 20 video_ids per call")
		}

		b := download.NewBatch(d.Downloader, d.History, input.Keyword)
		b.Probe = d.Probe
		b.Limiter = d.Limiter
		if d.Sleeper != nil {
			b.Sleeper = d.Sleeper
		}

		outcomes, err := b.Run(ctx, items)
		if err != nil && len(outcomes) == 0 {
			return nil, DownloadOutput{}, err
		}
		if outcomes == nil {
			outcomes = []download.Outcome{}
		}
		return nil, DownloadOutput{
			Requested: len(items),
			Succeeded: download.Succeeded(outcomes),
			Outcomes:  outcomes,
		}, nil
	}
}
