package engine

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Placeholders used when the API omits a field.
const (
	NoDescription = "no description"
	UnknownAuthor = "unknown author"
)

// VideoURLBase is the canonical web address prefix for a video id.
const VideoURLBase = "https://www.douyin.com/video/"

// videoContentType marks a search entry that carries a video payload.
const videoContentType = 1

// --- Output types ---

// VideoItem is one retained search hit.
type VideoItem struct {
	ID           string `json:"aweme_id"`
	Desc         string `json:"desc"`
	CreateTime   int64  `json:"create_time"`
	Author       string `json:"author"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	ShareURL     string `json:"share_url"`
}

// VideoURL returns the canonical page address for a video id.
func VideoURL(id string) string {
	return VideoURLBase + id
}

// --- Search API envelope ---

type searchResponse struct {
	Data   []searchEntry   `json:"data"`
	Cursor json.RawMessage `json:"cursor"`
}

type searchEntry struct {
	Type      int        `json:"type"`
	AwemeInfo *awemeInfo `json:"aweme_info"`
}

type awemeInfo struct {
	AwemeID    string  `json:"aweme_id"`
	Desc       *string `json:"desc"`
	CreateTime int64   `json:"create_time"`
	Author     *struct {
		Nickname *string `json:"nickname"`
	} `json:"author"`
	Statistics struct {
		DiggCount    int64 `json:"digg_count"`
		CommentCount int64 `json:"comment_count"`
	} `json:"statistics"`
}

// toVideoItem maps the API payload onto a VideoItem, filling placeholders for
// absent fields. The id is passed through as-is; callers drop empty ids.
func (a *awemeInfo) toVideoItem() VideoItem {
	item := VideoItem{
		ID:           a.AwemeID,
		Desc:         NoDescription,
		CreateTime:   a.CreateTime,
		Author:       UnknownAuthor,
		LikeCount:    a.Statistics.DiggCount,
		CommentCount: a.Statistics.CommentCount,
		ShareURL:     VideoURL(a.AwemeID),
	}
	if a.Desc != nil {
		item.Desc = *a.Desc
	}
	if a.Author != nil && a.Author.Nickname != nil {
		item.Author = *a.Author.Nickname
	}
	return item
}

// cursorString renders the response cursor the way the next request expects it.
// A missing or null cursor is the end-of-results sentinel "0".
func cursorString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "0"
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return strings.Trim(string(raw), `"`)
}
