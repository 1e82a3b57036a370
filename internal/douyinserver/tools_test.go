package douyinserver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/download"
)

type fakeSearcher struct {
	calls   atomic.Int32
	videos  []engine.VideoItem
	err     error
	gotMax  int
	gotRetr int
}

func (f *fakeSearcher) Search(_ context.Context, keyword string, maxCount, maxRetries int) ([]engine.VideoItem, error) {
	f.calls.Add(1)
	f.gotMax, f.gotRetr = maxCount, maxRetries
	return f.videos, f.err
}

type okDownloader struct{ ids []string }

func (d *okDownloader) Submit(_ context.Context, item engine.VideoItem) download.Outcome {
	d.ids = append(d.ids, item.ID)
	return download.Outcome{VideoID: item.ID, Success: true, Message: download.MsgDownloaded}
}

var noSleep = engine.SleeperFunc(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })

func TestSearchHandler(t *testing.T) {
	s := &fakeSearcher{videos: []engine.VideoItem{{ID: "1"}, {ID: "2"}}}
	cache := engine.NewCache("", time.Minute, 10, time.Minute)
	defer cache.Close()
	h := searchHandler(Deps{Searcher: s, MaxRetries: 4, Cache: cache})
	ctx := context.Background()

	_, out, err := h(ctx, nil, SearchInput{Keyword: " cats ", Count: 500})
	require.NoError(t, err)
	assert.Equal(t, "cats", out.Keyword)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, maxSearchCount, s.gotMax)
	assert.Equal(t, 4, s.gotRetr)

	_, again, err := h(ctx, nil, SearchInput{Keyword: "cats", Count: 100})
	require.NoError(t, err)
	assert.Equal(t, out, again)
	assert.Equal(t, int32(1), s.calls.Load(), "second call served from cache")
}

func TestSearchHandlerErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := searchHandler(Deps{Searcher: &fakeSearcher{}})(ctx, nil, SearchInput{Keyword: "  "})
	assert.Error(t, err)

	failing := &fakeSearcher{err: errors.New("boom")}
	_, _, err = searchHandler(Deps{Searcher: failing})(ctx, nil, SearchInput{Keyword: "cats"})
	assert.ErrorContains(t, err, "boom")

	partial := &fakeSearcher{videos: []engine.VideoItem{{ID: "1"}}, err: context.Canceled}
	_, out, err := searchHandler(Deps{Searcher: partial})(ctx, nil, SearchInput{Keyword: "cats"})
	require.NoError(t, err)
	assert.True(t, out.Partial)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, defaultSearchCount, partial.gotMax)
}

func TestSearchHandlerEmptyResultNotCached(t *testing.T) {
	s := &fakeSearcher{}
	cache := engine.NewCache("", time.Minute, 10, time.Minute)
	defer cache.Close()
	h := searchHandler(Deps{Searcher: s, Cache: cache})

	for range 2 {
		_, out, err := h(context.Background(), nil, SearchInput{Keyword: "nothing"})
		require.NoError(t, err)
		assert.NotNil(t, out.Videos)
		assert.Zero(t, out.Count)
	}
	assert.Equal(t, int32(2), s.calls.Load())
}

func TestDownloadHandler(t *testing.T) {
	d := &okDownloader{}
	h := downloadHandler(Deps{Downloader: d, Sleeper: noSleep})

	_, out, err := h(context.Background(), nil, DownloadInput{VideoIDs: []string{"1", " 2 ", "1", ""}, Keyword: "cats"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Requested)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, []string{"1", "2"}, d.ids)
}

func TestDownloadHandlerValidation(t *testing.T) {
	h := downloadHandler(Deps{Downloader: &okDownloader{}, Sleeper: noSleep})

	_, _, err := h(context.Background(), nil, DownloadInput{})
	assert.Error(t, err)

	ids := make([]string, maxDownloadIDs+1)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	_, _, err = h(context.Background(), nil, DownloadInput{VideoIDs: ids})
	assert.Error(t, err)
}

func TestDownloadHandlerProbeFailure(t *testing.T) {
	d := &okDownloader{}
	h := downloadHandler(Deps{
		Downloader: d,
		Sleeper:    noSleep,
		Probe:      func(context.Context) error { return errors.New("offline") },
	})

	_, out, err := h(context.Background(), nil, DownloadInput{VideoIDs: []string{"1"}})
	require.NoError(t, err)
	assert.Zero(t, out.Succeeded)
	assert.Empty(t, d.ids)
}
