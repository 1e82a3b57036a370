package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_douyin/internal/engine"
	"github.com/anatolykoptev/go_douyin/internal/engine/download"
)

type stubSearcher struct {
	videos []engine.VideoItem
	err    error
	cancel context.CancelFunc
}

func (s *stubSearcher) Search(context.Context, string, int, int) ([]engine.VideoItem, error) {
	if s.cancel != nil {
		s.cancel()
	}
	return s.videos, s.err
}

type stubDownloader struct{ ids []string }

func (d *stubDownloader) Submit(_ context.Context, item engine.VideoItem) download.Outcome {
	d.ids = append(d.ids, item.ID)
	return download.Outcome{VideoID: item.ID, Success: true, Message: download.MsgDownloaded}
}

type testEnv struct {
	deps     searchDeps
	out      *bytes.Buffer
	dl       *stubDownloader
	cfg      engine.Config
	pinged   bool
	probed   bool
	searcher *stubSearcher
}

func newTestEnv(t *testing.T, input string, s *stubSearcher) *testEnv {
	t.Helper()
	e := &testEnv{out: &bytes.Buffer{}, dl: &stubDownloader{}, searcher: s}
	e.deps = searchDeps{
		in:  strings.NewReader(input),
		out: e.out,
		newSearcher: func(c engine.Config) (videoSearcher, error) {
			e.cfg = c
			return e.searcher, nil
		},
		newDownloader: func(searchOptions) download.Downloader { return e.dl },
		openHistory: func(ctx context.Context, o searchOptions) download.History {
			return download.OpenHistoryOrNop(ctx, "", filepath.Join(t.TempDir(), "history.db"))
		},
		probe: func(context.Context) error {
			e.probed = true
			return nil
		},
		pingSigner: func(context.Context, string) error {
			e.pinged = true
			return nil
		},
		sleeper: engine.SleeperFunc(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	}
	return e
}

func testOptions(t *testing.T) searchOptions {
	t.Helper()
	return searchOptions{
		count:      10,
		dir:        t.TempDir(),
		cookieFile: filepath.Join(t.TempDir(), "none.txt"),
		retries:    3,
		signer:     engine.SignerRemote,
		signURL:    "http://localhost:8889",
		transport:  engine.TransportHTTP,
		downloader: "dl",
	}
}

func twoVideos() []engine.VideoItem {
	return []engine.VideoItem{
		{ID: "1", Desc: "first", Author: "a", LikeCount: 3},
		{ID: "2", Desc: "second", Author: "b", LikeCount: 4},
	}
}

func TestRunSearchDownloadsAfterConfirm(t *testing.T) {
	e := newTestEnv(t, "y\n", &stubSearcher{videos: twoVideos()})
	o := testOptions(t)
	o.cookie = "a=b; c=d"

	require.NoError(t, runSearch(context.Background(), "cats", o, e.deps))

	assert.True(t, e.pinged)
	assert.True(t, e.probed)
	assert.Equal(t, []string{"1", "2"}, e.dl.ids)
	assert.Equal(t, "a=b; c=d", e.cfg.Cookie)
	assert.Equal(t, engine.SignerRemote, e.cfg.SignerMode)
	assert.Contains(t, e.out.String(), "[1] first... - author: a - likes: 3\n")
	assert.Contains(t, e.out.String(), "Download these videos? (y/n)")
	assert.Contains(t, e.out.String(), "downloaded 2/2\n")
	assert.FileExists(t, filepath.Join(o.dir, download.ReportFile))
}

func TestRunSearchDeclineWritesReport(t *testing.T) {
	e := newTestEnv(t, "n\n", &stubSearcher{videos: twoVideos()})
	o := testOptions(t)

	require.NoError(t, runSearch(context.Background(), "cats", o, e.deps))
	assert.Empty(t, e.dl.ids)
	assert.False(t, e.probed)

	data, err := os.ReadFile(filepath.Join(o.dir, download.ReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2. ID: 2\n")
}

func TestRunSearchSaveOnly(t *testing.T) {
	e := newTestEnv(t, "", &stubSearcher{videos: twoVideos()})
	o := testOptions(t)
	o.saveOnly = true

	require.NoError(t, runSearch(context.Background(), "cats", o, e.deps))
	assert.Empty(t, e.dl.ids)
	assert.NotContains(t, e.out.String(), "Download these videos?")
	assert.FileExists(t, filepath.Join(o.dir, download.ReportFile))
}

func TestRunSearchNoResults(t *testing.T) {
	e := newTestEnv(t, "", &stubSearcher{})
	err := runSearch(context.Background(), "cats", testOptions(t), e.deps)
	assert.ErrorIs(t, err, errNoResults)
	assert.Contains(t, e.out.String(), "No videos found.")
}

func TestRunSearchError(t *testing.T) {
	e := newTestEnv(t, "", &stubSearcher{err: engine.ErrEmptyKeyword})
	err := runSearch(context.Background(), " ", testOptions(t), e.deps)
	assert.ErrorIs(t, err, engine.ErrEmptyKeyword)
}

func TestRunSearchInterruptedKeepsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &stubSearcher{videos: twoVideos()[:1], err: context.Canceled, cancel: cancel}
	e := newTestEnv(t, "y\n", s)
	o := testOptions(t)

	require.NoError(t, runSearch(ctx, "cats", o, e.deps))
	assert.Empty(t, e.dl.ids)
	assert.Contains(t, e.out.String(), "[1] first")
	assert.FileExists(t, filepath.Join(o.dir, download.ReportFile))
}

func TestRunSearchNoServer(t *testing.T) {
	e := newTestEnv(t, "n\n", &stubSearcher{videos: twoVideos()})
	o := testOptions(t)
	o.noServer = true

	require.NoError(t, runSearch(context.Background(), "cats", o, e.deps))
	assert.False(t, e.pinged)
	assert.Equal(t, engine.SignerNone, e.cfg.SignerMode)
}

func TestRunSearchSignServerDown(t *testing.T) {
	unreachable := fmt.Errorf("%w: connection refused", engine.ErrSignUnreachable)
	tests := []struct {
		name       string
		input      string
		yes        bool
		pingErr    error
		wantPrompt bool
		wantSearch bool
	}{
		{"user aborts", "n\n", false, unreachable, true, false},
		{"user continues", "y\nn\n", false, unreachable, true, true},
		{"--yes skips prompt", "", true, unreachable, false, true},
		{"non-200 only warns", "n\n", false, &engine.StatusError{StatusCode: 502}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, tt.input, &stubSearcher{videos: twoVideos()})
			e.deps.pingSigner = func(context.Context, string) error { return tt.pingErr }
			o := testOptions(t)
			o.yes = tt.yes

			require.NoError(t, runSearch(context.Background(), "cats", o, e.deps))
			assert.Equal(t, tt.wantPrompt, strings.Contains(e.out.String(), "Sign service is not running"))
			assert.Equal(t, tt.wantSearch, strings.Contains(e.out.String(), "Searching"))
			if !tt.wantSearch {
				assert.Contains(t, e.out.String(), "Search cancelled.")
			}
		})
	}
}

func TestRunSearchInterruptAtPrompt(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
	}{
		{"sign service prompt", engine.ErrSignUnreachable},
		{"download prompt", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr, pw := io.Pipe()
			t.Cleanup(func() { pw.Close() })

			e := newTestEnv(t, "", &stubSearcher{videos: twoVideos()})
			e.deps.in = pr
			e.deps.pingSigner = func(context.Context, string) error { return tt.pingErr }
			o := testOptions(t)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			time.AfterFunc(100*time.Millisecond, cancel)

			done := make(chan error, 1)
			go func() { done <- runSearch(ctx, "cats", o, e.deps) }()

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("runSearch kept waiting for input after cancel")
			}
			assert.Empty(t, e.dl.ids)
		})
	}
}

func TestRunSearchCreatesReportDir(t *testing.T) {
	e := newTestEnv(t, "", &stubSearcher{videos: twoVideos()})
	o := testOptions(t)
	o.dir = filepath.Join(t.TempDir(), "not", "yet")
	o.saveOnly = true

	require.NoError(t, runSearch(context.Background(), "cats", o, e.deps))
	assert.FileExists(t, filepath.Join(o.dir, download.ReportFile))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" y \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(context.Background(), bufio.NewReader(strings.NewReader(tt.input)), &out, "ok? ")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.True(t, strings.HasPrefix(out.String(), "ok? "))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer
	assert.False(t, confirm(ctx, bufio.NewReader(pr), &out, "ok? "))
}

func TestRootCommandFlags(t *testing.T) {
	root := newRootCmd()
	search, _, err := root.Find([]string{"search"})
	require.NoError(t, err)
	for _, name := range []string{"count", "dir", "cookie", "auto-cookie", "save-only", "yes", "no-server", "retries", "signer", "transport"} {
		assert.NotNil(t, search.Flags().Lookup(name), "search --%s", name)
		assert.NotNil(t, root.Flags().Lookup(name), "root --%s", name)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
	assert.Equal(t, "c", search.Flags().Lookup("count").Shorthand)
	assert.Equal(t, "d", search.Flags().Lookup("dir").Shorthand)
	assert.Equal(t, "10", search.Flags().Lookup("count").DefValue)
}
