package download

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_douyin/internal/engine"
)

func TestWriteReport(t *testing.T) {
	list := []engine.VideoItem{
		{ID: "11", Desc: "first\nline", Author: "alice", LikeCount: 5, ShareURL: "https://www.douyin.com/video/11"},
		{ID: "12", Desc: strings.Repeat("字", 120), Author: engine.UnknownAuthor},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, list))

	want := "# Douyin video search results\n" +
		"# Download manually with the downloader: --vid <ID>\n\n" +
		"1. ID: 11\n" +
		"   Description: first line\n" +
		"   URL: https://www.douyin.com/video/11\n" +
		"   Likes: 5\n" +
		"   Author: alice\n\n" +
		"2. ID: 12\n" +
		"   Description: " + strings.Repeat("字", 100) + "\n" +
		"   URL: https://www.douyin.com/video/12\n" +
		"   Likes: 0\n" +
		"   Author: unknown author\n\n"
	assert.Equal(t, want, buf.String())
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), ReportFile)
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, SaveReport(path, []engine.VideoItem{{ID: "1", Desc: "d", Author: "a"}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Douyin video search results\n"))
	assert.Contains(t, string(data), "1. ID: 1\n")
	assert.NotContains(t, string(data), "stale")

	assert.Error(t, SaveReport(filepath.Join(t.TempDir(), "missing", "r.txt"), nil))
}

func TestSaveReportCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "videos", ReportFile)
	require.NoError(t, SaveReport(path, []engine.VideoItem{{ID: "7"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1. ID: 7\n")
}
