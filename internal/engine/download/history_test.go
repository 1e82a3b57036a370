package download

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	h, err := OpenSQLiteHistory(path)
	require.NoError(t, err)
	defer h.Close()

	ctx := context.Background()
	ok, err := h.Downloaded(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.Record(ctx, "cats", Outcome{VideoID: "1", Desc: "d", Success: false, Message: MsgDownloadFailed}))
	ok, err = h.Downloaded(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok, "a failed attempt is not a download")

	require.NoError(t, h.Record(ctx, "cats", Outcome{VideoID: "1", Desc: "d", Success: true, Message: MsgDownloaded}))
	ok, err = h.Downloaded(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteHistoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	h, err := OpenSQLiteHistory(path)
	require.NoError(t, err)
	require.NoError(t, h.Record(ctx, "dogs", Outcome{VideoID: "9", Success: true, Message: MsgDownloaded}))
	require.NoError(t, h.Close())

	h2, err := OpenHistory(ctx, "", path)
	require.NoError(t, err)
	defer h2.Close()
	ok, err := h2.Downloaded(ctx, "9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultHistoryPath(t *testing.T) {
	t.Setenv("HOME", "/tmp/home-x")
	assert.Equal(t, filepath.Join("/tmp/home-x", ".go_douyin", "history.db"), DefaultHistoryPath())
}

func TestOpenHistoryOrNopDegrades(t *testing.T) {
	h := OpenHistoryOrNop(context.Background(), "postgres://%zz", "")
	ok, err := h.Downloaded(context.Background(), "1")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, h.Record(context.Background(), "k", Outcome{VideoID: "1"}))
	assert.NoError(t, h.Close())
}
