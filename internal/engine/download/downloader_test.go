package download

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_douyin/internal/engine"
)

type fakeRunner struct {
	code   int
	stderr string
	err    error

	dir  string
	argv []string
}

func (r *fakeRunner) Run(_ context.Context, dir string, argv []string) (int, []byte, error) {
	r.dir, r.argv = dir, argv
	return r.code, []byte(r.stderr), r.err
}

func TestExecDownloaderArgs(t *testing.T) {
	d := NewExecDownloader(nil, "", "")
	assert.Equal(t, []string{"python", "TikTokTool.py", "1", "--vid", "42"}, d.Args("42"))

	d = NewExecDownloader([]string{"dl"}, "/work", "/out")
	assert.Equal(t, []string{"dl", "--dir", "/out", "--vid", "42"}, d.Args("42"))
	assert.Equal(t, []string{"dl"}, d.Command, "Args must not mutate the command")
}

func TestExecDownloaderSubmit(t *testing.T) {
	item := engine.VideoItem{ID: "7", Desc: strings.Repeat("长", 40)}

	tests := []struct {
		name    string
		runner  *fakeRunner
		success bool
		msg     string
	}{
		{"exit zero", &fakeRunner{}, true, MsgDownloaded},
		{"exit non-zero", &fakeRunner{code: 2, stderr: strings.Repeat("x", 2000)}, false, MsgDownloadFailed},
		{"cannot start", &fakeRunner{err: errors.New("not found")}, false, "download error: not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewExecDownloader([]string{"dl"}, "/work", "")
			d.Runner = tt.runner

			o := d.Submit(context.Background(), item)
			assert.Equal(t, "7", o.VideoID)
			assert.Equal(t, tt.success, o.Success)
			assert.Equal(t, tt.msg, o.Message)
			assert.Equal(t, strings.Repeat("长", 30), o.Desc)
			assert.Equal(t, "/work", tt.runner.dir)
			assert.Equal(t, []string{"dl", "--vid", "7"}, tt.runner.argv)
		})
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := ExecRunner{}
	ctx := context.Background()

	code, _, err := r.Run(ctx, t.TempDir(), []string{"sh", "-c", "exit 0"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	code, stderr, err := r.Run(ctx, "", []string{"sh", "-c", "echo boom >&2; exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "boom\n", string(stderr))

	_, _, err = r.Run(ctx, "", []string{"definitely-not-a-real-binary-xyz"})
	assert.Error(t, err)

	_, _, err = r.Run(ctx, "", nil)
	assert.Error(t, err)
}

func TestPendingOutcomes(t *testing.T) {
	items := []engine.VideoItem{{ID: "1", Desc: "a"}, {ID: "2", Desc: "b"}}
	out := PendingOutcomes(items, MsgSavedForManual)
	require.Len(t, out, 2)
	for i, o := range out {
		assert.Equal(t, items[i].ID, o.VideoID)
		assert.False(t, o.Success)
		assert.Equal(t, MsgSavedForManual, o.Message)
	}
	assert.Equal(t, 0, Succeeded(out))
}
