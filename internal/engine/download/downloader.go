// Package download hands search hits to an external downloader program and
// keeps a record of what was fetched.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/anatolykoptev/go_douyin/internal/engine"
)

// Outcome messages.
const (
	MsgDownloaded        = "downloaded"
	MsgDownloadFailed    = "download failed"
	MsgAlreadyDownloaded = "already downloaded"
	MsgSavedForManual    = "saved to file, download manually"
)

// outcomeDescRunes is how much of the description an Outcome carries.
const outcomeDescRunes = 30

// stderrLogBytes caps the downloader stderr written to the log.
const stderrLogBytes = 500

// DefaultCommand is the downloader invocation used when none is configured.
var DefaultCommand = []string{"python", "TikTokTool.py", "1"}

// Outcome is the result of handing one video to the downloader.
type Outcome struct {
	VideoID string `json:"video_id"`
	Desc    string `json:"desc"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newOutcome(item engine.VideoItem, success bool, msg string) Outcome {
	return Outcome{
		VideoID: item.ID,
		Desc:    engine.TruncateRunes(item.Desc, outcomeDescRunes, ""),
		Success: success,
		Message: msg,
	}
}

// PendingOutcomes marks every item as not downloaded with msg.
func PendingOutcomes(items []engine.VideoItem, msg string) []Outcome {
	out := make([]Outcome, len(items))
	for i, item := range items {
		out[i] = newOutcome(item, false, msg)
	}
	return out
}

// Downloader fetches a single video. Failures are reported in the Outcome.
type Downloader interface {
	Submit(ctx context.Context, item engine.VideoItem) Outcome
}

// Runner executes a command in dir. exitCode is meaningful only when err is nil;
// err reports a failure to start or wait for the process.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) (exitCode int, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, argv []string) (int, []byte, error) {
	if len(argv) == 0 {
		return 0, nil, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), stderr.Bytes(), nil
	}
	if err != nil {
		return 0, stderr.Bytes(), err
	}
	return 0, stderr.Bytes(), nil
}

// ExecDownloader runs `<Command...> [--dir OutDir] --vid <id>` in WorkDir.
type ExecDownloader struct {
	Command []string
	WorkDir string
	OutDir  string
	Runner  Runner
}

// NewExecDownloader builds a downloader around command (DefaultCommand if empty).
func NewExecDownloader(command []string, workDir, outDir string) *ExecDownloader {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &ExecDownloader{
		Command: command,
		WorkDir: workDir,
		OutDir:  outDir,
		Runner:  ExecRunner{},
	}
}

// Args returns the full argv for one video id.
func (d *ExecDownloader) Args(videoID string) []string {
	argv := append([]string(nil), d.Command...)
	if d.OutDir != "" {
		argv = append(argv, "--dir", d.OutDir)
	}
	return append(argv, "--vid", videoID)
}

func (d *ExecDownloader) Submit(ctx context.Context, item engine.VideoItem) Outcome {
	runner := d.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	code, stderr, err := runner.Run(ctx, d.WorkDir, d.Args(item.ID))
	switch {
	case err != nil:
		slog.Error("downloader could not run", slog.String("video_id", item.ID), slog.Any("error", err))
		return newOutcome(item, false, fmt.Sprintf("download error: %v", err))
	case code != 0:
		if len(stderr) > stderrLogBytes {
			stderr = stderr[:stderrLogBytes]
		}
		slog.Warn("download failed", slog.String("video_id", item.ID),
			slog.Int("exit_code", code), slog.String("stderr", string(stderr)))
		return newOutcome(item, false, MsgDownloadFailed)
	default:
		slog.Info("download finished", slog.String("video_id", item.ID))
		return newOutcome(item, true, MsgDownloaded)
	}
}
