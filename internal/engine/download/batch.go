package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_douyin/internal/engine"
)

// DefaultGap is the random pause between two submissions.
var DefaultGap = engine.Interval{Min: 1 * time.Second, Max: 3 * time.Second}

// Batch submits items to a Downloader one at a time.
type Batch struct {
	Downloader Downloader
	History    History                         // optional
	Keyword    string                          // recorded with each outcome
	Probe      func(ctx context.Context) error // optional, run before the first submission
	Gap        engine.Interval
	Sleeper    engine.Sleeper
	Limiter    *rate.Limiter
	OnOutcome  func(n, total int, o Outcome)
}

// NewBatch returns a Batch with the default gap, wall-clock sleeper and a
// limiter allowing one submission per second.
func NewBatch(d Downloader, h History, keyword string) *Batch {
	return &Batch{
		Downloader: d,
		History:    h,
		Keyword:    keyword,
		Gap:        DefaultGap,
		Sleeper:    engine.WallSleeper,
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Run submits items in order and returns one Outcome per handled item.
// A failed probe marks every item failed without submitting any. Items the
// history already holds are reported as successes without resubmission.
// On cancellation the outcomes so far are returned with ctx.Err().
func (b *Batch) Run(ctx context.Context, items []engine.VideoItem) ([]Outcome, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if b.Probe != nil {
		if err := b.Probe(ctx); err != nil {
			slog.Error("network check failed, skipping downloads", slog.Any("error", err))
			return PendingOutcomes(items, fmt.Sprintf("download failed: %v", err)), nil
		}
	}

	sleeper := b.Sleeper
	if sleeper == nil {
		sleeper = engine.WallSleeper
	}

	outcomes := make([]Outcome, 0, len(items))
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		if b.seen(ctx, item.ID) {
			o := newOutcome(item, true, MsgAlreadyDownloaded)
			outcomes = append(outcomes, o)
			b.notify(i+1, len(items), o)
			continue
		}

		if b.Limiter != nil {
			if err := b.Limiter.Wait(ctx); err != nil {
				return outcomes, ctx.Err()
			}
		}

		o := b.Downloader.Submit(ctx, item)
		if o.Success {
			engine.IncrDownloads()
		} else {
			engine.IncrDownloadFailures()
		}
		b.record(ctx, o)
		outcomes = append(outcomes, o)
		b.notify(i+1, len(items), o)

		if i < len(items)-1 {
			if err := sleeper.Sleep(ctx, b.Gap.Pick()); err != nil {
				return outcomes, err
			}
		}
	}
	return outcomes, nil
}

func (b *Batch) seen(ctx context.Context, id string) bool {
	if b.History == nil {
		return false
	}
	ok, err := b.History.Downloaded(ctx, id)
	if err != nil {
		slog.Warn("history lookup failed", slog.String("video_id", id), slog.Any("error", err))
		return false
	}
	return ok
}

func (b *Batch) record(ctx context.Context, o Outcome) {
	if b.History == nil {
		return
	}
	if err := b.History.Record(ctx, b.Keyword, o); err != nil {
		slog.Warn("history record failed", slog.String("video_id", o.VideoID), slog.Any("error", err))
	}
}

func (b *Batch) notify(n, total int, o Outcome) {
	if b.OnOutcome != nil {
		b.OnOutcome(n, total, o)
	}
}

// Succeeded counts successful outcomes.
func Succeeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Success {
			n++
		}
	}
	return n
}
