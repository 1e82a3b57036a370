package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"
)

// Interval is a half-open range [Min, Max) from which randomized waits are drawn.
type Interval struct {
	Min time.Duration
	Max time.Duration
}

// Default waits between search requests.
var (
	// RetryBackoff is slept after a failed page request before retrying it.
	RetryBackoff = Interval{Min: 2 * time.Second, Max: 5 * time.Second}
	// PoliteDelay is slept between two successful page requests.
	PoliteDelay = Interval{Min: 1 * time.Second, Max: 3 * time.Second}
)

// Pick returns a uniformly random duration in [Min, Max).
// A degenerate interval (Max <= Min) always yields Min.
func (iv Interval) Pick() time.Duration {
	span := iv.Max - iv.Min
	if span <= 0 {
		return iv.Min
	}
	return iv.Min + time.Duration(rand.Int64N(int64(span)))
}

// Sleeper blocks for a duration or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// WallSleeper sleeps on the real clock.
var WallSleeper Sleeper = SleeperFunc(sleepCtx)

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StatusError reports a non-success HTTP status from the search endpoint.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// isTransient reports whether err looks like a temporary condition
// (throttling, 5xx, connection or timeout errors). The search loop retries
// every failure; the distinction only changes how loudly it is logged.
func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return IsRetryableStatus(statusErr.StatusCode)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return errors.Is(err, context.DeadlineExceeded)
}
