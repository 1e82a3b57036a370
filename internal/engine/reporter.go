package engine

import (
	"log/slog"
)

// Reporter receives progress events from a search. Implementations must not block.
type Reporter interface {
	Started(keyword string, target int)
	Collected(item VideoItem, n, target int)
	Retrying(attempt int, err error)
	Finished(keyword string, n int, reason string)
}

// Stop reasons passed to Reporter.Finished.
const (
	StopTargetReached = "target reached"
	StopNoMoreResults = "no more results"
	StopRetriesSpent  = "retries exhausted"
	StopCanceled      = "canceled"
)

// SlogReporter logs progress with the default slog logger.
type SlogReporter struct{}

func (SlogReporter) Started(keyword string, target int) {
	slog.Info("search started", slog.String("keyword", keyword), slog.Int("target", target))
}

func (SlogReporter) Collected(item VideoItem, n, target int) {
	slog.Debug("search collected", slog.String("id", item.ID), slog.Int("n", n), slog.Int("target", target))
}

func (SlogReporter) Retrying(attempt int, err error) {
	if isTransient(err) {
		slog.Warn("search request failed, retrying", slog.Int("attempt", attempt), slog.Any("error", err))
		return
	}
	slog.Warn("search request rejected", slog.Int("attempt", attempt), slog.Any("error", err))
}

func (SlogReporter) Finished(keyword string, n int, reason string) {
	slog.Info("search finished", slog.String("keyword", keyword), slog.Int("found", n), slog.String("reason", reason))
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) Started(string, int)           {}
func (NopReporter) Collected(VideoItem, int, int) {}
func (NopReporter) Retrying(int, error)           {}
func (NopReporter) Finished(string, int, string)  {}
