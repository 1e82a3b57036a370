package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SearchCalls      atomic.Int64
	SearchPages      atomic.Int64
	SearchRetries    atomic.Int64
	SignRequests     atomic.Int64
	SignFallbacks    atomic.Int64
	Downloads        atomic.Int64
	DownloadFailures atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"search_calls", "search_pages", "search_retries",
	"sign_requests", "sign_fallbacks",
	"downloads", "download_failures",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"search_calls":      metrics.SearchCalls.Load(),
		"search_pages":      metrics.SearchPages.Load(),
		"search_retries":    metrics.SearchRetries.Load(),
		"sign_requests":     metrics.SignRequests.Load(),
		"sign_fallbacks":    metrics.SignFallbacks.Load(),
		"downloads":         metrics.Downloads.Load(),
		"download_failures": metrics.DownloadFailures.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the download sub-package.
func IncrDownloads()        { metrics.Downloads.Add(1) }
func IncrDownloadFailures() { metrics.DownloadFailures.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
