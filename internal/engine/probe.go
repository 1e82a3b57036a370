package engine

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// CheckConnectivity verifies that target answers 200 to a GET, retrying
// transient statuses with exponential backoff. Other statuses and transport
// errors fail immediately.
func CheckConnectivity(ctx context.Context, client *http.Client, target string, headers map[string]string) error {
	if client == nil {
		client = http.DefaultClient
	}

	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("network check: %w", err))
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if IsRetryableStatus(resp.StatusCode) {
			return struct{}{}, &StatusError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, backoff.Permanent(fmt.Errorf("network check: %w", &StatusError{StatusCode: resp.StatusCode}))
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 5 * time.Second

	_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(20*time.Second))
	return err
}

// ProbeHeaders returns browser-like headers for CheckConnectivity.
func ProbeHeaders() map[string]string {
	h := maps.Clone(ChromeHeaders())
	if h == nil {
		h = make(map[string]string)
	}
	h["User-Agent"] = RandomUserAgent()
	return h
}
