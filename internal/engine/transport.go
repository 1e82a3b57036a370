package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 8 << 20

// Transport performs a single HTTP GET. It owns no retry policy.
type Transport interface {
	Get(ctx context.Context, rawURL string, headers, params map[string]string, timeout time.Duration) (status int, body []byte, err error)
}

// encodeURL appends params to rawURL's query string.
func encodeURL(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HTTPTransport sends requests with a standard net/http client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client; nil uses http.DefaultClient.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string, headers, params map[string]string, timeout time.Duration) (int, []byte, error) {
	full, err := encodeURL(rawURL, params)
	if err != nil {
		return 0, nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// BrowserTransport sends requests through the Chrome-fingerprinted stealth client.
type BrowserTransport struct {
	bc *BrowserClient
}

// NewBrowserTransport wraps a stealth browser client.
func NewBrowserTransport(bc *BrowserClient) *BrowserTransport {
	return &BrowserTransport{bc: bc}
}

type browserResult struct {
	status int
	body   []byte
	err    error
}

// Get issues the request on a separate goroutine so that ctx cancellation and
// the per-request timeout return promptly; the stealth client enforces its own
// timeout on the abandoned request.
func (t *BrowserTransport) Get(ctx context.Context, rawURL string, headers, params map[string]string, timeout time.Duration) (int, []byte, error) {
	full, err := encodeURL(rawURL, params)
	if err != nil {
		return 0, nil, err
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ch := make(chan browserResult, 1)
	go func() {
		data, _, status, err := t.bc.Do(http.MethodGet, full, headers, nil)
		ch <- browserResult{status: status, body: data, err: err}
	}()

	select {
	case r := <-ch:
		return r.status, r.body, r.err
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}
