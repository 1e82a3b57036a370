package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SignatureKey is the query parameter carrying the request signature.
const SignatureKey = "X-Bogus"

// Fixed search parameters sent with every page request.
const (
	pageSize       = "10"
	searchTypeItem = "1"
	webAppID       = "6383"
	devicePlatform = "webapp"
	fromPage       = "search"
)

// Signer produces the query parameters for one search page.
// Implementations never fail: when a signature cannot be produced they
// return the unsigned parameters and let the server decide.
type Signer interface {
	Sign(ctx context.Context, keyword, cursor string) map[string]string
}

// BaseParams returns the unsigned parameter set for (keyword, cursor).
func BaseParams(keyword, cursor string) map[string]string {
	return map[string]string{
		"keyword":         keyword,
		"count":           pageSize,
		"cursor":          cursor,
		"type":            searchTypeItem,
		"aid":             webAppID,
		"device_platform": devicePlatform,
		"from_page":       fromPage,
	}
}

// baseQuery renders BaseParams in the fixed order the signing service hashes.
func baseQuery(keyword, cursor string) string {
	return "keyword=" + pathQuote(keyword) +
		"&count=" + pageSize +
		"&cursor=" + cursor +
		"&type=" + searchTypeItem +
		"&aid=" + webAppID +
		"&device_platform=" + devicePlatform +
		"&from_page=" + fromPage
}

// pathQuote percent-encodes s with %20 for spaces.
func pathQuote(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// UnsignedSigner returns BaseParams without a signature.
type UnsignedSigner struct{}

func (UnsignedSigner) Sign(_ context.Context, keyword, cursor string) map[string]string {
	return BaseParams(keyword, cursor)
}

// RemoteSigner asks a local signing service for signed parameters:
// GET <base>/xg/path/?url=<urlencoded query>.
type RemoteSigner struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewRemoteSigner builds a signer for the service at baseURL.
func NewRemoteSigner(baseURL string, client *http.Client, timeout time.Duration) *RemoteSigner {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteSigner{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

type signResponse struct {
	StatusCode json.RawMessage `json:"status_code"`
	Result     []struct {
		Params map[string]any `json:"params"`
	} `json:"result"`
}

// ErrSignUnreachable is returned by Ping when no connection could be made.
var ErrSignUnreachable = errors.New("sign service unreachable")

// ErrSignRejected is returned when the signing service answers without usable params.
var ErrSignRejected = errors.New("sign service returned no params")

// Sign returns BaseParams overlaid with the service's params, or plain
// BaseParams when the service fails.
func (s *RemoteSigner) Sign(ctx context.Context, keyword, cursor string) map[string]string {
	metrics.SignRequests.Add(1)
	params, err := s.fetch(ctx, keyword, cursor)
	if err != nil {
		metrics.SignFallbacks.Add(1)
		slog.Warn("sign service unavailable, sending unsigned request", slog.Any("error", err))
		return BaseParams(keyword, cursor)
	}
	return params
}

func (s *RemoteSigner) fetch(ctx context.Context, keyword, cursor string) (map[string]string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	u := s.baseURL + "/xg/path/?url=" + url.QueryEscape(baseQuery(keyword, cursor))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sign service: %w", &StatusError{StatusCode: resp.StatusCode})
	}

	var sr signResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode sign response: %w", err)
	}
	if strings.Trim(string(sr.StatusCode), `"`) != "200" || len(sr.Result) == 0 || len(sr.Result[0].Params) == 0 {
		return nil, ErrSignRejected
	}

	// The service's params overlay the base set.
	out := BaseParams(keyword, cursor)
	for k, v := range sr.Result[0].Params {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out, nil
}

// Ping checks that the signing service answers on its root path.
func (s *RemoteSigner) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sign service: %w", &StatusError{StatusCode: resp.StatusCode})
	}
	return nil
}
