package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Precondition errors returned by Search before any request is made.
var (
	ErrEmptyKeyword     = errors.New("keyword is required")
	ErrInvalidCount     = errors.New("max count must be positive")
	ErrInvalidRetries   = errors.New("max retries must not be negative")
	ErrMissingSigner    = errors.New("signer is required")
	ErrMissingTransport = errors.New("transport is required")
)

// Searcher runs the paginated keyword search against the Douyin web API.
// A Searcher holds no per-call state and may be reused across calls.
type Searcher struct {
	signer    Signer
	transport Transport
	reporter  Reporter
	sleeper   Sleeper
	endpoint  string
	headers   map[string]string
	timeout   time.Duration
	backoff   Interval
	delay     Interval
}

// SearcherOption customizes a Searcher.
type SearcherOption func(*Searcher)

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) SearcherOption {
	return func(s *Searcher) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithSleeper replaces the wall-clock sleeper (tests use a no-op).
func WithSleeper(sl Sleeper) SearcherOption {
	return func(s *Searcher) {
		if sl != nil {
			s.sleeper = sl
		}
	}
}

// WithEndpoint overrides the search API URL.
func WithEndpoint(u string) SearcherOption {
	return func(s *Searcher) { s.endpoint = u }
}

// WithHeaders sets the request headers sent with every page request.
func WithHeaders(h map[string]string) SearcherOption {
	return func(s *Searcher) { s.headers = h }
}

// WithRequestTimeout bounds each page request.
func WithRequestTimeout(d time.Duration) SearcherOption {
	return func(s *Searcher) { s.timeout = d }
}

// WithWaits overrides the retry backoff and the polite delay between pages.
func WithWaits(backoff, delay Interval) SearcherOption {
	return func(s *Searcher) {
		s.backoff = backoff
		s.delay = delay
	}
}

// NewSearcher builds a Searcher over the given signer and transport.
func NewSearcher(signer Signer, transport Transport, opts ...SearcherOption) (*Searcher, error) {
	if signer == nil {
		return nil, ErrMissingSigner
	}
	if transport == nil {
		return nil, ErrMissingTransport
	}
	s := &Searcher{
		signer:    signer,
		transport: transport,
		reporter:  SlogReporter{},
		sleeper:   WallSleeper,
		endpoint:  SearchAPIURL,
		headers:   DefaultHeaders("", ""),
		timeout:   10 * time.Second,
		backoff:   RetryBackoff,
		delay:     PoliteDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewSearcherFromConfig wires the signer and transport selected in c.
func NewSearcherFromConfig(c Config) (*Searcher, error) {
	c = c.withDefaults()

	var signer Signer
	switch strings.ToLower(c.SignerMode) {
	case SignerNone:
		signer = UnsignedSigner{}
	case SignerRemote:
		signer = NewRemoteSigner(c.SignServerURL, c.HTTPClient, c.SignTimeout)
	default:
		return nil, fmt.Errorf("unknown signer %q", c.SignerMode)
	}

	var transport Transport
	switch strings.ToLower(c.TransportMode) {
	case TransportHTTP:
		transport = NewHTTPTransport(c.HTTPClient)
	case TransportBrowser:
		if c.BrowserClient == nil {
			return nil, errors.New("browser transport requires a browser client")
		}
		transport = NewBrowserTransport(c.BrowserClient)
	default:
		return nil, fmt.Errorf("unknown transport %q", c.TransportMode)
	}

	return NewSearcher(signer, transport,
		WithEndpoint(c.SearchURL),
		WithHeaders(DefaultHeaders(c.UserAgent, c.Cookie)),
		WithRequestTimeout(c.RequestTimeout),
		WithReporter(c.Reporter),
	)
}

// Search collects up to maxCount videos matching keyword, following the
// server cursor page by page.
//
// Failed requests (transport error, non-200 status, undecodable body) count
// against maxRetries for the whole call, not per page; the call ends quietly
// with what it has once the count is reached. Results keep server order and
// are not deduplicated across pages. When ctx is canceled the videos collected
// so far are returned together with ctx's error.
func (s *Searcher) Search(ctx context.Context, keyword string, maxCount, maxRetries int) ([]VideoItem, error) {
	switch {
	case strings.TrimSpace(keyword) == "":
		return nil, ErrEmptyKeyword
	case maxCount <= 0:
		return nil, ErrInvalidCount
	case maxRetries < 0:
		return nil, ErrInvalidRetries
	}

	metrics.SearchCalls.Add(1)
	s.reporter.Started(keyword, maxCount)

	collected := make([]VideoItem, 0, min(maxCount, 64))
	cursor := "0"
	retries := 0

	finish := func(reason string, err error) ([]VideoItem, error) {
		s.reporter.Finished(keyword, len(collected), reason)
		return collected, err
	}

	for len(collected) < maxCount {
		if err := ctx.Err(); err != nil {
			return finish(StopCanceled, err)
		}

		params := s.signer.Sign(ctx, keyword, cursor)
		page, err := s.fetchPage(ctx, params)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return finish(StopCanceled, ctxErr)
			}
			retries++
			metrics.SearchRetries.Add(1)
			if retries >= maxRetries {
				return finish(StopRetriesSpent, nil)
			}
			s.reporter.Retrying(retries, err)
			if err := s.sleeper.Sleep(ctx, s.backoff.Pick()); err != nil {
				return finish(StopCanceled, err)
			}
			continue
		}
		metrics.SearchPages.Add(1)

		if len(page.Data) == 0 {
			return finish(StopNoMoreResults, nil)
		}

		for _, entry := range page.Data {
			if len(collected) >= maxCount {
				break
			}
			if entry.Type != videoContentType || entry.AwemeInfo == nil {
				continue
			}
			item := entry.AwemeInfo.toVideoItem()
			if item.ID == "" {
				continue
			}
			collected = append(collected, item)
			s.reporter.Collected(item, len(collected), maxCount)
		}

		cursor = cursorString(page.Cursor)
		if cursor == "0" {
			return finish(StopNoMoreResults, nil)
		}
		if len(collected) >= maxCount {
			break
		}

		if err := s.sleeper.Sleep(ctx, s.delay.Pick()); err != nil {
			return finish(StopCanceled, err)
		}
	}

	return finish(StopTargetReached, nil)
}

// fetchPage performs one signed request and decodes the envelope.
func (s *Searcher) fetchPage(ctx context.Context, params map[string]string) (*searchResponse, error) {
	status, body, err := s.transport.Get(ctx, s.endpoint, s.headers, params, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if status != http.StatusOK {
		return nil, &StatusError{StatusCode: status}
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &page, nil
}
