package engine

import (
	"net/http"
	"time"
)

// Endpoints of the Douyin web app.
const (
	HomeURL      = "https://www.douyin.com"
	SearchAPIURL = "https://www.douyin.com/aweme/v1/web/search/item/"
)

// Signer and transport modes accepted in Config.
const (
	SignerNone       = "none"
	SignerRemote     = "remote"
	TransportHTTP    = "http"
	TransportBrowser = "browser"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	SearchURL      string
	SignerMode     string // SignerNone or SignerRemote
	SignServerURL  string // base URL of the local signing service
	SignTimeout    time.Duration
	TransportMode  string // TransportHTTP or TransportBrowser
	Cookie         string
	UserAgent      string
	RequestTimeout time.Duration
	HTTPClient     *http.Client
	BrowserClient  *BrowserClient // required when TransportMode is TransportBrowser
	Reporter       Reporter       // nil = slog reporter
}

// withDefaults fills zero fields with the values the search API is known to accept.
func (c Config) withDefaults() Config {
	if c.SearchURL == "" {
		c.SearchURL = SearchAPIURL
	}
	if c.SignerMode == "" {
		c.SignerMode = SignerRemote
	}
	if c.SignServerURL == "" {
		c.SignServerURL = "http://localhost:8889"
	}
	if c.SignTimeout <= 0 {
		c.SignTimeout = 5 * time.Second
	}
	if c.TransportMode == "" {
		c.TransportMode = TransportHTTP
	}
	if c.UserAgent == "" {
		c.UserAgent = UserAgentChrome
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	return c
}
