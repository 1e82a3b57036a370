package cookies

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
)

// Source names where a resolved cookie came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceExplicit Source = "explicit"
	SourceFile     Source = "file"
	SourceBrowser  Source = "browser"
)

// ResolveOptions controls cookie lookup.
type ResolveOptions struct {
	Explicit    string // --cookie or DOUYIN_COOKIE
	File        string // cookie file; "" skips the file
	AutoBrowser bool   // probe local browser stores
	Domain      string
	GOOS        string // defaults to runtime.GOOS
	Home        string // defaults to os.UserHomeDir
}

// Resolve picks a cookie: explicit value, then the cookie file, then browser
// stores when AutoBrowser is set. A missing cookie is not an error; the search
// simply runs unauthenticated.
func Resolve(ctx context.Context, opts ResolveOptions) (string, Source) {
	if opts.Explicit != "" {
		warnIfMalformed(opts.Explicit, SourceExplicit)
		return opts.Explicit, SourceExplicit
	}

	if opts.File != "" {
		cookie, err := LoadFile(opts.File)
		switch {
		case err == nil:
			warnIfMalformed(cookie, SourceFile)
			return cookie, SourceFile
		case !errors.Is(err, os.ErrNotExist):
			slog.Warn("cookie file unusable", slog.String("path", opts.File), slog.Any("error", err))
		}
	}

	if opts.AutoBrowser {
		if cookie, ok := fromBrowsers(ctx, opts); ok {
			return cookie, SourceBrowser
		}
	}

	slog.Warn("no cookie configured, search results may be limited")
	return "", SourceNone
}

// FromBrowsers tries every known browser store and returns the first hit.
func FromBrowsers(ctx context.Context, domain string) (string, error) {
	cookie, ok := fromBrowsers(ctx, ResolveOptions{Domain: domain})
	if !ok {
		return "", ErrNoCookies
	}
	return cookie, nil
}

func fromBrowsers(ctx context.Context, opts ResolveOptions) (string, bool) {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	home := opts.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	for _, b := range Browsers {
		for _, store := range StorePaths(BrowserDataDir(b, goos, home)) {
			cookie, err := FromBrowserStore(ctx, store, opts.Domain)
			if err != nil {
				slog.Debug("browser cookie store skipped", slog.String("browser", b),
					slog.String("path", store), slog.Any("error", err))
				continue
			}
			slog.Info("cookie extracted from browser", slog.String("browser", b))
			return cookie, true
		}
	}
	return "", false
}

func warnIfMalformed(cookie string, src Source) {
	if !Validate(cookie) {
		slog.Warn("cookie does not look like a Cookie header", slog.String("source", string(src)))
	}
}
