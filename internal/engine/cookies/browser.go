package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultDomain is the cookie domain the search API reads.
const DefaultDomain = "douyin.com"

// Supported browsers.
const (
	Chrome = "chrome"
	Edge   = "edge"
)

// Browsers lists the browsers probed by automatic extraction, in order.
var Browsers = []string{Chrome, Edge}

// BrowserDataDir returns the user-data directory of browser on goos, or ""
// when the combination is unknown. home is the user's home (or USERPROFILE on
// Windows).
func BrowserDataDir(browser, goos, home string) string {
	switch browser {
	case Chrome:
		switch goos {
		case "windows":
			return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data")
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "Google", "Chrome")
		case "linux":
			return filepath.Join(home, ".config", "google-chrome")
		}
	case Edge:
		switch goos {
		case "windows":
			return filepath.Join(home, "AppData", "Local", "Microsoft", "Edge", "User Data")
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "Microsoft Edge")
		case "linux":
			return filepath.Join(home, ".config", "microsoft-edge")
		}
	}
	return ""
}

// StorePaths returns the cookie databases that exist under a browser data dir.
// Newer Chromium builds keep the store under Default/Network.
func StorePaths(dataDir string) []string {
	if dataDir == "" {
		return nil
	}
	var out []string
	for _, p := range []string{
		filepath.Join(dataDir, "Default", "Network", "Cookies"),
		filepath.Join(dataDir, "Default", "Cookies"),
	} {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// FromBrowserStore reads the cookies for domain from a Chromium cookie
// database. The store is copied first because a running browser keeps it
// locked. Rows with an empty value (encrypted at rest) are skipped; a repeated
// name keeps its first position and its last value.
func FromBrowserStore(ctx context.Context, dbPath, domain string) (string, error) {
	if domain == "" {
		domain = DefaultDomain
	}
	domain = strings.TrimPrefix(domain, ".")

	tmp, err := copyToTemp(dbPath)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	db, err := sql.Open("sqlite", tmp)
	if err != nil {
		return "", fmt.Errorf("open cookie store: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT name, value FROM cookies WHERE host_key LIKE ? OR host_key LIKE ? ORDER BY rowid`,
		domain, "%."+domain)
	if err != nil {
		return "", fmt.Errorf("query cookie store: %w", err)
	}
	defer rows.Close()

	var names []string
	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return "", fmt.Errorf("scan cookie: %w", err)
		}
		if name == "" || value == "" {
			continue
		}
		if _, seen := values[name]; !seen {
			names = append(names, name)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("read cookie store: %w", err)
	}
	if len(names) == 0 {
		return "", ErrNoCookies
	}

	pairs := make([]string, len(names))
	for i, n := range names {
		pairs[i] = n + "=" + values[n]
	}
	return strings.Join(pairs, "; "), nil
}

func copyToTemp(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open cookie store: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp("", "douyin-cookies-*.db")
	if err != nil {
		return "", fmt.Errorf("create temp copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("copy cookie store: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("copy cookie store: %w", err)
	}
	return out.Name(), nil
}
