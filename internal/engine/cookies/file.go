// Package cookies loads, validates and extracts the Cookie header the search
// API needs.
package cookies

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultFile is the cookie file looked up when none is configured.
const DefaultFile = "douyin_cookie.txt"

// ErrNoCookies is returned when a source holds no usable cookie.
var ErrNoCookies = errors.New("no cookies found")

// LoadFile reads a cookie header from path. Surrounding whitespace is trimmed;
// an empty file yields ErrNoCookies.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read cookie file: %w", err)
	}
	cookie := strings.TrimSpace(string(data))
	if cookie == "" {
		return "", fmt.Errorf("%s: %w", path, ErrNoCookies)
	}
	return cookie, nil
}

// SaveFile writes cookie to path, owner-readable only.
func SaveFile(path, cookie string) error {
	cookie = strings.TrimSpace(cookie)
	if cookie == "" {
		return ErrNoCookies
	}
	if err := os.WriteFile(path, []byte(cookie), 0600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

// Validate reports whether cookie looks like a multi-pair Cookie header.
func Validate(cookie string) bool {
	return strings.Contains(cookie, "=") && strings.Contains(cookie, ";")
}
