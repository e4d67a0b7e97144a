// Package utils provides small shared helpers: search-window parsing,
// ticker normalization, and text truncation.
package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseWindow parses a search-window string like "7d" or "2w" into a
// duration. Supported suffixes: d (days), w (weeks).
func ParseWindow(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid window %q: want a number followed by d or w", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid window %q: want a positive number followed by d or w", s)
	}

	switch s[len(s)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid window %q: unknown suffix %q", s, s[len(s)-1:])
	}
}

// WindowRange converts a window duration into an inclusive [start, end]
// range ending at now.
func WindowRange(now time.Time, window time.Duration) (start, end time.Time) {
	return now.Add(-window), now
}
