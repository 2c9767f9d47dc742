// Package duration parses human moderation durations such as "7d", "30d",
// "6mo" or "1y", which time.ParseDuration does not accept.
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	day   = 24 * time.Hour
	week  = 7 * day
	month = 30 * day
	year  = 365 * day
)

var units = map[string]time.Duration{
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  day,
	"w":  week,
	"mo": month,
	"y":  year,
}

// Parse converts a duration string into a time.Duration. The result is always
// positive; zero or negative amounts are rejected.
func Parse(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	idx := len(s)
	for i, r := range s {
		if r < '0' || r > '9' {
			idx = i
			break
		}
	}
	if idx == 0 || idx == len(s) {
		return 0, fmt.Errorf("invalid duration %q: expected formats like 7d, 30d, 6mo, 1y", raw)
	}

	amount, err := strconv.Atoi(s[:idx])
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("invalid duration amount %q", raw)
	}

	unit, ok := units[s[idx:]]
	if !ok {
		return 0, fmt.Errorf("unknown duration unit %q", s[idx:])
	}

	return time.Duration(amount) * unit, nil
}
