package extract

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
)

const (
	titleMaxLen       = 220
	descriptionMaxLen = 400
	ellipsis          = "…"
)

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capText truncates s to max runes, marking the cut with an ellipsis.
func capText(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + ellipsis
}

// normalizeDate reformats any parseable date to RFC 3339. Unparseable
// strings pass through unchanged rather than being dropped.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format(time.RFC3339)
}
