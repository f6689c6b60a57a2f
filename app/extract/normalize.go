package extract

import "strings"

// Normalize is the single funnel both extractors pass through before
// items reach the feed builder: it removes duplicate links
// (case-insensitive key, displayed link keeps its casing, first
// occurrence wins) and caps the result at limit, preserving order.
func Normalize(items []Item, limit int) []Item {
	if limit < 0 {
		limit = 0
	}

	out := make([]Item, 0, min(len(items), limit))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		if len(out) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}
		key := strings.ToLower(item.Link)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}

	return out
}
