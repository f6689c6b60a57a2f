package refresh

import (
	"strings"

	"github.com/pagecast/pagecast/app/extract"
)

// FilterItems applies per-job keyword filters. Matching is
// case-insensitive substring search over title, description and
// content. An item survives when it matches at least one include
// keyword (or none are configured) and no exclude keyword.
func FilterItems(items []extract.Item, include, exclude []string) []extract.Item {
	if len(include) == 0 && len(exclude) == 0 {
		return items
	}

	filtered := make([]extract.Item, 0, len(items))
	for _, item := range items {
		haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.ContentHTML)

		if matchesAny(haystack, exclude) {
			continue
		}
		if len(include) > 0 && !matchesAny(haystack, include) {
			continue
		}

		filtered = append(filtered, item)
	}

	return filtered
}

func matchesAny(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(strings.ToLower(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
