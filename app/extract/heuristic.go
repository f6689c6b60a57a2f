package extract

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Structural queries in priority order. A higher-priority query is
// fully exhausted before a lower-priority one contributes.
var heuristicQueries = []string{
	"article a[href]",
	`[class*="card"] a[href], [class*="story"] a[href], [class*="item"] a[href], [class*="post"] a[href]`,
	"h1 a[href], h2 a[href], h3 a[href]",
	"li a[href]",
}

var datedPathPattern = regexp.MustCompile(`/\d{4}/\d{2}/\d{2}/`)

var sectionTokens = []string{"/news/", "/blog/", "/article", "/story", "/review", "/post"}

const minTitleLen = 6

// ExtractHeuristic scans article/card/heading/list containers for
// permalink-like anchors. It is seeded with whatever structured-data
// extraction already found, so processing is additive. Heuristic items
// carry no description or date; there is no secondary snippet lookup,
// which keeps the pass bounded.
func ExtractHeuristic(doc *goquery.Document, base *url.URL, limit int, seed []Item, selectors []string) []Item {
	items := seed

	seenLinks := make(map[string]bool, len(seed))
	seenCandidates := make(map[uint64]bool)
	for _, item := range seed {
		seenLinks[strings.ToLower(item.Link)] = true
	}

	queries := append(append([]string{}, selectors...), heuristicQueries...)

	for _, query := range queries {
		if len(items) >= limit {
			break
		}

		doc.Find(query).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			title := collapseWhitespace(sel.Text())
			if utf8.RuneCountInString(title) < minTitleLen {
				return true
			}

			href := strings.TrimSpace(sel.AttrOr("href", ""))
			lowered := strings.ToLower(href)
			if strings.HasPrefix(lowered, "javascript:") || strings.HasPrefix(lowered, "mailto:") {
				return true
			}

			abs := resolveURL(base, href)
			if abs == "" || !looksLikePermalink(abs) {
				return true
			}

			key := candidateKey(abs, title)
			if seenCandidates[key] || seenLinks[strings.ToLower(abs)] {
				return true
			}
			seenCandidates[key] = true
			seenLinks[strings.ToLower(abs)] = true

			items = append(items, Item{
				Title: capText(title, titleMaxLen),
				Link:  abs,
			})
			return len(items) < limit
		})
	}

	return items
}

// looksLikePermalink applies the article-permalink heuristic: a dated
// /YYYY/MM/DD/ path segment, or a hyphenated path longer than 20
// characters, or a known content-section token in a path longer than
// 15 characters. Short paths without hyphens are rejected outright.
func looksLikePermalink(abs string) bool {
	parsed, err := url.Parse(abs)
	if err != nil {
		return false
	}
	path := parsed.Path

	if datedPathPattern.MatchString(path) {
		return true
	}
	if strings.Contains(path, "-") && len(path) > 20 {
		return true
	}
	if len(path) > 15 {
		lowered := strings.ToLower(path)
		for _, token := range sectionTokens {
			if strings.Contains(lowered, token) {
				return true
			}
		}
	}
	return false
}

func candidateKey(abs, title string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s", abs, strings.ToLower(title))
	return h.Sum64()
}
