package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoveredFeed is a publisher-declared feed reference found in the
// document head.
type DiscoveredFeed struct {
	Href  string `json:"href"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

var feedMIMETypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/rdf+xml":   true,
	"application/feed+json": true,
	"application/json":      true,
	"application/xml":       true,
	"text/xml":              true,
}

// Discover scans <link rel="alternate"> elements in document order,
// keeping known feed MIME types, resolving hrefs against the page base
// URL and dropping duplicates (case-insensitive) while preserving
// first-seen order.
func Discover(htmlData []byte, sourceURL string) []DiscoveredFeed {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlData))
	if err != nil {
		return nil
	}

	base := resolveBase(doc, sourceURL)

	var found []DiscoveredFeed
	seen := make(map[string]bool)

	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		linkType := strings.ToLower(strings.TrimSpace(sel.AttrOr("type", "")))
		if !feedMIMETypes[linkType] {
			return
		}

		href := strings.TrimSpace(sel.AttrOr("href", ""))
		abs := resolveURL(base, href)
		if abs == "" {
			return
		}

		key := strings.ToLower(abs)
		if seen[key] {
			return
		}
		seen[key] = true

		found = append(found, DiscoveredFeed{
			Href:  abs,
			Type:  linkType,
			Title: collapseWhitespace(sel.AttrOr("title", "")),
		})
	})

	return found
}

// resolveBase determines the URL extraction resolves relative hrefs
// against: <base href> wins, then <link rel="canonical">, then the
// source URL itself.
func resolveBase(doc *goquery.Document, sourceURL string) *url.URL {
	source, err := url.Parse(sourceURL)
	if err != nil {
		source = &url.URL{}
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if base := source.ResolveReference(ref); base.Host != "" {
				return base
			}
		}
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if canonical := source.ResolveReference(ref); canonical.Host != "" {
				return canonical
			}
		}
	}

	return source
}

// resolveURL resolves href against base, returning "" when the result
// is not an absolute http(s) URL.
func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Host == "" {
		return ""
	}
	return abs.String()
}
