package extract

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSONLD collects every <script type="application/ld+json">
// block and walks the parsed structures for ItemList and Article-like
// nodes. One malformed block does not abort extraction of the others.
func ExtractJSONLD(doc *goquery.Document, base *url.URL, limit int) []Item {
	var items []Item
	seen := make(map[string]bool)

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		root, ok := parseBlock(sel.Text())
		if !ok {
			return true
		}

		queue := []any{root}
		for len(queue) > 0 && len(items) < limit {
			node := queue[0]
			queue = queue[1:]

			switch v := node.(type) {
			case []any:
				queue = append(queue, v...)
			case map[string]any:
				if graph, ok := v["@graph"].([]any); ok {
					queue = append(queue, graph...)
					continue
				}
				typ := strings.ToLower(typeOf(v))
				if typ == "itemlist" {
					items = append(items, listItems(v, base, seen, limit-len(items))...)
					continue
				}
				if strings.Contains(typ, "article") || typ == "blogposting" {
					if item, ok := articleItem(v, base, seen); ok {
						items = append(items, item)
					}
				}
			}
		}

		return len(items) < limit
	})

	return items
}

// parseBlock parses a JSON-LD script body, repairing trailing commas
// (the one malformation worth tolerating) before giving up.
func parseBlock(text string) (any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	var root any
	if err := json.Unmarshal([]byte(text), &root); err == nil {
		return root, true
	}

	repaired := trailingCommaPattern.ReplaceAllString(text, "$1")
	if err := json.Unmarshal([]byte(repaired), &root); err == nil {
		return root, true
	}

	return nil, false
}

// listItems expands an ItemList's itemListElement entries, supporting
// both direct fields and nested item.* fields.
func listItems(node map[string]any, base *url.URL, seen map[string]bool, limit int) []Item {
	elements, ok := node["itemListElement"].([]any)
	if !ok {
		return nil
	}

	var items []Item
	for _, raw := range elements {
		if len(items) >= limit {
			break
		}
		el, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		fields := el
		if nested, ok := el["item"].(map[string]any); ok {
			fields = nested
		}

		link := resolveURL(base, stringField(fields, "url", "@id"))
		title := collapseWhitespace(stringField(fields, "name", "headline"))
		if link == "" || title == "" {
			continue
		}
		if seen[link] {
			continue
		}
		seen[link] = true

		items = append(items, Item{
			Title:       capText(title, titleMaxLen),
			Link:        link,
			Description: capText(collapseWhitespace(stringField(fields, "description")), descriptionMaxLen),
			Date:        normalizeDate(stringField(fields, "datePublished")),
		})
	}

	return items
}

func articleItem(node map[string]any, base *url.URL, seen map[string]bool) (Item, bool) {
	title := collapseWhitespace(stringField(node, "headline", "name"))

	link := resolveURL(base, stringField(node, "url"))
	if link == "" {
		link = resolveURL(base, mainEntityID(node))
	}

	if title == "" || link == "" {
		return Item{}, false
	}
	if seen[link] {
		return Item{}, false
	}
	seen[link] = true

	return Item{
		Title:       capText(title, titleMaxLen),
		Link:        link,
		Description: capText(collapseWhitespace(stringField(node, "description")), descriptionMaxLen),
		Date:        normalizeDate(stringField(node, "datePublished", "dateModified")),
	}, true
}

func typeOf(node map[string]any) string {
	switch t := node["@type"].(type) {
	case string:
		return t
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func stringField(node map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := node[key].(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// mainEntityID extracts mainEntityOfPage as either a bare string or an
// object with an @id.
func mainEntityID(node map[string]any) string {
	switch v := node["mainEntityOfPage"].(type) {
	case string:
		return v
	case map[string]any:
		return stringField(v, "@id", "url")
	}
	return ""
}
