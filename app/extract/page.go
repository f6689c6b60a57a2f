package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// ExtractPage runs the full extraction pipeline against an HTML page:
// JSON-LD structured data first, DOM heuristics as an additive
// fallback, then the normalize/dedup funnel. HTML parsing is lenient;
// a document that fails to parse cleanly still yields whatever nodes
// could be salvaged.
func ExtractPage(htmlData []byte, sourceURL string, opts Options) (Meta, []Item) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlData))
	if err != nil {
		return Meta{Link: sourceURL}, nil
	}

	base := resolveBase(doc, sourceURL)
	meta := pageMeta(doc, sourceURL)

	items := ExtractJSONLD(doc, base, limit)
	if len(items) < limit {
		items = ExtractHeuristic(doc, base, limit, items, opts.Selectors)
	}

	return meta, Normalize(items, limit)
}

// ExtractItems is the item-only entry point consumed by the
// selector-testing debug tooling.
func ExtractItems(htmlData []byte, sourceURL string, limit int, selectors ...string) []Item {
	_, items := ExtractPage(htmlData, sourceURL, Options{Limit: limit, Selectors: selectors})
	return items
}

func pageMeta(doc *goquery.Document, sourceURL string) Meta {
	title := collapseWhitespace(doc.Find("title").First().Text())
	if title == "" {
		title = collapseWhitespace(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", ""))
	}

	description := collapseWhitespace(doc.Find(`meta[name="description"]`).First().AttrOr("content", ""))
	if description == "" {
		description = collapseWhitespace(doc.Find(`meta[property="og:description"]`).First().AttrOr("content", ""))
	}

	return Meta{
		Title:       capText(title, titleMaxLen),
		Link:        sourceURL,
		Description: capText(description, descriptionMaxLen),
	}
}
