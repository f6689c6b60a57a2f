package extract

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"

	readability "github.com/go-shiori/go-readability"

	"github.com/pagecast/pagecast/app/httpclient"
)

// EnrichContent fetches up to max item pages and fills ContentHTML via
// readability extraction. Failures are per-item and non-fatal.
func EnrichContent(ctx context.Context, client *httpclient.Client, items []Item, max int) []Item {
	for i := range items {
		if i >= max {
			break
		}

		res := client.Get(ctx, items[i].Link, httpclient.Options{UseCache: true})
		if !res.OK || res.Status < 200 || res.Status >= 300 {
			slog.Debug("Content enrichment fetch failed", "url", items[i].Link, "status", res.Status, "error", res.Err)
			continue
		}

		pageURL, err := url.Parse(res.FinalURL)
		if err != nil {
			continue
		}

		article, err := readability.FromReader(bytes.NewReader(res.Body), pageURL)
		if err != nil {
			slog.Debug("Content extraction failed", "url", items[i].Link, "error", err)
			continue
		}

		if article.Content != "" {
			items[i].ContentHTML = article.Content
		}
		if items[i].Description == "" && article.Excerpt != "" {
			items[i].Description = capText(collapseWhitespace(article.Excerpt), descriptionMaxLen)
		}
	}

	return items
}
