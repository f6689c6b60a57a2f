package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pagecast/pagecast/app/extract"
)

// NativeParser normalizes a source that is already a feed (RSS, Atom
// or JSON Feed) into the common item model, so native-mode jobs can be
// reformatted and filtered like scraped ones.
type NativeParser struct {
	gofeedParser *gofeed.Parser
}

func NewNativeParser() *NativeParser {
	return &NativeParser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *NativeParser) Run(data []byte, limit int) (extract.Meta, []extract.Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return extract.Meta{}, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	meta := extract.Meta{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
	}

	items := make([]extract.Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		if entry == nil {
			continue
		}

		item := extract.Item{
			Title:       entry.Title,
			Link:        cmp.Or(entry.Link, entry.GUID),
			Description: entry.Description,
			ContentHTML: entry.Content,
		}

		if entry.PublishedParsed != nil {
			item.Date = entry.PublishedParsed.Format(time.RFC3339)
		} else if entry.UpdatedParsed != nil {
			item.Date = entry.UpdatedParsed.Format(time.RFC3339)
		} else {
			item.Date = entry.Published
		}

		items = append(items, item)
	}

	return meta, items, nil
}
