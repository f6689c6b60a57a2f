package feed

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/araddon/dateparse"

	"github.com/pagecast/pagecast/app/extract"
)

// Builder serializes a channel plus item list into RSS 2.0 XML or
// JSON Feed 1.1. Output is deterministic for identical inputs; the
// only timestamp embedded is the explicit lastBuilt argument.
type Builder struct {
	generator string
}

func NewBuilder(generator string) *Builder {
	return &Builder{generator: generator}
}

func (b *Builder) RSS(title, link, description string, items []extract.Item, selfURL string, lastBuilt time.Time) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	b.writeElement(&buf, "title", title, 4)
	b.writeElement(&buf, "link", link, 4)
	if description == "" {
		description = fmt.Sprintf("Feed generated from %s", link)
	}
	b.writeElement(&buf, "description", description, 4)

	if selfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(selfURL)))
	}

	b.writeElement(&buf, "lastBuildDate", lastBuilt.Format(time.RFC1123Z), 4)
	b.writeElement(&buf, "generator", b.generator, 4)

	for _, item := range items {
		b.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (b *Builder) writeItem(buf *bytes.Buffer, item extract.Item) {
	buf.WriteString("    <item>\n")

	b.writeElement(buf, "title", item.Title, 6)
	b.writeElement(buf, "link", item.Link, 6)

	if item.Link != "" {
		buf.WriteString(`      <guid isPermaLink="true">`)
		xml.EscapeText(buf, []byte(item.Link))
		buf.WriteString("</guid>\n")
	}

	b.writeElement(buf, "description", item.Description, 6)

	if item.ContentHTML != "" && item.ContentHTML != item.Description {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(item.ContentHTML)
		buf.WriteString("]]></content:encoded>\n")
	}

	if t, ok := parseItemDate(item.Date); ok {
		b.writeElement(buf, "pubDate", t.Format(time.RFC1123Z), 6)
	}

	buf.WriteString("    </item>\n")
}

func (b *Builder) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

type jsonFeed struct {
	Version     string         `json:"version"`
	Title       string         `json:"title"`
	HomePageURL string         `json:"home_page_url,omitempty"`
	FeedURL     string         `json:"feed_url,omitempty"`
	Description string         `json:"description,omitempty"`
	Items       []jsonFeedItem `json:"items"`
}

type jsonFeedItem struct {
	ID            string `json:"id"`
	URL           string `json:"url,omitempty"`
	Title         string `json:"title,omitempty"`
	ContentHTML   string `json:"content_html,omitempty"`
	ContentText   string `json:"content_text,omitempty"`
	Summary       string `json:"summary,omitempty"`
	DatePublished string `json:"date_published,omitempty"`
}

func (b *Builder) JSONFeed(title, link, description string, items []extract.Item, feedURL string) (string, error) {
	out := jsonFeed{
		Version:     "https://jsonfeed.org/version/1.1",
		Title:       title,
		HomePageURL: link,
		FeedURL:     feedURL,
		Description: description,
		Items:       make([]jsonFeedItem, 0, len(items)),
	}

	for _, item := range items {
		entry := jsonFeedItem{
			ID:      item.Link,
			URL:     item.Link,
			Title:   item.Title,
			Summary: item.Description,
		}

		if item.ContentHTML != "" {
			entry.ContentHTML = item.ContentHTML
		} else {
			entry.ContentText = item.Description
		}

		if t, ok := parseItemDate(item.Date); ok {
			entry.DatePublished = t.Format(time.RFC3339)
		}

		out.Items = append(out.Items, entry)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON Feed: %w", err)
	}

	return string(data), nil
}

func parseItemDate(date string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
