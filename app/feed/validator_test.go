package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/pagecast/pagecast/app/extract"
)

func TestValidatorRSS_WellFormed(t *testing.T) {
	builder := NewBuilder("Pagecast/test")
	validator := NewValidator()

	items := []extract.Item{{Title: "Item", Link: "https://ex.com/a"}}
	content := builder.RSS("T", "https://ex.com/", "D", items, "", time.Now())

	result := validator.Run(FormatRSS, []byte(content))

	if !result.OK {
		t.Fatalf("Expected valid result, got warnings: %v", result.Warnings)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestValidatorRSS_MalformedFailsHard(t *testing.T) {
	validator := NewValidator()

	result := validator.Run(FormatRSS, []byte("<rss><channel><title>broken"))

	if result.OK {
		t.Errorf("Expected malformed XML to fail validation")
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "malformed XML") {
		t.Errorf("Expected malformed XML warning, got %v", result.Warnings)
	}
}

func TestValidatorRSS_EmptyFeedWarns(t *testing.T) {
	builder := NewBuilder("Pagecast/test")
	validator := NewValidator()

	content := builder.RSS("T", "https://ex.com/", "D", nil, "", time.Now())
	result := validator.Run(FormatRSS, []byte(content))

	if !result.OK {
		t.Fatalf("Empty feed should still be valid, got warnings: %v", result.Warnings)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != "feed contains no items" {
		t.Errorf("Expected empty-feed warning, got %v", result.Warnings)
	}
}

func TestValidatorRSS_ItemMissingTitleWarns(t *testing.T) {
	validator := NewValidator()

	content := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>
		<item><link>https://ex.com/a</link></item>
	</channel></rss>`

	result := validator.Run(FormatRSS, []byte(content))

	if !result.OK {
		t.Fatalf("Expected OK result, got warnings: %v", result.Warnings)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "missing a title or link") {
		t.Errorf("Expected missing-title warning, got %v", result.Warnings)
	}
}

func TestValidatorJSONFeed_MalformedFailsHard(t *testing.T) {
	validator := NewValidator()

	result := validator.Run(FormatJSONFeed, []byte(`{"version": broken`))

	if result.OK {
		t.Errorf("Expected malformed JSON to fail validation")
	}
}

func TestValidatorJSONFeed_MissingKeysWarn(t *testing.T) {
	validator := NewValidator()

	result := validator.Run(FormatJSONFeed, []byte(`{"title": "T"}`))

	if !result.OK {
		t.Fatalf("Missing keys should warn, not fail: %v", result.Warnings)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("Expected warnings for version and items, got %v", result.Warnings)
	}
}

func TestValidatorJSONFeed_ItemMissingIDWarns(t *testing.T) {
	validator := NewValidator()

	content := `{"version":"https://jsonfeed.org/version/1.1","title":"T","items":[{"title":"no id or url"}]}`
	result := validator.Run(FormatJSONFeed, []byte(content))

	if !result.OK {
		t.Fatalf("Expected OK result, got warnings: %v", result.Warnings)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("Expected id and url warnings, got %v", result.Warnings)
	}
}

func TestNativeParser_RSS(t *testing.T) {
	parser := NewNativeParser()

	data := []byte(`<?xml version="1.0"?>
<rss version="2.0"><channel>
	<title>Native Source</title>
	<link>https://ex.com/</link>
	<description>Already a feed</description>
	<item>
		<title>Entry One</title>
		<link>https://ex.com/one</link>
		<description>First entry</description>
		<pubDate>Wed, 28 Feb 2024 10:00:00 +0000</pubDate>
	</item>
	<item>
		<title>Entry Two</title>
		<guid>https://ex.com/two</guid>
	</item>
</channel></rss>`)

	meta, items, err := parser.Run(data, 10)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if meta.Title != "Native Source" || meta.Link != "https://ex.com/" {
		t.Errorf("Unexpected meta: %+v", meta)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}
	if items[0].Link != "https://ex.com/one" {
		t.Errorf("Unexpected first link: %s", items[0].Link)
	}
	if items[0].Date != "2024-02-28T10:00:00Z" {
		t.Errorf("Unexpected first date: %s", items[0].Date)
	}
	// GUID stands in for a missing link
	if items[1].Link != "https://ex.com/two" {
		t.Errorf("Expected GUID fallback, got %s", items[1].Link)
	}
}

func TestNativeParser_Limit(t *testing.T) {
	parser := NewNativeParser()

	data := []byte(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
	<item><title>A</title><link>https://ex.com/a</link></item>
	<item><title>B</title><link>https://ex.com/b</link></item>
	<item><title>C</title><link>https://ex.com/c</link></item>
</channel></rss>`)

	_, items, err := parser.Run(data, 2)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("Expected limit of 2, got %d items", len(items))
	}
}

func TestNativeParser_Malformed(t *testing.T) {
	parser := NewNativeParser()

	if _, _, err := parser.Run([]byte("not a feed at all"), 10); err == nil {
		t.Errorf("Expected error for unparseable input")
	}
}
