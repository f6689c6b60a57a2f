package extract

import "testing"

func TestDiscover_RelAlternate(t *testing.T) {
	html := `<html><head>
		<link rel="alternate" type="application/rss+xml" href="/feed.xml" title="Site Feed">
	</head><body></body></html>`

	found := Discover([]byte(html), "https://ex.com/page")

	if len(found) != 1 {
		t.Fatalf("Expected 1 discovered feed, got %d", len(found))
	}
	if found[0].Href != "https://ex.com/feed.xml" {
		t.Errorf("Expected resolved href, got %s", found[0].Href)
	}
	if found[0].Type != "application/rss+xml" {
		t.Errorf("Expected rss+xml type, got %s", found[0].Type)
	}
	if found[0].Title != "Site Feed" {
		t.Errorf("Expected title 'Site Feed', got %s", found[0].Title)
	}
}

func TestDiscover_FiltersNonFeedTypes(t *testing.T) {
	html := `<html><head>
		<link rel="alternate" type="text/html" href="/en/page">
		<link rel="alternate" type="application/atom+xml" href="/atom.xml">
		<link rel="stylesheet" href="/style.css">
	</head></html>`

	found := Discover([]byte(html), "https://ex.com/")

	if len(found) != 1 {
		t.Fatalf("Expected 1 discovered feed, got %d", len(found))
	}
	if found[0].Href != "https://ex.com/atom.xml" {
		t.Errorf("Unexpected href: %s", found[0].Href)
	}
}

func TestDiscover_DeduplicatesCaseInsensitive(t *testing.T) {
	html := `<html><head>
		<link rel="alternate" type="application/rss+xml" href="https://ex.com/Feed.xml" title="First">
		<link rel="alternate" type="application/rss+xml" href="https://ex.com/feed.xml" title="Second">
		<link rel="alternate" type="application/feed+json" href="/feed.json">
	</head></html>`

	found := Discover([]byte(html), "https://ex.com/")

	if len(found) != 2 {
		t.Fatalf("Expected 2 discovered feeds, got %d", len(found))
	}
	// First-seen order and casing preserved
	if found[0].Href != "https://ex.com/Feed.xml" || found[0].Title != "First" {
		t.Errorf("Expected first occurrence to win, got %+v", found[0])
	}
	if found[1].Href != "https://ex.com/feed.json" {
		t.Errorf("Unexpected second feed: %+v", found[1])
	}
}

func TestDiscover_BaseHrefResolution(t *testing.T) {
	html := `<html><head>
		<base href="https://cdn.ex.com/pages/">
		<link rel="alternate" type="application/rss+xml" href="feed.xml">
	</head></html>`

	found := Discover([]byte(html), "https://ex.com/page")

	if len(found) != 1 {
		t.Fatalf("Expected 1 discovered feed, got %d", len(found))
	}
	if found[0].Href != "https://cdn.ex.com/pages/feed.xml" {
		t.Errorf("Expected base-href resolution, got %s", found[0].Href)
	}
}

func TestDiscover_RelativeBaseHref(t *testing.T) {
	html := `<html><head>
		<base href="/section/">
		<link rel="alternate" type="application/rss+xml" href="feed.xml">
	</head></html>`

	found := Discover([]byte(html), "https://ex.com/page")

	if len(found) != 1 {
		t.Fatalf("Expected 1 discovered feed, got %d", len(found))
	}
	if found[0].Href != "https://ex.com/section/feed.xml" {
		t.Errorf("Expected relative base resolved against the source URL, got %s", found[0].Href)
	}
}

func TestDiscover_MalformedHTML(t *testing.T) {
	html := `<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"<body><p>broken`

	found := Discover([]byte(html), "https://ex.com/")

	// Lenient parsing: no panic, best-effort result
	if found == nil {
		t.Log("No feeds salvaged from malformed HTML, which is acceptable")
	}
}
