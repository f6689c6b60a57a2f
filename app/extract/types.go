package extract

// Item is a single extracted content item. Link is always an absolute
// URL and unique within one extraction result.
type Item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	ContentHTML string `json:"content_html,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Meta describes the source page itself, used as channel metadata for
// generated feeds.
type Meta struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
}

// Options control a single extraction pass.
type Options struct {
	Limit int
	// Selectors are CSS selector overrides tried before the built-in
	// structural queries, used by the selector-testing debug tooling.
	Selectors []string
}

const DefaultLimit = 20
