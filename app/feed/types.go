package feed

import "time"

// Format is the serialization format of a generated feed.
type Format string

const (
	FormatRSS      Format = "rss"
	FormatJSONFeed Format = "jsonfeed"
)

func (f Format) Valid() bool {
	return f == FormatRSS || f == FormatJSONFeed
}

// ContentType returns the media type the published artifact is served
// with.
func (f Format) ContentType() string {
	if f == FormatJSONFeed {
		return "application/feed+json; charset=utf-8"
	}
	return "application/rss+xml; charset=utf-8"
}

// Extension returns the file extension for the published artifact.
func (f Format) Extension() string {
	if f == FormatJSONFeed {
		return ".json"
	}
	return ".xml"
}

// ValidationResult is produced by Validate and attached to the owning
// job. Warnings do not block publication; only OK=false does.
type ValidationResult struct {
	OK        bool      `json:"ok"`
	Warnings  []string  `json:"warnings,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
