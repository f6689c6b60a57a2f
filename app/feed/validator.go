package feed

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"time"
)

// Validator sanity-checks generated output. A malformed document fails
// hard (blocks publication); everything else is a warning attached to
// the job and surfaced to operators.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Run(format Format, content []byte) ValidationResult {
	result := ValidationResult{CheckedAt: time.Now()}

	switch format {
	case FormatJSONFeed:
		result.OK, result.Warnings = v.validateJSONFeed(content)
	default:
		result.OK, result.Warnings = v.validateRSS(content)
	}

	return result
}

type rssDoc struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (v *Validator) validateRSS(content []byte) (bool, []string) {
	var doc rssDoc
	if err := xml.Unmarshal(content, &doc); err != nil {
		return false, []string{fmt.Sprintf("malformed XML: %v", err)}
	}

	var warnings []string
	if len(doc.Channel.Items) == 0 {
		warnings = append(warnings, "feed contains no items")
	}
	for i, item := range doc.Channel.Items {
		if item.Title == "" || item.Link == "" {
			warnings = append(warnings, fmt.Sprintf("item %d is missing a title or link", i+1))
		}
	}

	return true, warnings
}

func (v *Validator) validateJSONFeed(content []byte) (bool, []string) {
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return false, []string{fmt.Sprintf("malformed JSON: %v", err)}
	}

	var warnings []string
	for _, key := range []string{"version", "title", "items"} {
		if _, ok := doc[key]; !ok {
			warnings = append(warnings, fmt.Sprintf("missing required key %q", key))
		}
	}

	if items, ok := doc["items"].([]any); ok {
		for i, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("item %d is not an object", i+1))
				continue
			}
			if _, ok := item["id"]; !ok {
				warnings = append(warnings, fmt.Sprintf("item %d is missing an id", i+1))
			}
			if _, ok := item["url"]; !ok {
				warnings = append(warnings, fmt.Sprintf("item %d is missing a url", i+1))
			}
		}
	}

	return true, warnings
}
