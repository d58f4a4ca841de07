// Package parser provides text normalization and record validation helpers.
package parser

import (
	"fmt"
	"strings"

	"github.com/F8ai/sourcing-agent/models"
)

// NormalizeURL prepends https:// when the URL carries no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// CleanText collapses runs of whitespace into single spaces and trims.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate shortens text to limit runes, appending an ellipsis when cut.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// ValidateRecord ensures a record respects the one-record-per-source
// contract before it enters the pipeline.
func ValidateRecord(r *models.ScrapeRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	switch r.Status {
	case models.StatusSuccess:
		if r.URL == "" {
			return fmt.Errorf("success record missing url")
		}
	case models.StatusError:
		if r.Error == "" {
			return fmt.Errorf("error record missing cause for %s", r.URL)
		}
	default:
		return fmt.Errorf("record has unknown status %q", r.Status)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("record missing timestamp for %s", r.URL)
	}
	return nil
}
