package features

import (
	"strings"

	"github.com/crimson-sun/chronicle/internal/model"
)

// Unknown is the text derived from a record with no usable fields.
const Unknown = "unknown"

// Text derives the classification text for one record: app name, title and
// domain in that order, skipping empty fields, joined by single spaces.
func Text(r model.FeatureRecord) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{r.AppName, r.Title, r.Domain} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return Unknown
	}
	return strings.Join(parts, " ")
}

// Texts applies Text to every record, preserving order.
func Texts(records []model.FeatureRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = Text(r)
	}
	return out
}
