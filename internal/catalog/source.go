package catalog

import (
	"context"
	"strings"
)

// Columns maps catalog roles to source column names. Code is optional;
// every column not claimed by a role is carried as opaque display metadata.
type Columns struct {
	ID          string
	Title       string
	Code        string
	Description string
	Embedding   string
	Facets      map[string]string // facet category -> column name
}

// Row is one raw record from a tabular source. Embedding and facet cells are
// still serialized strings; parsing them is the store's job so that both
// sources share one malformed-record policy.
type Row struct {
	ID          string
	Code        string
	Title       string
	Description string
	Embedding   string
	Facets      map[string]string // category -> serialized tag list
	Metadata    map[string]string
}

// Source yields raw course rows from a tabular backing store.
// Rows must fail with domain.ErrSchema when a required column is absent.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
	Name() string
}

// parseTags splits a serialized tag list into individual tags.
// Accepts bracketed lists ("['1','2']", `["a","b"]`), comma-separated
// plain text, or a bare single value. Quotes and whitespace are trimmed.
func parseTags(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.Trim(strings.TrimSpace(p), `'"`)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
