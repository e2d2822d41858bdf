package facet

import (
	"fmt"
	"sort"
	"strings"
)

// MaxValuesPerCategory is the maximum number of accepted values per facet category.
const MaxValuesPerCategory = 32

// Selection is a set of facet predicates: category -> accepted values.
// A record matches when it satisfies every non-empty category (logical AND),
// carrying at least one accepted value within each (logical OR).
// The empty Selection accepts everything.
type Selection struct {
	categories map[string][]string
}

// NewSelection validates and creates a Selection.
// Empty value lists are dropped — an empty category means "no restriction".
func NewSelection(categories map[string][]string) (Selection, error) {
	if len(categories) == 0 {
		return Selection{}, nil
	}
	normalized := make(map[string][]string, len(categories))
	for cat, values := range categories {
		if cat == "" {
			return Selection{}, fmt.Errorf("facet category name is required")
		}
		if len(values) > MaxValuesPerCategory {
			return Selection{}, fmt.Errorf("too many values for facet %q (max %d)", cat, MaxValuesPerCategory)
		}
		vals := dedupe(values)
		if len(vals) == 0 {
			continue
		}
		normalized[cat] = vals
	}
	if len(normalized) == 0 {
		return Selection{}, nil
	}
	return Selection{categories: normalized}, nil
}

// IsEmpty reports whether the selection places no restriction at all.
func (s Selection) IsEmpty() bool { return len(s.categories) == 0 }

// Categories returns the restricted category names in sorted order.
func (s Selection) Categories() []string {
	out := make([]string, 0, len(s.categories))
	for cat := range s.categories {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Values returns the accepted values for a category (nil when unrestricted).
func (s Selection) Values(category string) []string {
	return s.categories[category]
}

// Matches reports whether a record's facet tags satisfy the selection.
func (s Selection) Matches(facets map[string][]string) bool {
	for cat, accepted := range s.categories {
		if !anyOverlap(facets[cat], accepted) {
			return false
		}
	}
	return true
}

// Key returns a canonical string representation, stable across map iteration
// order. Used as a component of memoization keys.
func (s Selection) Key() string {
	if s.IsEmpty() {
		return ""
	}
	var b strings.Builder
	for i, cat := range s.Categories() {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(cat)
		b.WriteByte('=')
		vals := append([]string(nil), s.categories[cat]...)
		sort.Strings(vals)
		b.WriteString(strings.Join(vals, ","))
	}
	return b.String()
}

func anyOverlap(have, accepted []string) bool {
	for _, h := range have {
		for _, a := range accepted {
			if h == a {
				return true
			}
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
