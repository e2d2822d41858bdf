package request

import (
	"fmt"
	"strings"

	"github.com/campusquest/coursedex/internal/domain/search/facet"
)

// Fallback search parameter limits, used when no limits are configured.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultK       = 10
	MaxK           = 100
)

// Limits bounds search parameters. They are set from configuration; zero
// fields fall back to the package defaults, so Limits{} behaves exactly like
// the constants.
type Limits struct {
	DefaultK       int
	MaxK           int
	MaxQueryLength int
}

// Normalized returns the limits with zero fields replaced by the defaults.
func (l Limits) Normalized() Limits {
	if l.DefaultK <= 0 {
		l.DefaultK = DefaultK
	}
	if l.MaxK <= 0 {
		l.MaxK = MaxK
	}
	if l.MaxQueryLength <= 0 {
		l.MaxQueryLength = MaxQueryLength
	}
	return l
}

// Request is a validated search query.
type Request struct {
	query     string
	selection facet.Selection
	k         int
}

// New validates and normalizes search parameters using the default limits.
func New(query string, selection facet.Selection, k int) (Request, error) {
	return NewLimited(query, selection, k, Limits{})
}

// NewLimited validates and normalizes search parameters against the given
// limits. k <= 0 takes the default; k above the maximum is clamped.
func NewLimited(query string, selection facet.Selection, k int, limits Limits) (Request, error) {
	limits = limits.Normalized()

	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > limits.MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", limits.MaxQueryLength)
	}
	if k <= 0 {
		k = limits.DefaultK
	}
	if k > limits.MaxK {
		k = limits.MaxK
	}

	return Request{query: query, selection: selection, k: k}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Selection returns the facet pre-filter.
func (r *Request) Selection() facet.Selection { return r.selection }

// K returns the number of results to return.
func (r *Request) K() int { return r.k }

// NormalizedQuery returns the query lowercased with collapsed whitespace.
// Used for memoization keys so trivially different spellings share an entry.
func (r *Request) NormalizedQuery() string {
	return strings.ToLower(strings.Join(strings.Fields(r.query), " "))
}
