// Package rank implements brute-force cosine similarity ranking over a
// candidate set. No index is built: scoring is O(N*D) and sorting O(N log N),
// which holds up well for catalogs of a few thousand records.
package rank

import (
	"fmt"
	"math"
	"sort"

	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/course"
	"github.com/campusquest/coursedex/internal/domain/search/result"
)

// Rank scores every candidate against the query embedding by cosine
// similarity and returns the top k, ordered by descending score. Exact ties
// keep the original candidate order (stable sort), so repeated queries over
// an unchanged catalog are reproducible.
//
// Candidates with a zero-norm vector cannot be normalized; they are excluded
// from the output rather than producing NaN scores, and the number of
// exclusions is returned for diagnostics. A zero-norm query fails the whole
// call with ErrDegenerateVector. A candidate whose dimensionality disagrees
// with the query fails the call with ErrDimensionMismatch.
//
// The candidate slice is never mutated.
func Rank(query []float32, candidates []course.Course, k int) ([]result.Result, int, error) {
	if k < 0 {
		k = 0
	}
	if len(candidates) == 0 {
		return []result.Result{}, 0, nil
	}
	if len(query) == 0 {
		return nil, 0, fmt.Errorf("empty query embedding: %w", domain.ErrDegenerateVector)
	}

	qnorm := norm(query)
	if qnorm == 0 {
		return nil, 0, fmt.Errorf("zero-norm query embedding: %w", domain.ErrDegenerateVector)
	}

	scored := make([]result.Result, 0, len(candidates))
	excluded := 0
	for i := range candidates {
		c := &candidates[i]
		vec := c.Vector()
		if len(vec) != len(query) {
			return nil, 0, fmt.Errorf(
				"candidate %s has dimension %d, query has %d: %w",
				c.ID(), len(vec), len(query), domain.ErrDimensionMismatch,
			)
		}
		cnorm := c.Norm()
		if cnorm == 0 {
			excluded++
			continue
		}
		score := dot(query, vec) / (qnorm * cnorm)
		scored = append(scored, result.New(*c, score))
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score() > scored[b].Score()
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, excluded, nil
}

// dot accumulates in float64 to keep precision over long float32 vectors.
func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		f := float64(x)
		s += f * f
	}
	return math.Sqrt(s)
}
