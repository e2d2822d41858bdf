package course

import (
	"fmt"
	"math"
)

// Course is a single catalog record (immutable value object).
// The embedding vector and its norm are fixed at load time and never mutated.
type Course struct {
	id          string
	code        string
	title       string
	description string
	facets      map[string][]string
	metadata    map[string]string
	vector      []float32
	norm        float64
}

// New validates and creates a Course. The norm is precomputed here so that
// ranking never recomputes candidate magnitudes.
func New(
	id, code, title, description string,
	facets map[string][]string,
	metadata map[string]string,
	vector []float32,
) (Course, error) {
	if id == "" {
		return Course{}, fmt.Errorf("course ID is required")
	}
	if description == "" {
		return Course{}, fmt.Errorf("description is required")
	}
	if len(vector) == 0 {
		return Course{}, fmt.Errorf("embedding vector is required")
	}

	return Course{
		id:          id,
		code:        code,
		title:       title,
		description: description,
		facets:      cloneFacets(facets),
		metadata:    cloneStringMap(metadata),
		vector:      append([]float32(nil), vector...),
		norm:        vectorNorm(vector),
	}, nil
}

// ID returns the course identifier.
func (c *Course) ID() string { return c.id }

// Code returns the course code (display field).
func (c *Course) Code() string { return c.code }

// Title returns the course title.
func (c *Course) Title() string { return c.title }

// Description returns the course description text.
func (c *Course) Description() string { return c.description }

// Facets returns the facet tag sets, keyed by category.
func (c *Course) Facets() map[string][]string { return c.facets }

// Metadata returns the opaque display fields.
func (c *Course) Metadata() map[string]string { return c.metadata }

// Vector returns the embedding vector.
func (c *Course) Vector() []float32 { return c.vector }

// Norm returns the precomputed L2 norm of the embedding.
// Zero means the vector is degenerate and unrankable.
func (c *Course) Norm() float64 { return c.norm }

// HasFacet reports whether the course carries the given tag in a category.
func (c *Course) HasFacet(category, value string) bool {
	for _, v := range c.facets[category] {
		if v == value {
			return true
		}
	}
	return false
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

func cloneFacets(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	c := make(map[string][]string, len(m))
	for k, v := range m {
		c[k] = append([]string(nil), v...)
	}
	return c
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
