package search

import (
	"context"
	"testing"

	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/course"
	"github.com/campusquest/coursedex/internal/domain/search/facet"
	"github.com/campusquest/coursedex/internal/domain/search/request"
)

// --- Mocks ---

type mockCatalog struct {
	courses    []course.Course
	dimensions int
	version    string
}

func (m *mockCatalog) Filter(selection facet.Selection) []course.Course {
	out := make([]course.Course, 0, len(m.courses))
	for _, c := range m.courses {
		if selection.Matches(c.Facets()) {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockCatalog) Dimensions() int { return m.dimensions }
func (m *mockCatalog) Version() string { return m.version }

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Fixtures ---

func makeCourse(t *testing.T, id string, facets map[string][]string, vec []float32) course.Course {
	t.Helper()
	c, err := course.New(id, "", "Course "+id, "description of "+id, facets, nil, vec)
	if err != nil {
		t.Fatalf("course.New(%s): %v", id, err)
	}
	return c
}

func defaultCatalog(t *testing.T) *mockCatalog {
	t.Helper()
	return &mockCatalog{
		courses: []course.Course{
			makeCourse(t, "a", map[string][]string{"level": {"lower"}}, []float32{1, 0}),
			makeCourse(t, "b", map[string][]string{"level": {"upper"}}, []float32{0, 1}),
			makeCourse(t, "c", map[string][]string{"level": {"upper"}}, []float32{0.7, 0.7}),
		},
		dimensions: 2,
		version:    "v1",
	}
}

func makeRequest(t *testing.T, query string, facets map[string][]string, k int) *request.Request {
	t.Helper()
	selection, err := facet.NewSelection(facets)
	if err != nil {
		t.Fatalf("facet.NewSelection: %v", err)
	}
	r, err := request.New(query, selection, k)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}
