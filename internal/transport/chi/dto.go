package chi

import (
	"github.com/campusquest/coursedex/internal/domain/course"
	"github.com/campusquest/coursedex/internal/domain/search/result"
	healthuc "github.com/campusquest/coursedex/internal/usecase/health"
)

// ErrorCode identifies an API error class.
type ErrorCode string

const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeCourseNotFound         ErrorCode = "course_not_found"
	CodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	CodeDegenerateQuery        ErrorCode = "degenerate_query"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /search body.
type SearchRequest struct {
	Query  string              `json:"query"`
	Facets map[string][]string `json:"facets,omitempty"`
	K      *int                `json:"k,omitempty"`
}

// SearchResultItem is one ranked course.
type SearchResultItem struct {
	ID          string              `json:"id"`
	Code        string              `json:"code,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Score       float64             `json:"score"`
	Facets      map[string][]string `json:"facets,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// SearchResponse is the POST /search reply. Total counts the courses that
// matched the facet selection before ranking truncated to k.
type SearchResponse struct {
	Items          []SearchResultItem `json:"items"`
	Total          int                `json:"total"`
	K              int                `json:"k"`
	CatalogVersion string             `json:"catalog_version"`
}

// CourseResponse is one catalog course.
type CourseResponse struct {
	ID          string              `json:"id"`
	Code        string              `json:"code,omitempty"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Facets      map[string][]string `json:"facets,omitempty"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// CourseCursorListResponse is a cursor page of catalog courses.
type CourseCursorListResponse struct {
	Items      []CourseResponse `json:"items"`
	HasMore    bool             `json:"has_more"`
	NextCursor *int             `json:"next_cursor,omitempty"`
}

// FacetValue is one facet value with its catalog-wide course count.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetsResponse maps facet categories to their values.
type FacetsResponse struct {
	Facets map[string][]FacetValue `json:"facets"`
}

// HealthResponse is the GET /health reply.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func courseToDTO(c course.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID(),
		Code:        c.Code(),
		Title:       c.Title(),
		Description: c.Description(),
		Facets:      c.Facets(),
		Metadata:    c.Metadata(),
	}
}

func resultToDTO(r result.Result) SearchResultItem {
	c := r.Course()
	return SearchResultItem{
		ID:          c.ID(),
		Code:        c.Code(),
		Title:       c.Title(),
		Description: c.Description(),
		Score:       r.Score(),
		Facets:      c.Facets(),
		Metadata:    c.Metadata(),
	}
}

func healthToDTO(report healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	}
}
