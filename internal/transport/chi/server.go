package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/catalog"
	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/course"
	"github.com/campusquest/coursedex/internal/domain/search/facet"
	"github.com/campusquest/coursedex/internal/domain/search/request"
	healthuc "github.com/campusquest/coursedex/internal/usecase/health"
	searchuc "github.com/campusquest/coursedex/internal/usecase/search"
)

const defaultPageSize = 50

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// CatalogReader is the catalog surface the HTTP layer needs.
type CatalogReader interface {
	Get(id string) (course.Course, error)
	List(cursor, limit int) ([]course.Course, int)
	Facets() map[string]map[string]int
	Version() string
}

// Server carries the HTTP handlers for the course search API.
type Server struct {
	search        *searchuc.Service
	catalog       CatalogReader
	health        *healthuc.Service
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. Zero limits fall back to the
// request package defaults.
func NewServer(
	search *searchuc.Service,
	cat CatalogReader,
	health *healthuc.Service,
	limits request.Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		catalog: cat,
		health:  health,
		limits:  limits.Normalized(),
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrCourseNotFound, http.StatusNotFound, CodeCourseNotFound),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrDegenerateVector, http.StatusUnprocessableEntity, CodeDegenerateQuery),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	}
	return s
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.SearchCourses)
		r.Get("/courses", s.ListCourses)
		r.Get("/courses/{id}", s.GetCourse)
		r.Get("/facets", s.ListFacets)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchCourses handles POST /api/v1/search.
func (s *Server) SearchCourses(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	selection, err := facet.NewSelection(req.Facets)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	k := 0
	if req.K != nil {
		if *req.K <= 0 || *req.K > s.limits.MaxK {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				"k must be between 1 and "+strconv.Itoa(s.limits.MaxK))
			return
		}
		k = *req.K
	}

	searchReq, err := request.NewLimited(req.Query, selection, k, s.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	results, total, err := s.search.Search(r.Context(), &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i, res := range results {
		items[i] = resultToDTO(res)
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Items:          items,
		Total:          total,
		K:              searchReq.K(),
		CatalogVersion: s.catalog.Version(),
	})
}

// ListCourses handles GET /api/v1/courses.
func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request) {
	cursor := 0
	limit := defaultPageSize

	if raw := r.URL.Query().Get("cursor"); raw != "" {
		if err := runtime.BindQueryParameter("form", true, false, "cursor", r.URL.Query(), &cursor); err != nil || cursor < 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "cursor must be a non-negative integer")
			return
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
	}

	courses, next := s.catalog.List(cursor, limit)

	items := make([]CourseResponse, len(courses))
	for i, c := range courses {
		items[i] = courseToDTO(c)
	}

	resp := CourseCursorListResponse{
		Items:   items,
		HasMore: next >= 0,
	}
	if next >= 0 {
		resp.NextCursor = &next
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCourse handles GET /api/v1/courses/{id}.
func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := s.catalog.Get(id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, courseToDTO(c))
}

// ListFacets handles GET /api/v1/facets.
func (s *Server) ListFacets(w http.ResponseWriter, r *http.Request) {
	counts := s.catalog.Facets()

	facets := make(map[string][]FacetValue, len(counts))
	for category, values := range counts {
		list := make([]FacetValue, 0, len(values))
		for _, v := range catalog.SortedFacetValues(values) {
			list = append(list, FacetValue{Value: v, Count: values[v]})
		}
		facets[category] = list
	}

	writeJSON(w, http.StatusOK, FacetsResponse{Facets: facets})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCourseNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrDegenerateVector,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
