package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer searches at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog   CatalogChecker
	cache     CachePinger
	embedding EmbeddingChecker
}

// New creates a Service. cache and embedding can be nil.
func New(catalog CatalogChecker, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{catalog: catalog, cache: cache, embedding: embedding}
}

// Check runs health checks against all components. An empty catalog makes the
// whole service unhealthy; a failing cache or provider only degrades it
// (searches still work off the memo and embedding cache).
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.catalog.Len() == 0 {
		checks["catalog"] = CheckError
	} else {
		checks["catalog"] = CheckOK
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	if checks["catalog"] == CheckError {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}
