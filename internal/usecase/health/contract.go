package health

import "context"

// CatalogChecker reports whether the catalog holds any courses.
type CatalogChecker interface {
	Len() int
}

// CachePinger checks cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
