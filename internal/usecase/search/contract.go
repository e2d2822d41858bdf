package search

import (
	"context"

	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/course"
	"github.com/campusquest/coursedex/internal/domain/search/facet"
)

// CatalogReader reads filtered candidate sets from the course catalog.
type CatalogReader interface {
	Filter(selection facet.Selection) []course.Course
	Dimensions() int
	Version() string
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
