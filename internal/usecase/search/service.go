package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/search/request"
	"github.com/campusquest/coursedex/internal/domain/search/result"
	"github.com/campusquest/coursedex/internal/logger"
	"github.com/campusquest/coursedex/internal/metrics"
	"github.com/campusquest/coursedex/internal/rank"
)

// Service answers course search requests: it filters the catalog by facets,
// vectorizes the query and ranks the surviving candidates by cosine
// similarity.
type Service struct {
	catalog CatalogReader
	embed   Embedder
	memo    *memo
}

// New creates a search service. memoMaxEntries <= 0 uses DefaultMemoMaxEntries.
func New(catalog CatalogReader, embed Embedder, memoMaxEntries int) *Service {
	return &Service{
		catalog: catalog,
		embed:   embed,
		memo:    newMemo(memoMaxEntries),
	}
}

// Search runs one request. The second return value is the number of catalog
// courses that matched the facet selection before ranking.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, int, error) {
	start := time.Now()
	results, total, err := s.search(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	return results, total, err
}

func (s *Service) search(ctx context.Context, req *request.Request) ([]result.Result, int, error) {
	log := logger.FromContext(ctx)

	candidates := s.catalog.Filter(req.Selection())
	if len(candidates) == 0 {
		return []result.Result{}, 0, nil
	}

	key := memoKey(req.NormalizedQuery(), s.catalog.Version(), req.Selection().Key(), req.K())
	if e, ok := s.memo.get(key); ok {
		metrics.SearchMemoTotal.WithLabelValues("hit").Inc()
		return append([]result.Result(nil), e.results...), e.total, nil
	}
	metrics.SearchMemoTotal.WithLabelValues("miss").Inc()

	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, 0, fmt.Errorf("vectorize query: %w", err)
	}

	if dims := s.catalog.Dimensions(); len(embResult.Embedding) != dims {
		return nil, 0, fmt.Errorf("query embedding has %d dimensions, catalog has %d: %w",
			len(embResult.Embedding), dims, domain.ErrDimensionMismatch)
	}

	results, excluded, err := rank.Rank(embResult.Embedding, candidates, req.K())
	if err != nil {
		return nil, 0, fmt.Errorf("rank candidates: %w", err)
	}
	if excluded > 0 {
		metrics.DegenerateVectorsTotal.Add(float64(excluded))
		log.Warn("excluded zero-magnitude candidates from ranking",
			zap.Int("excluded", excluded))
	}

	// The memo keeps its own copy so callers can mutate the returned slice.
	s.memo.put(key, memoEntry{
		results: append([]result.Result(nil), results...),
		total:   len(candidates),
	})
	return results, len(candidates), nil
}

// MemoLen reports the current memo size, mostly for stats endpoints.
func (s *Service) MemoLen() int { return s.memo.len() }
