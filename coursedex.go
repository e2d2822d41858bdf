// Package coursedex is an embeddable semantic course-catalog search engine.
// It loads a catalog of courses with precomputed embedding vectors, filters
// them by facet predicates and ranks the survivors by cosine similarity to
// the query embedding.
package coursedex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/catalog"
	"github.com/campusquest/coursedex/internal/db"
	dbMemory "github.com/campusquest/coursedex/internal/db/memory"
	dbRedis "github.com/campusquest/coursedex/internal/db/redis"
	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/repository/embcache"
	openaiEmb "github.com/campusquest/coursedex/internal/transport/openai"
	searchuc "github.com/campusquest/coursedex/internal/usecase/search"
)

// EmbeddingResult is the outcome of vectorizing one text.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder turns text into a vector. Implement it to plug in a custom
// provider via WithEmbedder.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// Client is the coursedex SDK entry point.
type Client struct {
	store     *catalog.Store
	kv        db.KV
	searchSvc *searchuc.Service
	logger    *zap.Logger
}

// New loads the catalog and wires the search pipeline.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		idColumn:          "id",
		titleColumn:       "title",
		descriptionColumn: "description",
		embeddingColumn:   "embedding",
		model:             "text-embedding-ada-002",
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.sourcePath == "" {
		return nil, errors.New("coursedex: catalog source required (use WithCSV or WithSQLite)")
	}
	if cfg.embedder == nil && cfg.apiKey == "" {
		return nil, errors.New("coursedex: embedder required (use WithOpenAI or WithEmbedder)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := catalog.NewStore(logger)
	src := buildSource(cfg)

	ctx := context.Background()
	if _, err := store.Load(ctx, src, catalog.Options{Dimensions: cfg.dimensions}); err != nil {
		return nil, fmt.Errorf("coursedex: %w", err)
	}

	kv, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	embedder := buildEmbedder(cfg, kv, logger)

	return &Client{
		store:     store,
		kv:        kv,
		searchSvc: searchuc.New(store, embedder, cfg.memoSize),
		logger:    logger,
	}, nil
}

func buildSource(cfg *clientConfig) catalog.Source {
	columns := catalog.Columns{
		ID:          cfg.idColumn,
		Code:        cfg.codeColumn,
		Title:       cfg.titleColumn,
		Description: cfg.descriptionColumn,
		Embedding:   cfg.embeddingColumn,
		Facets:      cfg.facetColumns,
	}
	if cfg.sourceDriver == "sqlite" {
		return catalog.NewSQLiteSource(cfg.sourcePath, cfg.sourceTable, columns)
	}
	return catalog.NewCSVSource(cfg.sourcePath, columns)
}

func buildCache(cfg *clientConfig) (db.KV, error) {
	if len(cfg.cacheAddrs) == 0 {
		return dbMemory.NewStore(), nil
	}
	kv, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.cacheAddrs,
		Password: cfg.cachePassword,
	})
	if err != nil {
		return nil, fmt.Errorf("coursedex: create redis cache: %w", err)
	}
	return kv, nil
}

func buildEmbedder(cfg *clientConfig, kv db.KV, logger *zap.Logger) domain.Embedder {
	var base domain.Embedder
	if cfg.embedder != nil {
		base = &embedderAdapter{inner: cfg.embedder}
	} else {
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.apiKey,
			BaseURL:    cfg.baseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
			Timeout:    cfg.embedTimeout,
			Provider:   "openai",
			Logger:     logger,
		})
	}
	if kv == nil {
		return base
	}
	return embcache.New(base, kv, cfg.cacheTTL, nil, logger)
}

// Close releases the cache connection.
func (c *Client) Close() {
	if c.kv != nil {
		c.kv.Close()
	}
}

// Len returns the number of loaded courses.
func (c *Client) Len() int { return c.store.Len() }

// Version returns the catalog content fingerprint.
func (c *Client) Version() string { return c.store.Version() }

// Facets returns per-category value counts across the catalog.
func (c *Client) Facets() map[string]map[string]int { return c.store.Facets() }

// Course returns one catalog course by ID.
func (c *Client) Course(id string) (Course, error) {
	dc, err := c.store.Get(id)
	if err != nil {
		return Course{}, fmt.Errorf("coursedex: %w", err)
	}
	return Course{
		ID:          dc.ID(),
		Code:        dc.Code(),
		Title:       dc.Title(),
		Description: dc.Description(),
		Facets:      dc.Facets(),
		Metadata:    dc.Metadata(),
	}, nil
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
