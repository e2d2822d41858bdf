package coursedex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	sourceDriver string // csv, sqlite
	sourcePath   string
	sourceTable  string

	idColumn          string
	codeColumn        string
	titleColumn       string
	descriptionColumn string
	embeddingColumn   string
	facetColumns      map[string]string

	dimensions int

	apiKey        string
	baseURL       string
	model         string
	embedTimeout  time.Duration
	embedder      Embedder
	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration
	memoSize      int

	logger *zap.Logger
}

// WithCSV loads the catalog from a CSV file.
func WithCSV(path string) Option {
	return func(c *clientConfig) {
		c.sourceDriver = "csv"
		c.sourcePath = path
	}
}

// WithSQLite loads the catalog from a SQLite table.
func WithSQLite(path, table string) Option {
	return func(c *clientConfig) {
		c.sourceDriver = "sqlite"
		c.sourcePath = path
		c.sourceTable = table
	}
}

// WithColumns overrides the catalog role column names.
// Empty arguments keep the defaults (id, title, description, embedding).
func WithColumns(id, code, title, description, embedding string) Option {
	return func(c *clientConfig) {
		if id != "" {
			c.idColumn = id
		}
		c.codeColumn = code
		if title != "" {
			c.titleColumn = title
		}
		if description != "" {
			c.descriptionColumn = description
		}
		if embedding != "" {
			c.embeddingColumn = embedding
		}
	}
}

// WithFacetColumn declares a source column as a facet category.
func WithFacetColumn(category, column string) Option {
	return func(c *clientConfig) {
		if c.facetColumns == nil {
			c.facetColumns = make(map[string]string)
		}
		c.facetColumns[category] = column
	}
}

// WithDimensions pins the expected embedding width. Without it the width is
// inferred from the first catalog record.
func WithDimensions(n int) Option {
	return func(c *clientConfig) { c.dimensions = n }
}

// WithOpenAI configures an OpenAI-compatible embedding provider for queries.
// An empty model keeps the default (text-embedding-ada-002).
func WithOpenAI(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.apiKey = apiKey
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the embedding provider at a custom endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithEmbedTimeout bounds a single provider call.
func WithEmbedTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.embedTimeout = d }
}

// WithEmbedder plugs in a custom query embedder instead of the OpenAI provider.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithRedisCache caches query embeddings in Redis.
func WithRedisCache(addrs []string, password string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheAddrs = addrs
		c.cachePassword = password
		c.cacheTTL = ttl
	}
}

// WithMemoSize bounds the in-process search result memo.
func WithMemoSize(n int) Option {
	return func(c *clientConfig) { c.memoSize = n }
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
