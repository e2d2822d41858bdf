package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the coursedex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	Driver  string        `yaml:"driver"` // csv, sqlite (default: csv)
	Path    string        `yaml:"path"`   // csv file or sqlite database file
	Table   string        `yaml:"table"`  // sqlite only (default: courses)
	Columns ColumnsConfig `yaml:"columns"`
	// Dimensions pins the expected embedding dimensionality.
	// 0 — inferred from the first parsed record.
	Dimensions int `yaml:"dimensions"`
}

// ColumnsConfig maps catalog roles to source column names.
type ColumnsConfig struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Code        string            `yaml:"code"`
	Description string            `yaml:"description"`
	Embedding   string            `yaml:"embedding"`
	Facets      map[string]string `yaml:"facets"` // facet category -> column name
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
	Provider   string `yaml:"provider"` // label for logs/metrics (default: openai)
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver   string   `yaml:"driver"` // redis, memory, off (default: memory)
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"` // 0 = no expiry
}

// SearchConfig holds search parameter limits.
type SearchConfig struct {
	DefaultK       int `yaml:"default_k"`
	MaxK           int `yaml:"max_k"`
	MaxQueryLength int `yaml:"max_query_length"`
	MemoMaxEntries int `yaml:"memo_max_entries"` // 0 disables the result memo
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "csv"
	}
	if c.Catalog.Table == "" {
		c.Catalog.Table = "courses"
	}
	if c.Catalog.Columns.ID == "" {
		c.Catalog.Columns.ID = "id"
	}
	if c.Catalog.Columns.Title == "" {
		c.Catalog.Columns.Title = "title"
	}
	if c.Catalog.Columns.Description == "" {
		c.Catalog.Columns.Description = "description"
	}
	if c.Catalog.Columns.Embedding == "" {
		c.Catalog.Columns.Embedding = "embedding"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 15
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Search.DefaultK <= 0 {
		c.Search.DefaultK = 10
	}
	if c.Search.MaxK <= 0 {
		c.Search.MaxK = 100
	}
	if c.Search.MaxQueryLength <= 0 {
		c.Search.MaxQueryLength = 1024
	}
	if c.Search.MemoMaxEntries < 0 {
		c.Search.MemoMaxEntries = 0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Catalog.Driver {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("catalog.driver must be \"csv\" or \"sqlite\", got %q", c.Catalog.Driver)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Catalog.Dimensions < 0 {
		return fmt.Errorf("catalog.dimensions must be >= 0, got %d", c.Catalog.Dimensions)
	}
	switch c.Cache.Driver {
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	case "memory", "off":
	default:
		return fmt.Errorf("cache.driver must be \"redis\", \"memory\" or \"off\", got %q", c.Cache.Driver)
	}
	if c.Search.MaxK < c.Search.DefaultK {
		return fmt.Errorf("search.max_k (%d) must be >= search.default_k (%d)", c.Search.MaxK, c.Search.DefaultK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
