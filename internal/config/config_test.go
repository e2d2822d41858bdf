package config

import (
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Catalog: CatalogConfig{
			Path: "data/courses.csv",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d: expected error", port)
		}
	}
}

func TestValidate_InvalidCatalogDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Driver = "postgres"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown catalog driver")
	}
	want := `catalog.driver must be "csv" or "sqlite", got "postgres"`
	if err.Error() != want {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), want)
	}
}

func TestValidate_MissingCatalogPath(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing catalog path")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Driver = "redis"
	cfg.Cache.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis cache without addrs")
	}

	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with addrs: %v", err)
	}
}

func TestValidate_MaxKBelowDefaultK(t *testing.T) {
	cfg := validConfig()
	cfg.Search.DefaultK = 50
	cfg.Search.MaxK = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for max_k < default_k")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{Port: 8080},
		Catalog: CatalogConfig{Path: "x.csv"},
	}
	cfg.ApplyDefaults()

	if cfg.Catalog.Driver != "csv" {
		t.Errorf("catalog driver = %q, want csv", cfg.Catalog.Driver)
	}
	if cfg.Catalog.Columns.ID != "id" || cfg.Catalog.Columns.Embedding != "embedding" {
		t.Errorf("column defaults not applied: %+v", cfg.Catalog.Columns)
	}
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("embedding model = %q", cfg.Embedding.Model)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("cache driver = %q, want memory", cfg.Cache.Driver)
	}
	if cfg.Search.DefaultK != 10 || cfg.Search.MaxK != 100 || cfg.Search.MaxQueryLength != 1024 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http defaults = %+v", cfg.HTTP)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("COURSEDEX_TEST_VAR", "from-env")

	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"${COURSEDEX_TEST_VAR}", "from-env"},
		{"${COURSEDEX_TEST_MISSING}", ""},
		{"${COURSEDEX_TEST_MISSING:-fallback}", "fallback"},
		{"${COURSEDEX_TEST_VAR:-fallback}", "from-env"},
		{"a ${COURSEDEX_TEST_VAR} b", "a from-env b"},
	}
	for _, tt := range tests {
		if got := string(expandEnvVars([]byte(tt.in))); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
