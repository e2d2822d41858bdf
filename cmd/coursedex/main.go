package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/campusquest/coursedex/internal/catalog"
	"github.com/campusquest/coursedex/internal/config"
	"github.com/campusquest/coursedex/internal/db"
	dbMemory "github.com/campusquest/coursedex/internal/db/memory"
	dbRedis "github.com/campusquest/coursedex/internal/db/redis"
	"github.com/campusquest/coursedex/internal/domain"
	"github.com/campusquest/coursedex/internal/domain/search/request"
	logpkg "github.com/campusquest/coursedex/internal/logger"
	"github.com/campusquest/coursedex/internal/metrics"
	"github.com/campusquest/coursedex/internal/repository/embcache"
	chiTransport "github.com/campusquest/coursedex/internal/transport/chi"
	openaiEmb "github.com/campusquest/coursedex/internal/transport/openai"
	healthuc "github.com/campusquest/coursedex/internal/usecase/health"
	searchuc "github.com/campusquest/coursedex/internal/usecase/search"
	"github.com/campusquest/coursedex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting coursedex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
		zap.String("catalog_path", cfg.Catalog.Path),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	ctx := context.Background()

	// Load the immutable catalog
	store := catalog.NewStore(logger)
	src := buildCatalogSource(cfg.Catalog)
	report, err := store.Load(ctx, src, catalog.Options{Dimensions: cfg.Catalog.Dimensions})
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog ready",
		zap.Int("courses", report.Loaded),
		zap.Int("skipped_malformed", report.SkippedMalformed),
		zap.Int("skipped_duplicate", report.SkippedDuplicate),
	)

	// Embedding cache backend
	var kv db.KV
	switch cfg.Cache.Driver {
	case "redis":
		redisStore, rerr := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if rerr != nil {
			logger.Fatal("Failed to create redis cache", zap.Error(rerr))
		}
		if rerr := redisStore.WaitForReady(ctx, 10*time.Second); rerr != nil {
			logger.Fatal("Cache not ready", zap.Error(rerr))
		}
		kv = redisStore
	case "memory":
		kv = dbMemory.NewStore()
	case "off":
		// queries hit the provider every time
	}
	if kv != nil {
		defer kv.Close()
	}

	embedder := buildEmbedder(cfg.Embedding, cfg.Cache, kv, logger)

	searchSvc := searchuc.New(store, embedder, cfg.Search.MemoMaxEntries)

	var cachePinger healthuc.CachePinger
	if kv != nil {
		cachePinger = kv
	}
	healthSvc := healthuc.New(store, cachePinger, newEmbeddingHealthChecker(embedder))

	limits := request.Limits{
		DefaultK:       cfg.Search.DefaultK,
		MaxK:           cfg.Search.MaxK,
		MaxQueryLength: cfg.Search.MaxQueryLength,
	}
	server := chiTransport.NewServer(searchSvc, store, healthSvc, limits, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func buildCatalogSource(cfg config.CatalogConfig) catalog.Source {
	columns := catalog.Columns{
		ID:          cfg.Columns.ID,
		Title:       cfg.Columns.Title,
		Code:        cfg.Columns.Code,
		Description: cfg.Columns.Description,
		Embedding:   cfg.Columns.Embedding,
		Facets:      cfg.Columns.Facets,
	}
	if cfg.Driver == "sqlite" {
		return catalog.NewSQLiteSource(cfg.Path, cfg.Table, columns)
	}
	return catalog.NewCSVSource(cfg.Path, columns)
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached.
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	cacheCfg config.CacheConfig,
	kv db.KV,
	logger *zap.Logger,
) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Timeout:    time.Duration(embCfg.TimeoutSec) * time.Second,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})

	if kv == nil {
		return base
	}
	ttl := time.Duration(cacheCfg.TTLSec) * time.Second
	return embcache.New(base, kv, ttl, metrics.EmbeddingCacheTotal, logger)
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
