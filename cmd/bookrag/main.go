package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/config"
	"github.com/kailas-cloud/bookrag/internal/db"
	dbValkey "github.com/kailas-cloud/bookrag/internal/db/valkey"
	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/loader"
	logpkg "github.com/kailas-cloud/bookrag/internal/logger"
	"github.com/kailas-cloud/bookrag/internal/metrics"
	"github.com/kailas-cloud/bookrag/internal/repository/embcache"
	"github.com/kailas-cloud/bookrag/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/bookrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/bookrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/bookrag/internal/usecase/embedding"
	generateuc "github.com/kailas-cloud/bookrag/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/bookrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrag/internal/usecase/ingest"
	retrieveuc "github.com/kailas-cloud/bookrag/internal/usecase/retrieve"
	"github.com/kailas-cloud/bookrag/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

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

	logger.Info("Starting bookrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
		zap.Bool("cache_enabled", cfg.Cache.Enabled()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Optional embedding cache
	var cache db.Store
	if cfg.Cache.Enabled() {
		cache, err = dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			RESP2:    cfg.Cache.Driver == "redis",
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()

		if err := cache.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache",
			zap.String("driver", cfg.Cache.Driver),
			zap.Strings("addrs", cfg.Cache.Addrs),
		)
	}

	// Embedder chains: documents and queries carry different instructions
	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, cache, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, cache, logger)

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		Config: openaiTransport.Config{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
			Timeout: time.Duration(cfg.Generation.TimeoutSec) * time.Second,
			Logger:  logger,
		},
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
	})

	// Entry store
	registry := vector.NewRegistry().WithSizeGauge(metrics.StoreEntries)
	store := registry.Initialize()

	// Use case services
	pipeline := cfg.Pipeline()
	ingestSvc := ingestuc.New(store, docEmbedder, loader.New(), pipeline, cfg.Ingest.Workers, logger)
	retrieveSvc := retrieveuc.New(store, queryEmbedder, logger,
		retrieveuc.WithTopK(pipeline.TopK),
		retrieveuc.WithDiversityThreshold(pipeline.DiversityThreshold),
	)
	generateSvc := generateuc.New(retrieveSvc, generator, cfg.Generation.SystemPrompt, logger)

	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	healthSvc := healthuc.New(registry, newEmbeddingHealthChecker(docEmbedder), cachePinger)

	ingestStartupPaths(ctx, ingestSvc, cfg.Ingest.Paths, logger)

	server := chiTransport.NewServer(ingestSvc, retrieveSvc, generateSvc, healthSvc, logger).
		WithMaxUploadBytes(cfg.HTTP.MaxUploadMB << 20)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(cfg config.Config, instruction string, cache db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, embcache.Options{
			KeyPrefix: cfg.Cache.KeyPrefix,
			Model:     cfg.Embedding.Model,
			TTL:       time.Duration(cfg.Cache.TTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger)

	// Instruction prefix is outermost so the cache key includes it
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// ingestStartupPaths ingests configured documents once. File errors are logged, not fatal.
func ingestStartupPaths(ctx context.Context, svc *ingestuc.Service, paths []string, logger *zap.Logger) {
	for _, path := range paths {
		report, err := svc.IngestFile(ctx, path)
		if err != nil {
			logger.Error("Startup ingestion failed", zap.String("path", path), zap.Error(err))
			continue
		}
		logger.Info("Startup ingestion complete",
			zap.String("path", path),
			zap.Int("indexed", report.Indexed),
			zap.Int("skipped", report.Skipped),
			zap.Duration("duration", report.Duration),
		)
	}
}
