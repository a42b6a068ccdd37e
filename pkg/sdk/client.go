package bookrag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/db"
	dbValkey "github.com/kailas-cloud/bookrag/internal/db/valkey"
	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/loader"
	"github.com/kailas-cloud/bookrag/internal/metrics"
	"github.com/kailas-cloud/bookrag/internal/repository/embcache"
	"github.com/kailas-cloud/bookrag/internal/repository/vector"
	openaiTransport "github.com/kailas-cloud/bookrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/bookrag/internal/usecase/embedding"
	generateuc "github.com/kailas-cloud/bookrag/internal/usecase/generate"
	healthuc "github.com/kailas-cloud/bookrag/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrag/internal/usecase/ingest"
	retrieveuc "github.com/kailas-cloud/bookrag/internal/usecase/retrieve"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultTimeout          = 60 * time.Second
	defaultCacheKeyPrefix   = "bookrag:"
)

// Use-case surfaces the Client calls into.
type ingestUseCase interface {
	IngestFile(ctx context.Context, path string) (ingestuc.Report, error)
	IngestPDF(ctx context.Context, source string, ra io.ReaderAt, size int64) (ingestuc.Report, error)
	Ingest(ctx context.Context, doc domain.Document) (ingestuc.Report, error)
}

type retrieveUseCase interface {
	RetrieveEntries(ctx context.Context, query string) ([]domain.Entry, error)
}

type generateUseCase interface {
	Generate(ctx context.Context, question string) (generateuc.Answer, error)
}

// Client is the bookrag library entry point.
type Client struct {
	cache       db.Store
	store       *vector.Store
	ingestSvc   ingestUseCase
	retrieveSvc retrieveUseCase
	generateSvc generateUseCase
	healthSvc   healthUseCase
	obs         *observer
}

// New creates a Client with an empty entry store.
// The provided context is used for the embedding cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		pipeline:  domain.DefaultPipelineConfig(),
		workers:   ingestuc.DefaultWorkers,
		timeout:   defaultTimeout,
		keyPrefix: defaultCacheKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if cfg.embedder == nil && cfg.openAIEmbedder == nil {
		return nil, errors.New("bookrag: embedder required (use WithEmbedder or WithOpenAIEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var cache db.Store
	if cfg.driver != "" {
		cache, err = createCache(cfg)
		if err != nil {
			return nil, err
		}
		if err := cache.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			cache.Close()
			return nil, fmt.Errorf("bookrag: cache not ready: %w", err)
		}
	}

	return wireClient(cfg, cache, obs), nil
}

func createCache(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
			RESP2:    cfg.driver == "redis",
		})
		if err != nil {
			return nil, fmt.Errorf("bookrag: create %s cache: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("bookrag: unknown driver %q", cfg.driver)
	}
}

func wireClient(cfg *clientConfig, cache db.Store, obs *observer) *Client {
	docEmbedder := buildEmbedder(cfg, cfg.docInstruction, cache)
	queryEmbedder := buildEmbedder(cfg, cfg.queryInstruction, cache)

	var generator domain.Generator = noopGenerator{}
	switch {
	case cfg.generator != nil:
		generator = &generatorAdapter{inner: cfg.generator}
	case cfg.openAIGenerator != nil:
		generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			Config: openaiTransport.Config{
				APIKey:  cfg.openAIGenerator.apiKey,
				BaseURL: cfg.openAIGenerator.baseURL,
				Model:   cfg.openAIGenerator.model,
				Timeout: cfg.timeout,
				Logger:  cfg.logger,
			},
		})
	}

	registry := vector.NewRegistry()
	store := registry.Initialize()

	retrieveSvc := retrieveuc.New(store, queryEmbedder, cfg.logger,
		retrieveuc.WithTopK(cfg.pipeline.TopK),
		retrieveuc.WithDiversityThreshold(cfg.pipeline.DiversityThreshold),
	)

	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}

	return &Client{
		cache:       cache,
		store:       store,
		ingestSvc:   ingestuc.New(store, docEmbedder, loader.New(), cfg.pipeline, cfg.workers, cfg.logger),
		retrieveSvc: retrieveSvc,
		generateSvc: generateuc.New(retrieveSvc, generator, cfg.systemPrompt, cfg.logger),
		healthSvc:   healthuc.New(registry, embeddingChecker{docEmbedder}, cachePinger),
		obs:         obs,
	}
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction
func buildEmbedder(cfg *clientConfig, instruction string, cache db.Store) domain.Embedder {
	var (
		embedder domain.Embedder
		provider = "custom"
		model    string
	)
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	} else {
		provider = "openai"
		model = cfg.openAIEmbedder.model
		embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.openAIEmbedder.apiKey,
			BaseURL:    cfg.openAIEmbedder.baseURL,
			Model:      model,
			Dimensions: cfg.dimensions,
			Provider:   provider,
			Timeout:    cfg.timeout,
			Logger:     cfg.logger,
		})
	}

	if cache != nil {
		embedder = embcache.New(embedder, cache, embcache.Options{
			KeyPrefix: cfg.keyPrefix,
			Model:     provider + "/" + model,
			TTL:       cfg.cacheTTL,
		}, metrics.EmbeddingCacheTotal, cfg.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provider, model, cfg.logger)

	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// Close releases the embedding cache connection.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Len returns the number of stored entries.
func (c *Client) Len() int {
	return c.store.Len()
}

// IngestFile loads a PDF or plain-text file and indexes it.
func (c *Client) IngestFile(ctx context.Context, path string) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_file", start, err) }()

	r, err := c.ingestSvc.IngestFile(ctx, path)
	if err != nil {
		return toIngestReport(r), fmt.Errorf("ingest file: %w", err)
	}
	return toIngestReport(r), nil
}

// IngestPDF extracts and indexes a PDF read from ra.
func (c *Client) IngestPDF(ctx context.Context, source string, ra io.ReaderAt, size int64) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_pdf", start, err) }()

	r, err := c.ingestSvc.IngestPDF(ctx, source, ra, size)
	if err != nil {
		return toIngestReport(r), fmt.Errorf("ingest pdf: %w", err)
	}
	return toIngestReport(r), nil
}

// IngestText splits raw text into chapters and indexes it.
func (c *Client) IngestText(ctx context.Context, source, text string) (IngestReport, error) {
	doc := loader.FromText(source, text)
	chapters := make([]Chapter, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		chapters[i] = Chapter{Title: ch.Title, Content: ch.Content}
	}
	return c.IngestDocument(ctx, Document{Source: source, Chapters: chapters})
}

// IngestDocument indexes a document that is already split into chapters.
func (c *Client) IngestDocument(ctx context.Context, doc Document) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	r, err := c.ingestSvc.Ingest(ctx, doc.toDomain())
	if err != nil {
		return toIngestReport(r), fmt.Errorf("ingest: %w", err)
	}
	return toIngestReport(r), nil
}

// Retrieve returns the most relevant non-redundant passages for query.
// An empty store yields an empty result.
func (c *Client) Retrieve(ctx context.Context, query string) (_ []Passage, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	entries, err := c.retrieveSvc.RetrieveEntries(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	out := make([]Passage, len(entries))
	for i, e := range entries {
		out[i] = Passage{Text: e.Text(), Section: e.Section()}
	}
	return out, nil
}

// Generate answers question from retrieved passages.
func (c *Client) Generate(ctx context.Context, question string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("generate", start, err) }()

	a, err := c.generateSvc.Generate(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}
	return Answer{Text: a.Text, Context: a.Context}, nil
}

func toIngestReport(r ingestuc.Report) IngestReport {
	return IngestReport{
		Source:   r.Source,
		Chunks:   r.Chunks,
		Indexed:  r.Indexed,
		Filtered: r.Filtered,
		Skipped:  r.Skipped,
		Duration: r.Duration,
	}
}

// embeddingChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingChecker struct {
	embedder domain.Embedder
}

func (h embeddingChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
