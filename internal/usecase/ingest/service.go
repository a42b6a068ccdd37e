// Package ingest segments documents, embeds the chunks and stores them.
// Reader → channel(job) → N workers → Embed → Insert.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/chunk"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// DefaultWorkers is the embedding concurrency when none is configured.
const DefaultWorkers = 4

// Report summarizes one ingestion run.
type Report struct {
	Source   string
	Chunks   int // produced by the segmenter
	Indexed  int // embedded and stored
	Filtered int // shorter than the minimum length
	Skipped  int // embedding or entry construction failed
	Duration time.Duration
}

// Service runs the ingestion pipeline.
type Service struct {
	store   Inserter
	embed   Embedder
	loader  Loader
	cfg     domain.PipelineConfig
	workers int
	logger  *zap.Logger
}

// New creates an ingestion service.
func New(
	store Inserter, embed Embedder, loader Loader,
	cfg domain.PipelineConfig, workers int, logger *zap.Logger,
) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Service{
		store:   store,
		embed:   embed,
		loader:  loader,
		cfg:     cfg,
		workers: workers,
		logger:  logger,
	}
}

// job is one chunk handed to a worker.
type job struct {
	text    string
	section string
}

// IngestFile loads path and ingests it.
func (s *Service) IngestFile(ctx context.Context, path string) (Report, error) {
	doc, err := s.loader.Load(path)
	if err != nil {
		return Report{Source: path}, fmt.Errorf("load %s: %w", path, err)
	}
	return s.Ingest(ctx, doc)
}

// IngestPDF extracts an uploaded PDF and ingests it.
func (s *Service) IngestPDF(ctx context.Context, source string, ra io.ReaderAt, size int64) (Report, error) {
	doc, err := s.loader.LoadPDF(source, ra, size)
	if err != nil {
		return Report{Source: source}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return s.Ingest(ctx, doc)
}

// Ingest segments every chapter of doc, embeds chunks concurrently and inserts them.
// Chunks whose embedding fails are logged and skipped. A cancelled context stops
// dispatching new chunks; the partial report is returned with the context error.
func (s *Service) Ingest(ctx context.Context, doc domain.Document) (Report, error) {
	report := Report{Source: doc.Source}
	if !hasContent(doc) {
		return report, fmt.Errorf("%w: document has no text", domain.ErrInvalidRequest)
	}

	start := time.Now()

	jobs := make(chan job, s.workers*2)
	var wg sync.WaitGroup
	var indexed, skipped atomic.Int64

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID, jobs, &indexed, &skipped)
		}(i)
	}

	produced, filtered, prodErr := s.produce(ctx, doc, jobs)
	close(jobs)
	wg.Wait()

	report.Chunks = produced
	report.Filtered = filtered
	report.Indexed = int(indexed.Load())
	report.Skipped = int(skipped.Load())
	report.Duration = time.Since(start)

	metrics.IngestDuration.Observe(report.Duration.Seconds())

	s.logger.Info("Document ingested",
		zap.String("source", doc.Source),
		zap.Int("chapters", len(doc.Chapters)),
		zap.Int("chunks", report.Chunks),
		zap.Int("indexed", report.Indexed),
		zap.Int("filtered", report.Filtered),
		zap.Int("skipped", report.Skipped),
		zap.Duration("duration", report.Duration),
	)

	if prodErr != nil {
		return report, prodErr
	}
	return report, nil
}

// produce segments chapters and feeds jobs. Returns produced and filtered counts.
func (s *Service) produce(ctx context.Context, doc domain.Document, out chan<- job) (int, int, error) {
	var produced, filtered int

	for _, ch := range doc.Chapters {
		text := "Chapter: " + ch.Title + "\n\n" + ch.Content

		for _, c := range chunk.Segment(text, s.cfg.MaxTokens, s.cfg.OverlapTokens) {
			if err := ctx.Err(); err != nil {
				return produced, filtered, fmt.Errorf("ingest cancelled: %w", err)
			}
			produced++

			if utf8.RuneCountInString(c) < s.cfg.MinChunkChars {
				filtered++
				metrics.IngestChunksTotal.WithLabelValues("filtered").Inc()
				continue
			}

			select {
			case out <- job{text: capRunes(c, s.cfg.MaxChunkChars), section: ch.Title}:
			case <-ctx.Done():
				return produced, filtered, fmt.Errorf("ingest cancelled: %w", ctx.Err())
			}
		}
	}

	return produced, filtered, nil
}

func (s *Service) worker(
	ctx context.Context,
	id int,
	jobs <-chan job,
	indexed, skipped *atomic.Int64,
) {
	for j := range jobs {
		if s.process(ctx, id, j) {
			indexed.Add(1)
			metrics.IngestChunksTotal.WithLabelValues("indexed").Inc()
		} else {
			skipped.Add(1)
			metrics.IngestChunksTotal.WithLabelValues("skipped").Inc()
		}
	}
}

func (s *Service) process(ctx context.Context, id int, j job) bool {
	res, err := s.embed.Embed(ctx, j.text)
	if err != nil {
		s.logger.Warn("Skipping chunk",
			zap.Int("worker", id),
			zap.String("section", j.section),
			zap.Error(err),
		)
		return false
	}

	entry, err := domain.NewEntry(res.Embedding, j.text, j.section)
	if err != nil {
		s.logger.Warn("Skipping chunk",
			zap.Int("worker", id),
			zap.String("section", j.section),
			zap.Error(err),
		)
		return false
	}

	s.store.Insert(entry)
	return true
}

// capRunes truncates s to at most n runes. n <= 0 disables the cap.
func capRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func hasContent(doc domain.Document) bool {
	for _, ch := range doc.Chapters {
		if strings.TrimSpace(ch.Content) != "" {
			return true
		}
	}
	return false
}
