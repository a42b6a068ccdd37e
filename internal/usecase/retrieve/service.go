// Package retrieve ranks stored entries against a query and filters near-duplicates.
package retrieve

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/similarity"
	"github.com/kailas-cloud/bookrag/internal/metrics"
)

// Candidate is a stored entry scored against the current query.
type Candidate struct {
	Score float32
	Entry domain.Entry
}

// Service retrieves the most relevant non-redundant entries for a query.
type Service struct {
	store     Snapshotter
	embed     Embedder
	topK      int
	threshold float32
	logger    *zap.Logger
}

// Option tunes a Service.
type Option func(*Service)

// WithTopK sets the maximum number of results.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithDiversityThreshold sets the maximum similarity allowed between two selected entries.
func WithDiversityThreshold(t float32) Option {
	return func(s *Service) {
		if t > 0 {
			s.threshold = t
		}
	}
}

// New creates a retrieval service with the default top-6 / 0.85 tuning.
func New(store Snapshotter, embed Embedder, logger *zap.Logger, opts ...Option) *Service {
	def := domain.DefaultPipelineConfig()
	s := &Service{
		store:     store,
		embed:     embed,
		topK:      def.TopK,
		threshold: def.DiversityThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve embeds the query and returns the texts of the selected entries, best first.
func (s *Service) Retrieve(ctx context.Context, query string) ([]string, error) {
	entries, err := s.RetrieveEntries(ctx, query)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text()
	}
	return texts, nil
}

// RetrieveEntries embeds the query and returns the selected entries, best first.
func (s *Service) RetrieveEntries(ctx context.Context, query string) ([]domain.Entry, error) {
	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return s.RetrieveByVector(res.Embedding), nil
}

// RetrieveByVector ranks a snapshot of the store by cosine similarity to query and
// greedily keeps entries whose similarity to every kept entry is at most the threshold.
// An empty store yields an empty, non-nil slice.
func (s *Service) RetrieveByVector(query []float32) []domain.Entry {
	start := time.Now()

	candidates := s.score(query)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	selected := s.diversify(candidates)

	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	metrics.RetrievalResults.Observe(float64(len(selected)))

	return selected
}

func (s *Service) score(query []float32) []Candidate {
	snapshot := s.store.Snapshot()
	candidates := make([]Candidate, 0, len(snapshot))
	skipped := 0

	for _, e := range snapshot {
		if e.Dimensions() != len(query) {
			skipped++
			continue
		}
		candidates = append(candidates, Candidate{
			Score: similarity.Cosine(query, e.Embedding()),
			Entry: e,
		})
	}

	if skipped > 0 {
		metrics.RetrievalDimensionMismatchTotal.Add(float64(skipped))
		s.logger.Warn("Skipped stored entries with mismatched dimensions",
			zap.Int("skipped", skipped),
			zap.Int("query_dimensions", len(query)),
			zap.Error(domain.ErrVectorDimMismatch),
		)
	}

	return candidates
}

func (s *Service) diversify(candidates []Candidate) []domain.Entry {
	selected := make([]domain.Entry, 0, s.topK)

	for _, c := range candidates {
		if len(selected) >= s.topK {
			break
		}
		if s.isRedundant(c.Entry, selected) {
			continue
		}
		selected = append(selected, c.Entry)
	}

	return selected
}

func (s *Service) isRedundant(e domain.Entry, selected []domain.Entry) bool {
	for _, kept := range selected {
		if similarity.Cosine(e.Embedding(), kept.Embedding()) > s.threshold {
			return true
		}
	}
	return false
}
