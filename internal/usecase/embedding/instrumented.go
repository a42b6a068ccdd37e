// Package embedding holds use-case level decorators around domain.Embedder.
package embedding

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// DefaultSlowThreshold is the latency above which a successful call is logged at warn.
const DefaultSlowThreshold = 5 * time.Second

// InstrumentedEmbedder logs every call and adds billed tokens to the request's
// domain.EmbeddingUsage. Provider metrics are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	slow   time.Duration
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. provider and model are attached to every log line.
func NewInstrumentedEmbedder(inner domain.Embedder, provider, model string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{
		inner:  inner,
		slow:   DefaultSlowThreshold,
		logger: logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// WithSlowThreshold overrides DefaultSlowThreshold.
func (e *InstrumentedEmbedder) WithSlowThreshold(d time.Duration) *InstrumentedEmbedder {
	if d > 0 {
		e.slow = d
	}
	return e
}

// Embed delegates to the wrapped embedder.
func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := e.inner.Embed(ctx, text)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Error("Embedding request failed",
			zap.Int("chars", utf8.RuneCountInString(text)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	fields := []zap.Field{
		zap.Int("chars", utf8.RuneCountInString(text)),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
		zap.Duration("duration", elapsed),
	}
	if elapsed > e.slow {
		e.logger.Warn("Slow embedding request", fields...)
	} else {
		e.logger.Debug("Embedding request completed", fields...)
	}
	return result, nil
}

// HealthCheck probes the wrapped embedder if it supports it.
func (e *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
