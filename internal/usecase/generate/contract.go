package generate

import (
	"context"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Retriever returns the context passages for a question, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}
