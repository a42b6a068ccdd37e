package bookrag

import (
	"errors"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest          = domain.ErrInvalidRequest
	ErrUninitializedStore      = domain.ErrUninitializedStore
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)

var errNotHealthy = errors.New("bookrag: unhealthy component")
