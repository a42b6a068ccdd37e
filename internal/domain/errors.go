package domain

import "errors"

var (
	// ErrUninitializedStore signals access to the entry store before it was initialized.
	ErrUninitializedStore = errors.New("entry store not initialized")
	// ErrEmptyEmbedding signals an entry without an embedding vector.
	ErrEmptyEmbedding = errors.New("empty embedding")
	// ErrEmptyText signals an entry or chunk without text.
	ErrEmptyText = errors.New("empty text")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)
