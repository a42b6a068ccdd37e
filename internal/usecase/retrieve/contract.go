package retrieve

import (
	"context"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Snapshotter returns a point-in-time copy of stored entries.
type Snapshotter interface {
	Snapshot() []domain.Entry
}

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
