package ingest

import (
	"context"
	"io"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Inserter appends entries to the vector store.
type Inserter interface {
	Insert(e domain.Entry)
}

// Embedder vectorizes chunk text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Loader reads documents from files or uploads.
type Loader interface {
	Load(path string) (domain.Document, error)
	LoadPDF(source string, ra io.ReaderAt, size int64) (domain.Document, error)
}
