package health

import "context"

// StoreChecker reports whether the vector store is initialized.
type StoreChecker interface {
	Ready() error
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
