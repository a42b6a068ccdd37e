// Package vector holds the in-process entry store shared by ingestion and retrieval.
package vector

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Store is an append-only collection of entries guarded by a single mutex.
// The lock is held only to append or copy out; embedding never happens under it.
type Store struct {
	mu      sync.Mutex
	entries []domain.Entry
	size    prometheus.Gauge
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// WithSizeGauge publishes the entry count to g after every insert.
func (s *Store) WithSizeGauge(g prometheus.Gauge) *Store {
	s.size = g
	return s
}

// Insert appends an entry. Concurrent inserts are serialized in unspecified order.
func (s *Store) Insert(e domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if s.size != nil {
		s.size.Set(float64(len(s.entries)))
	}
}

// Snapshot returns a copy of all entries present at the time of the call.
func (s *Store) Snapshot() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
