package vector

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// Registry owns the single logical store of a pipeline run.
// It is constructed by the composition root and passed to whoever needs the store.
type Registry struct {
	mu    sync.Mutex
	store *Store
	size  prometheus.Gauge
}

// NewRegistry creates a registry with no store yet.
func NewRegistry() *Registry {
	return &Registry{}
}

// WithSizeGauge attaches g to the store created by Initialize.
func (r *Registry) WithSizeGauge(g prometheus.Gauge) *Registry {
	r.size = g
	return r
}

// Initialize creates the store on first call. Later calls return the original store.
func (r *Registry) Initialize() *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		r.store = NewStore().WithSizeGauge(r.size)
	}
	return r.store
}

// Current returns the store, or domain.ErrUninitializedStore before Initialize.
func (r *Registry) Current() (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store == nil {
		return nil, fmt.Errorf("current store: %w", domain.ErrUninitializedStore)
	}
	return r.store, nil
}

// Ready reports domain.ErrUninitializedStore until Initialize has run.
func (r *Registry) Ready() error {
	_, err := r.Current()
	return err
}
