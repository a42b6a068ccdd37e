package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a dependency is failing but queries may still succeed.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unavailable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultProbeTimeout bounds each component probe.
const DefaultProbeTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe func(ctx context.Context) error

// Service probes the store, the embedding provider and the cache in parallel.
type Service struct {
	probes  map[string]probe
	timeout time.Duration
}

// New creates a Service. embedding and cache can be nil.
func New(store StoreChecker, embedding EmbeddingChecker, cache CachePinger) *Service {
	probes := map[string]probe{
		"store": func(context.Context) error { return store.Ready() },
	}
	if embedding != nil {
		probes["embedding"] = embedding.HealthCheck
	}
	if cache != nil {
		probes["cache"] = cache.Ping
	}
	return &Service{probes: probes, timeout: DefaultProbeTimeout}
}

// WithProbeTimeout overrides DefaultProbeTimeout.
func (s *Service) WithProbeTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs every probe. A failing store makes the service unhealthy;
// any other failure only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			r := CheckOK
			if err := p(pctx); err != nil {
				r = CheckError
			}
			mu.Lock()
			checks[name] = r
			mu.Unlock()
		}()
	}
	wg.Wait()

	return Report{Status: aggregate(checks), Checks: checks}
}

func aggregate(checks map[string]CheckResult) Status {
	if checks["store"] == CheckError {
		return Unhealthy
	}
	for _, r := range checks {
		if r == CheckError {
			return Degraded
		}
	}
	return Healthy
}
