package bookrag

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/bookrag/internal/usecase/health"
)

// Health is the aggregated component status: "ok", "degraded" or "error".
// Checks holds "ok"/"error" per component: store, embedding and, when configured, cache.
type Health struct {
	Status string
	Checks map[string]string
}

// OK reports whether every component passed.
func (h Health) OK() bool { return h.Status == string(healthuc.Healthy) }

// Health probes the components. A failing entry store makes the status "error";
// any other failure makes it "degraded".
func (c *Client) Health(ctx context.Context) Health {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	h := Health{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, r := range report.Checks {
		h.Checks[name] = string(r)
	}

	var err error
	if !h.OK() {
		err = errNotHealthy
	}
	c.obs.observe("health", start, err)
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
