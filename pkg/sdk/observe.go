package bookrag

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	metricsNamespace = "bookrag"
	metricsSubsystem = "sdk"
)

type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "operations_total",
		Help:      "Client calls by operation and outcome (ok, error).",
	}, []string{"operation", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "operation_duration_seconds",
		Help:      "Wall time of Client calls, including embedding and generation round trips.",
		Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"operation"})

	var err error
	if operations, err = reuseOrRegister(reg, operations); err != nil {
		return nil, err
	}
	if duration, err = reuseOrRegister(reg, duration); err != nil {
		return nil, err
	}
	return &sdkMetrics{operations: operations, duration: duration}, nil
}

// reuseOrRegister returns the collector already registered under the same
// descriptor, so several Clients can share one registry.
func reuseOrRegister[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("bookrag: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("bookrag: metric registered as %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer records one log line and one metric sample per Client call.
// A nil observer, logger or metrics set is a no-op.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg == nil {
		return o, nil
	}
	m, err := newSDKMetrics(reg)
	if err != nil {
		return nil, err
	}
	o.metrics = m
	return o, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	o.record(op, elapsed, err)
	o.log(op, elapsed, err)
}

func (o *observer) record(op string, elapsed time.Duration, err error) {
	if o.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.metrics.operations.WithLabelValues(op, status).Inc()
	o.metrics.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (o *observer) log(op string, elapsed time.Duration, err error) {
	if o.logger == nil {
		return
	}
	level, msg := zapcore.DebugLevel, "Operation completed"
	if err != nil {
		level, msg = zapcore.WarnLevel, "Operation failed"
	}
	if ce := o.logger.Check(level, msg); ce != nil {
		ce.Write(zap.String("op", op), zap.Duration("duration", elapsed), zap.Error(err))
	}
}
