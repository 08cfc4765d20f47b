// Package metrics provides Prometheus metrics instrumentation for the rewriter.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides metrics recording interface.
// This allows components to record metrics without direct prometheus dependency.
type Collector interface {
	// Rewrite metrics
	RecordRewriteDuration(ctx context.Context, dialect string, duration time.Duration)
	RecordRoutingEntries(ctx context.Context, dialect string, count int)
	RecordUnmatchedManifest(ctx context.Context)
	RecordRunError(ctx context.Context, errorType string)

	// Backend resolution metrics
	RecordBackendResolution(ctx context.Context, result, reason string)
}

// prometheusCollector implements Collector using Prometheus metrics.
type prometheusCollector struct {
	// Rewrite metrics
	rewriteDuration    *prometheus.HistogramVec
	routingEntries     *prometheus.CounterVec
	unmatchedManifests prometheus.Counter
	runErrorsTotal     *prometheus.CounterVec

	// Backend resolution metrics
	backendResolution *prometheus.CounterVec
}

// NewCollector creates a new Prometheus metrics collector and registers metrics.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{}
	c.initRewriteMetrics()
	c.initBackendMetrics()
	c.register(reg)

	return c
}

// RecordRewriteDuration records the time a dialect spent rewriting one manifest.
func (c *prometheusCollector) RecordRewriteDuration(_ context.Context, dialect string, duration time.Duration) {
	c.rewriteDuration.WithLabelValues(dialect).Observe(duration.Seconds())
}

// RecordRoutingEntries records the number of routing entries produced by a dialect.
func (c *prometheusCollector) RecordRoutingEntries(_ context.Context, dialect string, count int) {
	c.routingEntries.WithLabelValues(dialect).Add(float64(count))
}

// RecordUnmatchedManifest records an ingress that no registered dialect claimed.
func (c *prometheusCollector) RecordUnmatchedManifest(_ context.Context) {
	c.unmatchedManifests.Inc()
}

// RecordRunError records a failed run by error type.
func (c *prometheusCollector) RecordRunError(_ context.Context, errorType string) {
	c.runErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordBackendResolution records a backend resolution result.
func (c *prometheusCollector) RecordBackendResolution(_ context.Context, result, reason string) {
	c.backendResolution.WithLabelValues(result, reason).Inc()
}

func (c *prometheusCollector) initRewriteMetrics() {
	c.rewriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingress_rewriter_rewrite_duration_seconds",
			Help:    "Duration of rewriting a single manifest into routing entries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"dialect"},
	)
	c.routingEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_rewriter_routing_entries_total",
			Help: "Total routing entries produced by dialect",
		},
		[]string{"dialect"},
	)
	c.unmatchedManifests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingress_rewriter_unmatched_manifests_total",
			Help: "Total ingress manifests not claimed by any dialect",
		},
	)
	c.runErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_rewriter_run_errors_total",
			Help: "Total failed rewrite runs by error type",
		},
		[]string{"error_type"},
	)
}

func (c *prometheusCollector) initBackendMetrics() {
	c.backendResolution = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_rewriter_backend_resolution_total",
			Help: "Total backend resolutions by result and reason",
		},
		[]string{"result", "reason"},
	)
}

func (c *prometheusCollector) register(reg prometheus.Registerer) {
	reg.MustRegister(
		c.rewriteDuration,
		c.routingEntries,
		c.unmatchedManifests,
		c.runErrorsTotal,
		c.backendResolution,
	)
}

// NoopCollector is a no-op implementation of Collector for testing.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

// RecordRewriteDuration is a no-op.
func (c *NoopCollector) RecordRewriteDuration(_ context.Context, _ string, _ time.Duration) {}

// RecordRoutingEntries is a no-op.
func (c *NoopCollector) RecordRoutingEntries(_ context.Context, _ string, _ int) {}

// RecordUnmatchedManifest is a no-op.
func (c *NoopCollector) RecordUnmatchedManifest(_ context.Context) {}

// RecordRunError is a no-op.
func (c *NoopCollector) RecordRunError(_ context.Context, _ string) {}

// RecordBackendResolution is a no-op.
func (c *NoopCollector) RecordBackendResolution(_ context.Context, _, _ string) {}
