package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of one orchestrator
type Registry struct {
	// Pipeline Metrics
	RunsTotal           *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	RunsInFlight        prometheus.Gauge
	StageDuration       *prometheus.HistogramVec
	StageErrorsTotal    *prometheus.CounterVec
	AlgorithmIterations *prometheus.HistogramVec
	WarningsTotal       *prometheus.CounterVec
	CommunitiesFound    prometheus.Gauge
	Modularity          prometheus.Gauge
	LinkCandidates      prometheus.Gauge

	// Cache Metrics
	CacheHitsTotal          prometheus.Counter
	CacheMissesTotal        prometheus.Counter
	CacheEntries            prometheus.Gauge
	CacheInvalidationsTotal prometheus.Counter

	// Graph Metrics
	GraphNodesTotal prometheus.Gauge
	GraphEdgesTotal prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initPipelineMetrics()
	r.initCacheMetrics()
	r.initGraphMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
