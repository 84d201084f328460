package metrics

import (
	"time"
)

// Run status labels
const (
	StatusSuccess   = "success"
	StatusPartial   = "partial"
	StatusCancelled = "cancelled"
	StatusCached    = "cached"
)

// RecordRun records a finished analysis run with its duration
func (r *Registry) RecordRun(status string, duration time.Duration) {
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
}

// RecordStage records one pipeline stage. Failed stages also count as errors.
func (r *Registry) RecordStage(stage string, duration time.Duration, err error) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		r.StageErrorsTotal.WithLabelValues(stage).Inc()
	}
}

// RecordIterations records the iterations an algorithm used
func (r *Registry) RecordIterations(algorithm string, iterations int) {
	r.AlgorithmIterations.WithLabelValues(algorithm).Observe(float64(iterations))
}

// RecordWarning counts a non-fatal warning for stage
func (r *Registry) RecordWarning(stage string) {
	r.WarningsTotal.WithLabelValues(stage).Inc()
}

// RecordCommunities updates community gauges
func (r *Registry) RecordCommunities(count int, modularity float64) {
	r.CommunitiesFound.Set(float64(count))
	r.Modularity.Set(modularity)
}

// UpdateGraphMetrics updates graph size gauges
func (r *Registry) UpdateGraphMetrics(nodes, edges int) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
}

// RecordCacheLookup counts a cache hit or miss
func (r *Registry) RecordCacheLookup(hit bool) {
	if hit {
		r.CacheHitsTotal.Inc()
	} else {
		r.CacheMissesTotal.Inc()
	}
}
