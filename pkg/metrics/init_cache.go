package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCacheMetrics() {
	r.CacheHitsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphanalytics_cache_hits_total",
			Help: "Total number of result cache hits",
		},
	)

	r.CacheMissesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphanalytics_cache_misses_total",
			Help: "Total number of result cache misses",
		},
	)

	r.CacheEntries = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphanalytics_cache_entries",
			Help: "Number of entries in the result cache",
		},
	)

	r.CacheInvalidationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "graphanalytics_cache_invalidations_total",
			Help: "Total number of cache entries dropped after graph mutations",
		},
	)
}
