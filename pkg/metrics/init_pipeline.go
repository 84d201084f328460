package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphanalytics_runs_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphanalytics_run_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
	)

	r.RunsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphanalytics_runs_in_flight",
			Help: "Number of analysis runs currently executing",
		},
	)

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphanalytics_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0, 60.0},
		},
		[]string{"stage"},
	)

	r.StageErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphanalytics_stage_errors_total",
			Help: "Total number of failed pipeline stages",
		},
		[]string{"stage"},
	)

	r.AlgorithmIterations = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphanalytics_algorithm_iterations",
			Help:    "Iterations or passes used by iterative algorithms",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"algorithm"},
	)

	r.WarningsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphanalytics_warnings_total",
			Help: "Total number of non-fatal convergence warnings",
		},
		[]string{"stage"},
	)

	r.CommunitiesFound = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphanalytics_communities",
			Help: "Number of communities found by the last run",
		},
	)

	r.Modularity = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphanalytics_modularity",
			Help: "Modularity of the last community assignment",
		},
	)

	r.LinkCandidates = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "graphanalytics_link_candidates",
			Help: "Number of candidate pairs scored by the last run",
		},
	)
}
