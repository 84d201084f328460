package algorithms

import (
	"context"
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// Scorer is a pluggable centrality-like metric, for example a learned model
// that scores nodes. Scorers must not modify the graph.
type Scorer interface {
	Name() string
	ComputeScore(ctx context.Context, g *graph.Graph) (map[graph.NodeID]float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc struct {
	MetricName string
	Fn         func(ctx context.Context, g *graph.Graph) (map[graph.NodeID]float64, error)
}

// Name returns the metric name.
func (f ScorerFunc) Name() string { return f.MetricName }

// ComputeScore calls the wrapped function.
func (f ScorerFunc) ComputeScore(ctx context.Context, g *graph.Graph) (map[graph.NodeID]float64, error) {
	return f.Fn(ctx, g)
}

// CentralityEngine dispatches metric names to the built-in algorithms and to
// registered custom scorers.
type CentralityEngine struct {
	opts    CentralityOptions
	scorers map[string]Scorer
	order   []string
}

// NewCentralityEngine creates an engine with the built-in metrics.
func NewCentralityEngine(opts CentralityOptions) *CentralityEngine {
	return &CentralityEngine{
		opts:    opts,
		scorers: make(map[string]Scorer),
	}
}

// Register adds a custom scorer. Names must not collide with built-ins or
// earlier registrations.
func (e *CentralityEngine) Register(s Scorer) error {
	name := s.Name()
	if slices.Contains(BuiltinMetrics, name) {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
	}
	if _, ok := e.scorers[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateName)
	}
	e.scorers[name] = s
	e.order = append(e.order, name)
	return nil
}

// Metrics returns every metric name the engine can compute.
func (e *CentralityEngine) Metrics() []string {
	return append(slices.Clone(BuiltinMetrics), e.order...)
}

// Has reports whether metric is known to the engine.
func (e *CentralityEngine) Has(metric string) bool {
	if slices.Contains(BuiltinMetrics, metric) {
		return true
	}
	_, ok := e.scorers[metric]
	return ok
}

// Options returns the engine configuration.
func (e *CentralityEngine) Options() CentralityOptions {
	return e.opts
}

// Compute runs one metric over g.
func (e *CentralityEngine) Compute(ctx context.Context, g *graph.Graph, metric string) (*CentralityScores, error) {
	switch metric {
	case MetricDegree:
		if err := ctx.Err(); err != nil {
			return nil, cancelled(metric, err)
		}
		return DegreeCentrality(g, e.opts), nil
	case MetricCloseness:
		return ClosenessCentrality(ctx, g, e.opts)
	case MetricBetweenness:
		return BetweennessCentrality(ctx, g, e.opts)
	case MetricPageRank:
		return PageRank(ctx, g, e.opts)
	case MetricEigenvector:
		return EigenvectorCentrality(ctx, g, e.opts)
	}

	s, ok := e.scorers[metric]
	if !ok {
		return nil, fmt.Errorf("%q: %w", metric, ErrUnknownMetric)
	}
	scores, err := s.ComputeScore(ctx, g)
	if err != nil {
		return nil, cancelled(metric, fmt.Errorf("scorer %q: %w", metric, err))
	}

	// Nodes the scorer left out score zero
	values := make([]float64, g.NodeCount())
	for id, v := range scores {
		if idx, ok := g.IndexOf(id); ok {
			values[idx] = v
		}
	}
	return newScores(g, metric, values), nil
}
