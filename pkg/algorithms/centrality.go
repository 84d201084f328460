// Package algorithms implements the centrality engine, community detection,
// link prediction and graph statistics over a graph.Graph.
//
// Functions in this package read the dense adjacency lists without locking.
// Callers that share a graph with writers must hold the graph's run lock
// (graph.Graph.BeginRun) for the duration of the call.
package algorithms

import (
	"context"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/parallel"
)

// CentralityScores holds one metric's score for every node.
type CentralityScores struct {
	Metric     string
	Scores     map[graph.NodeID]float64 // Node ID -> score
	Values     []float64                // score by dense index
	Iterations int                      // 0 for non-iterative metrics
	Converged  bool
	Warning    error // non-fatal, usually a *ConvergenceWarning
}

func newScores(g *graph.Graph, metric string, values []float64) *CentralityScores {
	scores := make(map[graph.NodeID]float64, len(values))
	for i, v := range values {
		scores[g.NodeAt(i)] = v
	}
	return &CentralityScores{
		Metric:    metric,
		Scores:    scores,
		Values:    values,
		Converged: true,
	}
}

// DegreeCentrality computes degree centrality for all nodes: the number of
// incident edge endpoints (in + out) divided by n-1. Self-loops are ignored
// unless IncludeSelfLoops is set.
func DegreeCentrality(g *graph.Graph, opts CentralityOptions) *CentralityScores {
	n := g.NodeCount()
	values := make([]float64, n)
	if n > 1 {
		for i := 0; i < n; i++ {
			d := g.DegreeAt(i)
			if !opts.IncludeSelfLoops {
				d -= g.SelfLoopDegreeAt(i)
			}
			values[i] = float64(d) / float64(n-1)
		}
	}
	return newScores(g, MetricDegree, values)
}

// ClosenessCentrality computes closeness centrality for all nodes using the
// Wasserman-Faust correction: with r other nodes reachable at total distance
// S, the score is (r/S)*(r/(n-1)). Distances follow out-arcs; weighted mode
// uses edge weights as lengths.
func ClosenessCentrality(ctx context.Context, g *graph.Graph, opts CentralityOptions) (*CentralityScores, error) {
	n := g.NodeCount()
	values := make([]float64, n)
	reached := make([]int, n)

	shards := opts.shards(n)
	tasks := make([]parallel.Task, len(shards))
	for s, sources := range shards {
		tasks[s] = func(ctx context.Context) error {
			t := newTraversal(g, opts.Weighted, false)
			for _, src := range sources {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.run(src)

				total := 0.0
				r := 0
				for _, v := range t.order[1:] {
					total += t.dist[v]
					r++
				}
				reached[src] = r
				if total > 0 && n > 1 {
					values[src] = (float64(r) / total) * (float64(r) / float64(n-1))
				}
			}
			return nil
		}
	}
	if err := parallel.Run(ctx, opts.Workers, tasks); err != nil {
		return nil, cancelled(MetricCloseness, err)
	}

	result := newScores(g, MetricCloseness, values)
	unreachable := 0
	for _, r := range reached {
		if r < n-1 {
			unreachable++
		}
	}
	if unreachable > 0 {
		result.Warning = DisconnectedGraphWarning(MetricCloseness, unreachable)
	}
	return result, nil
}

// BetweennessCentrality computes betweenness centrality for all nodes with
// Brandes' algorithm. Sources are split into shards; each shard accumulates
// into its own vector and the shards are summed in order, so the result does
// not depend on scheduling.
func BetweennessCentrality(ctx context.Context, g *graph.Graph, opts CentralityOptions) (*CentralityScores, error) {
	n := g.NodeCount()
	shards := opts.shards(n)
	partial := make([][]float64, len(shards))

	tasks := make([]parallel.Task, len(shards))
	for s, sources := range shards {
		tasks[s] = func(ctx context.Context) error {
			acc := make([]float64, n)
			delta := make([]float64, n)
			t := newTraversal(g, opts.Weighted, true)
			for _, src := range sources {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.run(src)
				accumulate(t, src, delta, acc)
			}
			partial[s] = acc
			return nil
		}
	}
	if err := parallel.Run(ctx, opts.Workers, tasks); err != nil {
		return nil, cancelled(MetricBetweenness, err)
	}

	values := make([]float64, n)
	for _, acc := range partial {
		for i, v := range acc {
			values[i] += v
		}
	}

	// Undirected traversals count each pair twice, which the 2/((n-1)(n-2))
	// factor cancels, so both cases reduce to 1/((n-1)(n-2)).
	if n > 2 {
		norm := 1.0 / float64((n-1)*(n-2))
		for i := range values {
			values[i] *= norm
		}
	} else {
		clear(values)
	}

	return newScores(g, MetricBetweenness, values), nil
}

// accumulate back-propagates dependencies over the shortest-path DAG of the
// last traversal.
func accumulate(t *traversal, source int, delta, acc []float64) {
	for _, v := range t.order {
		delta[v] = 0
	}
	for i := len(t.order) - 1; i >= 0; i-- {
		w := t.order[i]
		coeff := (1 + delta[w]) / t.sigma[w]
		for _, v := range t.preds[w] {
			delta[v] += t.sigma[v] * coeff
		}
		if w != source {
			acc[w] += delta[w]
		}
	}
}
