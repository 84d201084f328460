package algorithms

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// PageRank computes PageRank scores for all nodes by power iteration.
//
// Mass on nodes without outgoing arcs is spread uniformly. Iteration stops
// when the L1 change drops below opts.Tolerance; if opts.MaxIterations is
// reached first the last iterate is returned with a NotConverged warning.
// Weighted mode makes transitions proportional to arc weight.
func PageRank(ctx context.Context, g *graph.Graph, opts CentralityOptions) (*CentralityScores, error) {
	n := g.NodeCount()
	if n == 0 {
		return newScores(g, MetricPageRank, nil), nil
	}

	// Out-strength of each node; zero marks a dangling node
	outStrength := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, arc := range g.Out(i) {
			if arc.To == i && !opts.IncludeSelfLoops {
				continue
			}
			outStrength[i] += arcWeight(arc, opts.Weighted)
		}
	}

	scores := make([]float64, n)
	floats.AddConst(1.0/float64(n), scores)
	next := make([]float64, n)

	d := opts.Damping
	converged := false
	iterations := 0
	residual := 0.0

	for iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(MetricPageRank, err)
		}
		iterations++

		dangling := 0.0
		for i := 0; i < n; i++ {
			if outStrength[i] == 0 {
				dangling += scores[i]
			}
		}

		// Random jump plus redistributed dangling mass
		base := (1.0-d)/float64(n) + d*dangling/float64(n)
		for i := range next {
			next[i] = base
		}

		for i := 0; i < n; i++ {
			if outStrength[i] == 0 {
				continue
			}
			share := d * scores[i] / outStrength[i]
			for _, arc := range g.Out(i) {
				if arc.To == i && !opts.IncludeSelfLoops {
					continue
				}
				next[arc.To] += share * arcWeight(arc, opts.Weighted)
			}
		}

		residual = floats.Distance(next, scores, 1)
		scores, next = next, scores
		if residual < opts.Tolerance {
			converged = true
			break
		}
	}

	// Normalize scores to sum to 1
	if sum := floats.Sum(scores); sum > 0 {
		floats.Scale(1/sum, scores)
	}

	result := newScores(g, MetricPageRank, scores)
	result.Iterations = iterations
	result.Converged = converged
	if !converged {
		result.Warning = NotConverged(MetricPageRank, iterations, residual)
	}
	return result, nil
}

func arcWeight(arc graph.Arc, weighted bool) float64 {
	if weighted {
		return arc.Weight
	}
	return 1
}
