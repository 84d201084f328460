package algorithms

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// maxEigenMagnitude bounds the pre-normalisation norm of an iterate.
const maxEigenMagnitude = 1e150

// EigenvectorCentrality computes eigenvector centrality by power iteration on
// the in-arc adjacency matrix, L2-normalising each step. It returns a
// *ConvergenceError when the iterate vanishes, overflows, or fails to settle
// within opts.MaxIterations (for example on bipartite graphs, where plain
// power iteration oscillates).
func EigenvectorCentrality(ctx context.Context, g *graph.Graph, opts CentralityOptions) (*CentralityScores, error) {
	n := g.NodeCount()
	if n == 0 {
		return newScores(g, MetricEigenvector, nil), nil
	}

	x := make([]float64, n)
	floats.AddConst(1/math.Sqrt(float64(n)), x)
	next := make([]float64, n)

	tol := opts.Tolerance * float64(n)
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(MetricEigenvector, err)
		}

		for j := 0; j < n; j++ {
			sum := 0.0
			for _, arc := range g.In(j) {
				if arc.To == j && !opts.IncludeSelfLoops {
					continue
				}
				sum += x[arc.To] * arcWeight(arc, opts.Weighted)
			}
			next[j] = sum
		}

		norm := floats.Norm(next, 2)
		switch {
		case math.IsNaN(norm) || math.IsInf(norm, 0):
			return nil, &ConvergenceError{Algorithm: MetricEigenvector, Iterations: iter, Reason: "non-finite norm", Cause: ErrDiverged}
		case norm == 0:
			return nil, &ConvergenceError{Algorithm: MetricEigenvector, Iterations: iter, Reason: "iterate vanished", Cause: ErrDiverged}
		case norm > maxEigenMagnitude:
			return nil, &ConvergenceError{Algorithm: MetricEigenvector, Iterations: iter, Reason: "magnitude bound exceeded", Cause: ErrDiverged}
		}
		floats.Scale(1/norm, next)

		residual := floats.Distance(next, x, 1)
		x, next = next, x
		if residual < tol {
			result := newScores(g, MetricEigenvector, x)
			result.Iterations = iter
			return result, nil
		}
	}

	return nil, &ConvergenceError{
		Algorithm:  MetricEigenvector,
		Iterations: opts.MaxIterations,
		Reason:     "iteration cap reached",
		Cause:      ErrNotConverged,
	}
}
