package algorithms

import (
	"context"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// LabelPropagationCommunities performs synchronous label propagation.
// Fast, scalable algorithm for large graphs.
//
// Every round each node adopts the label with the largest vote among its
// neighbours. The node's own label adds one vote (its mean incident weight
// in weighted mode), which stops two-cycle oscillation. Ties go to the
// lowest label. Reaching LabelPropRounds without stabilising attaches a
// ConvergenceWarning.
func LabelPropagationCommunities(ctx context.Context, g *graph.Graph, opts CommunityOptions) (*CommunityAssignment, error) {
	view := newUndirectedView(g, opts.Weighted, false)
	n := view.size()

	// Initialize: each node in its own community
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}
	next := make([]int, n)

	selfVote := make([]float64, n)
	for i := range selfVote {
		selfVote[i] = 1
		if opts.Weighted && len(view.nbrs[i]) > 0 {
			selfVote[i] = view.strength[i] / float64(len(view.nbrs[i]))
		}
	}

	votes := make([]float64, n)
	voted := make([]bool, n)
	var seen []int

	rounds := max(opts.LabelPropRounds, 1)
	converged := false
	iterations := 0
	for iterations < rounds {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(string(LabelPropagation), err)
		}
		iterations++

		changed := 0
		for i := 0; i < n; i++ {
			seen = append(seen[:0], labels[i])
			voted[labels[i]] = true
			votes[labels[i]] = selfVote[i]

			for _, nb := range view.nbrs[i] {
				l := labels[nb.to]
				if !voted[l] {
					voted[l] = true
					seen = append(seen, l)
				}
				if opts.Weighted {
					votes[l] += nb.w
				} else {
					votes[l]++
				}
			}

			// Find most voted label
			bestLabel, bestVote := labels[i], -1.0
			for _, l := range seen {
				if votes[l] > bestVote || (votes[l] == bestVote && l < bestLabel) {
					bestLabel, bestVote = l, votes[l]
				}
			}
			next[i] = bestLabel
			if bestLabel != labels[i] {
				changed++
			}

			for _, l := range seen {
				voted[l] = false
				votes[l] = 0
			}
		}

		labels, next = next, labels
		if changed == 0 {
			converged = true
			break
		}
	}

	gamma := resolution(opts)
	q := newUndirectedView(g, opts.Weighted, opts.IncludeSelfLoops).modularity(labels, gamma)
	result := newAssignment(g, LabelPropagation, labels, q)
	result.Iterations = iterations
	if !converged {
		result.Warning = NotConverged(string(LabelPropagation), iterations, 0)
	}
	return result, nil
}
