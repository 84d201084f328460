package algorithms

import (
	"context"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// GirvanNewmanCommunities splits the graph by repeatedly removing the edges
// of highest edge betweenness. Each time the number of components grows the
// resulting partition is scored, and the partition with the best modularity
// on the original graph is returned. At most MaxLevels splits are made.
// Runs in O(m^2 n), so it is only suitable for small graphs.
func GirvanNewmanCommunities(ctx context.Context, g *graph.Graph, opts CommunityOptions) (*CommunityAssignment, error) {
	view := newUndirectedView(g, opts.Weighted, opts.IncludeSelfLoops)
	gamma := resolution(opts)

	adj := neighborSets(g)
	labels, count := weakComponents(adj)
	best := slices.Clone(labels)
	bestQ := view.modularity(labels, gamma)

	splits := 0
	iterations := 0
	maxSplits := max(opts.MaxLevels, 1)
	for splits < maxSplits && hasEdges(adj) {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(string(GirvanNewman), err)
		}
		iterations++

		removeMaxBetweennessEdges(adj)
		next, nextCount := weakComponents(adj)
		if nextCount <= count {
			continue
		}
		count = nextCount
		splits++

		if q := view.modularity(next, gamma); q > bestQ+gainEpsilon {
			best, bestQ = next, q
		}
	}

	result := newAssignment(g, GirvanNewman, best, bestQ)
	result.Iterations = iterations
	return result, nil
}

func hasEdges(adj [][]int) bool {
	for _, nbrs := range adj {
		if len(nbrs) > 0 {
			return true
		}
	}
	return false
}

// removeMaxBetweennessEdges deletes every edge whose unweighted edge
// betweenness equals the maximum.
func removeMaxBetweennessEdges(adj [][]int) {
	scores := edgeBetweenness(adj)

	top := 0.0
	for _, s := range scores {
		top = max(top, s)
	}
	for key, s := range scores {
		if s >= top*(1-1e-9) {
			adj[key[0]] = slices.DeleteFunc(adj[key[0]], func(x int) bool { return x == key[1] })
			adj[key[1]] = slices.DeleteFunc(adj[key[1]], func(x int) bool { return x == key[0] })
		}
	}
}

// edgeBetweenness runs Brandes over a symmetric adjacency and returns the
// score of each edge keyed by its (low, high) endpoints.
func edgeBetweenness(adj [][]int) map[[2]int]float64 {
	n := len(adj)
	scores := make(map[[2]int]float64)

	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		for i := range dist {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		dist[s] = 0
		sigma[s] = 1
		queue = append(queue[:0], s)

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(queue) - 1; i >= 0; i-- {
			w := queue[i]
			for _, v := range preds[w] {
				c := sigma[v] / sigma[w] * (1 + delta[w])
				key := [2]int{min(v, w), max(v, w)}
				scores[key] += c
				delta[v] += c
			}
		}
	}
	return scores
}
