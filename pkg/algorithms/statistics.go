package algorithms

import (
	"context"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// GraphStatistics summarises the structure of a graph. Path statistics are
// measured on the largest weakly connected component with unit edge lengths.
type GraphStatistics struct {
	Nodes               int     `json:"nodes"`
	Edges               int     `json:"edges"`
	Directed            bool    `json:"directed"`
	Density             float64 `json:"density"`
	Connected           bool    `json:"connected"`
	Components          int     `json:"components"`
	LargestComponent    int     `json:"largest_component"`
	Diameter            int     `json:"diameter"`
	AverageShortestPath float64 `json:"average_shortest_path"`
	AverageClustering   float64 `json:"average_clustering"`
	Transitivity        float64 `json:"transitivity"`
}

// ComputeStatistics computes GraphStatistics for g. The all-pairs BFS over
// the largest component checks ctx between sources.
func ComputeStatistics(ctx context.Context, g *graph.Graph) (*GraphStatistics, error) {
	n := g.NodeCount()
	m := g.EdgeCount()
	stats := &GraphStatistics{
		Nodes:    n,
		Edges:    m,
		Directed: g.IsDirected(),
	}
	if n == 0 {
		stats.Connected = true
		return stats, nil
	}

	if n > 1 {
		pairs := float64(n) * float64(n-1)
		if stats.Directed {
			stats.Density = float64(m) / pairs
		} else {
			stats.Density = 2 * float64(m) / pairs
		}
	}

	adj := neighborSets(g)
	labels, count := weakComponents(adj)
	stats.Components = count
	stats.Connected = count == 1

	sizes := make([]int, count)
	for _, c := range labels {
		sizes[c]++
	}
	largest := 0
	for c, size := range sizes {
		if size > sizes[largest] {
			largest = c
		}
	}
	stats.LargestComponent = sizes[largest]

	// All-pairs BFS inside the largest component
	dist := make([]int, n)
	queue := make([]int, 0, n)
	totalDist, pairs := 0, 0
	for s := 0; s < n; s++ {
		if labels[s] != largest {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, cancelled("statistics", err)
		}
		for i := range dist {
			dist[i] = -1
		}
		dist[s] = 0
		queue = append(queue[:0], s)
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			for _, w := range adj[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
					totalDist += dist[w]
					pairs++
					stats.Diameter = max(stats.Diameter, dist[w])
				}
			}
		}
	}
	if pairs > 0 {
		stats.AverageShortestPath = float64(totalDist) / float64(pairs)
	}

	// Clustering and transitivity share one triangle count
	triangles := triangleCounts(adj)
	closed, triads := 0, 0
	sumCoef := 0.0
	for i, nbrs := range adj {
		k := len(nbrs)
		possible := k * (k - 1) / 2
		closed += triangles[i]
		triads += possible
		if possible > 0 {
			sumCoef += float64(triangles[i]) / float64(possible)
		}
	}
	stats.AverageClustering = sumCoef / float64(n)
	if triads > 0 {
		stats.Transitivity = float64(closed) / float64(triads)
	}

	return stats, nil
}
