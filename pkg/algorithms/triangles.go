package algorithms

import (
	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// TriangleCountResult holds triangle counting results including per-node counts,
// global count, clustering coefficients, and top nodes by triangle participation.
type TriangleCountResult struct {
	PerNode                map[graph.NodeID]int
	GlobalCount            int
	ClusteringCoefficients map[graph.NodeID]float64
	TopNodes               []RankedNode
}

// CountTriangles counts triangles in the graph, treating all edges as undirected.
// Each triangle is counted once per participating node, so
// GlobalCount = sum(PerNode) / 3. Clustering coefficients are computed in the
// same pass.
func CountTriangles(g *graph.Graph, topK int) *TriangleCountResult {
	adj := neighborSets(g)
	counts := triangleCounts(adj)

	result := &TriangleCountResult{
		PerNode:                make(map[graph.NodeID]int, len(adj)),
		ClusteringCoefficients: make(map[graph.NodeID]float64, len(adj)),
	}
	values := make([]float64, len(adj))
	total := 0
	for i, c := range counts {
		id := g.NodeAt(i)
		result.PerNode[id] = c
		values[i] = float64(c)
		total += c

		k := len(adj[i])
		if k >= 2 {
			result.ClusteringCoefficients[id] = float64(c) / float64(k*(k-1)/2)
		} else {
			result.ClusteringCoefficients[id] = 0
		}
	}
	result.GlobalCount = total / 3
	result.TopNodes = TopNodes(g, newScores(g, "triangles", values), topK)
	return result
}

// triangleCounts returns the number of triangles through each node using
// sorted neighbour-list intersection.
func triangleCounts(adj [][]int) []int {
	counts := make([]int, len(adj))
	for u, nbrs := range adj {
		for _, v := range nbrs {
			if v <= u {
				continue
			}
			// Count each triangle u < v < w once, crediting all three corners
			intersectSorted(nbrs, adj[v], func(w int) {
				if w > v {
					counts[u]++
					counts[v]++
					counts[w]++
				}
			})
		}
	}
	return counts
}
