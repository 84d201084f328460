package algorithms

import "github.com/dd0wney/cluso-analytics/pkg/graph"

// ClusteringCoefficient computes local clustering coefficient for all nodes
// Measures how close a node's neighbors are to being a complete graph.
// Edges are treated as undirected.
func ClusteringCoefficient(g *graph.Graph) map[graph.NodeID]float64 {
	adj := neighborSets(g)
	triangles := triangleCounts(adj)

	coefficients := make(map[graph.NodeID]float64, len(adj))
	for i, nbrs := range adj {
		k := len(nbrs)
		if k < 2 {
			coefficients[g.NodeAt(i)] = 0.0
			continue
		}
		// Clustering coefficient = actual triangles / possible triangles
		coefficients[g.NodeAt(i)] = float64(triangles[i]) / float64(k*(k-1)/2)
	}
	return coefficients
}

// AverageClusteringCoefficient computes the average clustering coefficient
func AverageClusteringCoefficient(g *graph.Graph) float64 {
	coefficients := ClusteringCoefficient(g)
	if len(coefficients) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, coef := range coefficients {
		sum += coef
	}
	return sum / float64(len(coefficients))
}
