package algorithms

import "github.com/dd0wney/cluso-analytics/pkg/graph"

// ConnectedComponents finds the weakly connected components of the graph,
// treating every edge as undirected. The modularity of the component
// partition is reported with the default resolution.
func ConnectedComponents(g *graph.Graph) *CommunityAssignment {
	labels, _ := weakComponents(neighborSets(g))
	q := newUndirectedView(g, false, false).modularity(labels, 1)
	return newAssignment(g, Components, labels, q)
}
