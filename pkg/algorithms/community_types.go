package algorithms

import "github.com/dd0wney/cluso-analytics/pkg/graph"

// Community represents a detected community
type Community struct {
	ID      int
	Nodes   []graph.NodeID
	Size    int
	Density float64 // Edge density within community
}

// CommunityLevel is one level of a hierarchical decomposition, expressed on
// the original nodes.
type CommunityLevel struct {
	Labels     []int // community by dense index
	Count      int
	Modularity float64
	Gain       float64 // modularity gained over the previous level
	Moves      int
}

// CommunityAssignment maps every node to exactly one community. Community ids
// run 0..Count-1 in ascending order of each community's lowest node index.
type CommunityAssignment struct {
	Algorithm   CommunityAlgorithm
	Communities map[graph.NodeID]int // Node ID -> Community ID
	Labels      []int                // community by dense index
	Count       int
	Modularity  float64
	Levels      []CommunityLevel // finest to coarsest, Louvain only
	Iterations  int
	Warning     error
}

// Level returns the assignment at hierarchy level i.
func (a *CommunityAssignment) Level(i int) (CommunityLevel, bool) {
	if i < 0 || i >= len(a.Levels) {
		return CommunityLevel{}, false
	}
	return a.Levels[i], true
}

// Groups returns the communities with their members in dense index order.
func (a *CommunityAssignment) Groups(g *graph.Graph) []*Community {
	groups := make([]*Community, a.Count)
	for i := range groups {
		groups[i] = &Community{ID: i}
	}
	for i, c := range a.Labels {
		groups[c].Nodes = append(groups[c].Nodes, g.NodeAt(i))
	}

	// Density counts edges of the symmetric view inside each community
	internal := make([]int, a.Count)
	for _, e := range g.Edges() {
		u, _ := g.IndexOf(e.Source)
		v, _ := g.IndexOf(e.Target)
		if u != v && a.Labels[u] == a.Labels[v] {
			internal[a.Labels[u]]++
		}
	}
	for i, c := range groups {
		c.Size = len(c.Nodes)
		if c.Size > 1 {
			c.Density = float64(internal[i]) / float64(c.Size*(c.Size-1)/2)
		}
	}
	return groups
}

func newAssignment(g *graph.Graph, alg CommunityAlgorithm, labels []int, modularity float64) *CommunityAssignment {
	count := renumber(labels)
	communities := make(map[graph.NodeID]int, len(labels))
	for i, c := range labels {
		communities[g.NodeAt(i)] = c
	}
	return &CommunityAssignment{
		Algorithm:   alg,
		Communities: communities,
		Labels:      labels,
		Count:       count,
		Modularity:  modularity,
	}
}
