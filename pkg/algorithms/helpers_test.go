package algorithms

import (
	"fmt"
	"math"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// newTestGraph builds a graph from "u", "v" pairs with unit weights.
func newTestGraph(t *testing.T, directed bool, pairs ...string) *graph.Graph {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("odd number of endpoints: %v", pairs)
	}
	g := graph.New(graph.DefaultOptions())
	for i := 0; i < len(pairs); i += 2 {
		addEdge(t, g, pairs[i], pairs[i+1], 1.0, directed)
	}
	return g
}

func addEdge(t *testing.T, g *graph.Graph, u, v string, w float64, directed bool) {
	t.Helper()
	if err := g.AddEdge(graph.NodeID(u), graph.NodeID(v), w, directed); err != nil {
		t.Fatalf("AddEdge(%s, %s) failed: %v", u, v, err)
	}
}

// pathGraph builds the undirected path n0 - n1 - ... - n(k-1).
func pathGraph(t *testing.T, k int) *graph.Graph {
	t.Helper()
	g := graph.New(graph.DefaultOptions())
	for i := 0; i < k; i++ {
		if _, err := g.AddNode(node(i)); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	for i := 0; i+1 < k; i++ {
		addEdge(t, g, string(node(i)), string(node(i+1)), 1.0, false)
	}
	return g
}

// triangleRing builds k triangles {3t, 3t+1, 3t+2} where node 3t+2 is
// bridged to node 3(t+1) of the next triangle, closing a ring.
func triangleRing(t *testing.T, k int) *graph.Graph {
	t.Helper()
	g := graph.New(graph.DefaultOptions())
	for i := 0; i < 3*k; i++ {
		if _, err := g.AddNode(node(i)); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	for tri := 0; tri < k; tri++ {
		a, b, c := 3*tri, 3*tri+1, 3*tri+2
		addEdge(t, g, string(node(a)), string(node(b)), 1, false)
		addEdge(t, g, string(node(b)), string(node(c)), 1, false)
		addEdge(t, g, string(node(a)), string(node(c)), 1, false)
		addEdge(t, g, string(node(c)), string(node((3*(tri+1))%(3*k))), 1, false)
	}
	return g
}

func node(i int) graph.NodeID {
	return graph.NodeID(fmt.Sprintf("n%d", i))
}
