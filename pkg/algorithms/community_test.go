package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// assertCovers checks that every node has exactly one community in range
func assertCovers(t *testing.T, g *graph.Graph, a *CommunityAssignment) {
	t.Helper()
	if len(a.Labels) != g.NodeCount() || len(a.Communities) != g.NodeCount() {
		t.Fatalf("Expected %d labels, got %d labels and %d map entries", g.NodeCount(), len(a.Labels), len(a.Communities))
	}
	used := make([]bool, a.Count)
	for i, c := range a.Labels {
		if c < 0 || c >= a.Count {
			t.Fatalf("Node %d has out-of-range community %d", i, c)
		}
		if a.Communities[g.NodeAt(i)] != c {
			t.Errorf("Node %s: map says %d, labels say %d", g.NodeAt(i), a.Communities[g.NodeAt(i)], c)
		}
		used[c] = true
	}
	for c, ok := range used {
		if !ok {
			t.Errorf("Community %d is empty", c)
		}
	}
}

// assertTrianglesGrouped checks that each triangle of a ring is one community
func assertTrianglesGrouped(t *testing.T, a *CommunityAssignment, triangles int) {
	t.Helper()
	if a.Count != triangles {
		t.Errorf("Expected %d communities, got %d", triangles, a.Count)
	}
	for tri := 0; tri < triangles; tri++ {
		base := a.Labels[3*tri]
		if a.Labels[3*tri+1] != base || a.Labels[3*tri+2] != base {
			t.Errorf("Triangle %d split: %v", tri, a.Labels[3*tri:3*tri+3])
		}
	}
}

// TestLouvain_TriangleRing tests that ring triangles become communities
func TestLouvain_TriangleRing(t *testing.T) {
	g := triangleRing(t, 4)

	result, err := LouvainCommunities(context.Background(), g, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("LouvainCommunities failed: %v", err)
	}
	assertCovers(t, g, result)
	assertTrianglesGrouped(t, result, 4)

	if math.Abs(result.Modularity-0.5) > 1e-9 {
		t.Errorf("Expected modularity 0.5, got %f", result.Modularity)
	}
	if result.Modularity <= 0.3 {
		t.Errorf("Expected modularity above 0.3, got %f", result.Modularity)
	}

	groups := result.Groups(g)
	for _, c := range groups {
		if c.Size != 3 || !approxEqual(c.Density, 1.0) {
			t.Errorf("Community %d: expected size 3 density 1, got %d and %f", c.ID, c.Size, c.Density)
		}
	}
}

// TestLouvain_Hierarchy tests that level gains telescope to the final modularity
func TestLouvain_Hierarchy(t *testing.T) {
	g := triangleRing(t, 12)
	opts := DefaultCommunityOptions()

	result, err := LouvainCommunities(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("LouvainCommunities failed: %v", err)
	}
	if len(result.Levels) < 2 {
		t.Fatalf("Expected at least 2 levels, got %d", len(result.Levels))
	}

	singleton := Modularity(g, map[graph.NodeID]int{}, opts)
	gains := 0.0
	prevCount := g.NodeCount()
	for i, level := range result.Levels {
		gains += level.Gain
		if level.Count >= prevCount {
			t.Errorf("Level %d: community count %d did not shrink from %d", i, level.Count, prevCount)
		}
		prevCount = level.Count
	}
	if math.Abs(gains-(result.Modularity-singleton)) > 1e-9 {
		t.Errorf("Gains sum to %f, expected %f", gains, result.Modularity-singleton)
	}

	finest, ok := result.Level(0)
	if !ok || finest.Count != 12 {
		t.Errorf("Expected 12 communities at level 0, got %d", finest.Count)
	}
	if _, ok := result.Level(len(result.Levels)); ok {
		t.Error("Expected out-of-range level to be missing")
	}

	last := result.Levels[len(result.Levels)-1]
	if !approxEqual(last.Modularity, result.Modularity) {
		t.Errorf("Last level modularity %f != result %f", last.Modularity, result.Modularity)
	}
	if !approxEqual(Modularity(g, result.Communities, opts), result.Modularity) {
		t.Errorf("Modularity() disagrees with reported modularity")
	}
}

// TestLouvain_EdgeCases tests empty and edgeless graphs
func TestLouvain_EdgeCases(t *testing.T) {
	empty := graph.New(graph.DefaultOptions())
	result, err := LouvainCommunities(context.Background(), empty, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("LouvainCommunities failed: %v", err)
	}
	if result.Count != 0 || result.Modularity != 0 {
		t.Errorf("Expected no communities, got %d (Q=%f)", result.Count, result.Modularity)
	}

	isolated := graph.New(graph.DefaultOptions())
	for _, id := range []graph.NodeID{"a", "b", "c"} {
		if _, err := isolated.AddNode(id); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	result, err = LouvainCommunities(context.Background(), isolated, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("LouvainCommunities failed: %v", err)
	}
	assertCovers(t, isolated, result)
	if result.Count != 3 {
		t.Errorf("Expected isolated nodes as singletons, got %d communities", result.Count)
	}
}

// TestLouvain_Cancelled tests cancellation between passes
func TestLouvain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LouvainCommunities(ctx, triangleRing(t, 4), DefaultCommunityOptions())
	if !IsCancellation(err) {
		t.Errorf("Expected cancellation, got %v", err)
	}
}

// TestLabelPropagation_Triangles tests two disjoint triangles
func TestLabelPropagation_Triangles(t *testing.T) {
	g := newTestGraph(t, false,
		"a", "b", "b", "c", "c", "a",
		"x", "y", "y", "z", "z", "x",
	)

	result, err := LabelPropagationCommunities(context.Background(), g, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("LabelPropagationCommunities failed: %v", err)
	}
	assertCovers(t, g, result)
	if result.Count != 2 {
		t.Errorf("Expected 2 communities, got %d", result.Count)
	}
	if result.Communities["a"] != result.Communities["c"] || result.Communities["a"] == result.Communities["x"] {
		t.Errorf("Unexpected grouping: %v", result.Communities)
	}
	if result.Warning != nil {
		t.Errorf("Unexpected warning: %v", result.Warning)
	}
}

// TestLabelPropagation_RoundCap tests the warning when rounds run out
func TestLabelPropagation_RoundCap(t *testing.T) {
	g := pathGraph(t, 3)
	opts := DefaultCommunityOptions()
	opts.LabelPropRounds = 1

	result, err := LabelPropagationCommunities(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("LabelPropagationCommunities failed: %v", err)
	}
	if !errors.Is(result.Warning, ErrNotConverged) {
		t.Errorf("Expected NotConverged warning, got %v", result.Warning)
	}
	assertCovers(t, g, result)
}

// TestGirvanNewman_TriangleRing tests that bridges are removed first
func TestGirvanNewman_TriangleRing(t *testing.T) {
	g := triangleRing(t, 4)

	result, err := GirvanNewmanCommunities(context.Background(), g, DefaultCommunityOptions())
	if err != nil {
		t.Fatalf("GirvanNewmanCommunities failed: %v", err)
	}
	assertCovers(t, g, result)
	assertTrianglesGrouped(t, result, 4)
	if math.Abs(result.Modularity-0.5) > 1e-9 {
		t.Errorf("Expected modularity 0.5, got %f", result.Modularity)
	}
}

// TestConnectedComponents tests component labelling
func TestConnectedComponents(t *testing.T) {
	g := newTestGraph(t, true, "a", "b", "c", "b", "d", "e")
	if _, err := g.AddNode("f"); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	result := ConnectedComponents(g)
	assertCovers(t, g, result)
	if result.Count != 3 {
		t.Errorf("Expected 3 components, got %d", result.Count)
	}
	if result.Communities["a"] != result.Communities["c"] {
		t.Error("Expected a and c in one weak component")
	}
	// Ids follow the lowest node index
	if result.Communities["a"] != 0 || result.Communities["d"] != 1 || result.Communities["f"] != 2 {
		t.Errorf("Unexpected component ids: %v", result.Communities)
	}
}

// TestDetectCommunities tests algorithm dispatch
func TestDetectCommunities(t *testing.T) {
	g := triangleRing(t, 3)

	for _, alg := range []CommunityAlgorithm{Louvain, LabelPropagation, GirvanNewman, Components, ""} {
		opts := DefaultCommunityOptions()
		opts.Algorithm = alg
		result, err := DetectCommunities(context.Background(), g, opts)
		if err != nil {
			t.Fatalf("DetectCommunities(%q) failed: %v", alg, err)
		}
		assertCovers(t, g, result)
	}

	opts := DefaultCommunityOptions()
	opts.Algorithm = "spectral"
	if _, err := DetectCommunities(context.Background(), g, opts); !errors.Is(err, ErrUnknownCommAlg) {
		t.Errorf("Expected ErrUnknownCommAlg, got %v", err)
	}
	if _, err := ParseCommunityAlgorithm("labelProp"); err != nil {
		t.Errorf("ParseCommunityAlgorithm failed: %v", err)
	}
	if _, err := ParseCommunityAlgorithm("nope"); !errors.Is(err, ErrUnknownCommAlg) {
		t.Errorf("Expected ErrUnknownCommAlg, got %v", err)
	}
}

// TestModularity_Resolution tests that a higher resolution penalises large communities
func TestModularity_Resolution(t *testing.T) {
	g := triangleRing(t, 4)
	whole := make(map[graph.NodeID]int)
	for _, id := range g.Nodes() {
		whole[id] = 0
	}

	opts := DefaultCommunityOptions()
	if q := Modularity(g, whole, opts); !approxEqual(q, 0) {
		t.Errorf("Expected Q=0 for a single community, got %f", q)
	}
	opts.Resolution = 2
	if q := Modularity(g, whole, opts); !approxEqual(q, -1) {
		t.Errorf("Expected Q=-1 at resolution 2, got %f", q)
	}
}

// TestClusteringCoefficient tests a triangle with a pendant
func TestClusteringCoefficient(t *testing.T) {
	g := newTestGraph(t, false, "a", "b", "b", "c", "c", "a", "c", "d")

	coef := ClusteringCoefficient(g)
	expected := map[graph.NodeID]float64{"a": 1, "b": 1, "c": 1.0 / 3, "d": 0}
	for id, want := range expected {
		if !approxEqual(coef[id], want) {
			t.Errorf("Node %s: expected %f, got %f", id, want, coef[id])
		}
	}
	if avg := AverageClusteringCoefficient(g); !approxEqual(avg, 7.0/12) {
		t.Errorf("Expected average 7/12, got %f", avg)
	}

	triangles := CountTriangles(g, 2)
	if triangles.GlobalCount != 1 {
		t.Errorf("Expected 1 triangle, got %d", triangles.GlobalCount)
	}
	if triangles.PerNode["d"] != 0 || triangles.PerNode["c"] != 1 {
		t.Errorf("Unexpected per-node counts: %v", triangles.PerNode)
	}
	if len(triangles.TopNodes) != 2 || triangles.TopNodes[0].Node != "a" {
		t.Errorf("Unexpected top nodes: %v", triangles.TopNodes)
	}
}
