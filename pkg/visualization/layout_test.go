package visualization

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

func buildView(t *testing.T, directed bool, pairs ...string) *pipeline.GraphView {
	t.Helper()
	return pipeline.NewGraphView(buildGraph(t, directed, pairs...))
}

func buildGraph(t *testing.T, directed bool, pairs ...string) *graph.Graph {
	t.Helper()
	g := graph.New(graph.DefaultOptions())
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := g.AddEdge(graph.NodeID(pairs[i]), graph.NodeID(pairs[i+1]), 1.0, directed); err != nil {
			t.Fatalf("AddEdge failed: %v", err)
		}
	}
	return g
}

func indexOf(t *testing.T, view *pipeline.GraphView, id string) int {
	t.Helper()
	i, ok := view.IndexOf(graph.NodeID(id))
	if !ok {
		t.Fatalf("node %s missing", id)
	}
	return i
}

// TestForceDirectedLayout tests the force-directed layout algorithm
func TestForceDirectedLayout(t *testing.T) {
	view := buildView(t, false, "alice", "bob", "bob", "charlie")

	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:      800,
		Height:     600,
		Iterations: 50,
	})

	positions, err := layout.ComputeLayout(view)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// Verify all nodes have positions
	if len(positions) != 3 {
		t.Errorf("Expected 3 positions, got %d", len(positions))
	}

	// Verify positions are within bounds
	for i, pos := range positions {
		if pos.X < 0 || pos.X > 800 {
			t.Errorf("Node %d X position %f out of bounds", i, pos.X)
		}
		if pos.Y < 0 || pos.Y > 600 {
			t.Errorf("Node %d Y position %f out of bounds", i, pos.Y)
		}
	}

	a, b, c := indexOf(t, view, "alice"), indexOf(t, view, "bob"), indexOf(t, view, "charlie")
	dist12 := distance(positions[a], positions[b])
	dist23 := distance(positions[b], positions[c])
	dist13 := distance(positions[a], positions[c])

	// Alice and Charlie are not directly connected, should be furthest apart
	if dist13 < dist12 || dist13 < dist23 {
		t.Error("Force-directed layout did not separate unconnected nodes properly")
	}
}

// TestForceDirectedLayout_Deterministic tests that a seed fixes the layout
func TestForceDirectedLayout_Deterministic(t *testing.T) {
	view := buildView(t, false, "a", "b", "b", "c", "c", "a", "c", "d")

	first, _ := NewForceDirectedLayout(&LayoutConfig{Seed: 7}).ComputeLayout(view)
	second, _ := NewForceDirectedLayout(&LayoutConfig{Seed: 7}).ComputeLayout(view)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Node %d moved between runs with the same seed: %v vs %v", i, first[i], second[i])
		}
	}
}

// TestCircularLayout tests circular layout algorithm
func TestCircularLayout(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	for _, id := range []graph.NodeID{"a", "b", "c", "d", "e"} {
		if _, err := g.AddNode(id); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	view := pipeline.NewGraphView(g)

	layout := NewCircularLayout(&LayoutConfig{
		Width:  400,
		Height: 400,
	})

	positions, err := layout.ComputeLayout(view)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// Verify all nodes are the same distance from center
	centerX, centerY := 200.0, 200.0
	for i, pos := range positions {
		dx := pos.X - centerX
		dy := pos.Y - centerY
		if d := math.Sqrt(dx*dx + dy*dy); math.Abs(d-150) > 1e-9 {
			t.Errorf("Node %d at distance %f, expected 150", i, d)
		}
	}
}

// TestCircularLayout_GroupBy tests that grouped nodes are adjacent on the circle
func TestCircularLayout_GroupBy(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	for _, id := range []graph.NodeID{"a", "b", "c", "d"} {
		if _, err := g.AddNode(id); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	view := pipeline.NewGraphView(g)

	// a and c share a group, b and d share the other
	positions, err := NewCircularLayout(&LayoutConfig{Width: 400, Height: 400}).
		GroupBy([]int{0, 1, 0, 1}).
		ComputeLayout(view)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// Slots are a, c, b, d; a at angle 0 and c at 90 degrees
	if math.Abs(positions[0].X-350) > 1e-9 || math.Abs(positions[0].Y-200) > 1e-9 {
		t.Errorf("a at %v, expected (350, 200)", positions[0])
	}
	if math.Abs(positions[2].X-200) > 1e-9 || math.Abs(positions[2].Y-350) > 1e-9 {
		t.Errorf("c at %v, expected (200, 350)", positions[2])
	}
}

// TestHierarchicalLayout tests hierarchical/tree layout
func TestHierarchicalLayout(t *testing.T) {
	view := buildView(t, true,
		"root", "child1",
		"root", "child2",
		"child1", "grandchild1",
		"child1", "grandchild2",
	)

	layout := NewHierarchicalLayout(&LayoutConfig{
		Width:  600,
		Height: 400,
	})

	positions, err := layout.ComputeLayout(view)
	if err != nil {
		t.Fatalf("Layout computation failed: %v", err)
	}

	// Verify root is at top (lowest Y value)
	root := indexOf(t, view, "root")
	rootY := positions[root].Y
	for i, pos := range positions {
		if i != root && pos.Y <= rootY {
			t.Errorf("Node %d has Y=%f, should be below root Y=%f", i, pos.Y, rootY)
		}
	}

	// Children should be at same level
	child1Y := positions[indexOf(t, view, "child1")].Y
	child2Y := positions[indexOf(t, view, "child2")].Y
	if math.Abs(child1Y-child2Y) > 1.0 {
		t.Errorf("Children not at same level: Y1=%f, Y2=%f", child1Y, child2Y)
	}

	// Grandchildren should be at same level
	gc1Y := positions[indexOf(t, view, "grandchild1")].Y
	gc2Y := positions[indexOf(t, view, "grandchild2")].Y
	if math.Abs(gc1Y-gc2Y) > 1.0 {
		t.Errorf("Grandchildren not at same level: Y1=%f, Y2=%f", gc1Y, gc2Y)
	}
}

// TestLayoutNormalization tests that coordinates are normalized to bounds
func TestLayoutNormalization(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	for _, id := range []graph.NodeID{"a", "b", "c"} {
		if _, err := g.AddNode(id); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}

	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:      100,
		Height:     100,
		Iterations: 10,
	})

	positions, _ := layout.ComputeLayout(pipeline.NewGraphView(g))

	// All positions should be within bounds
	for i, pos := range positions {
		if pos.X < 0 || pos.X > 100 {
			t.Errorf("Node %d X=%f out of bounds [0, 100]", i, pos.X)
		}
		if pos.Y < 0 || pos.Y > 100 {
			t.Errorf("Node %d Y=%f out of bounds [0, 100]", i, pos.Y)
		}
	}
}

// TestEmptyGraph tests layout on empty graph
func TestEmptyGraph(t *testing.T) {
	view := pipeline.NewGraphView(graph.New(graph.DefaultOptions()))

	for name, layout := range map[string]Layout{
		"force":        NewForceDirectedLayout(nil),
		"circular":     NewCircularLayout(nil),
		"hierarchical": NewHierarchicalLayout(nil),
	} {
		positions, err := layout.ComputeLayout(view)
		if err != nil {
			t.Fatalf("%s: empty graph should not error: %v", name, err)
		}
		if len(positions) != 0 {
			t.Errorf("%s: expected 0 positions for empty graph, got %d", name, len(positions))
		}
	}
}

// TestSingleNodeLayout tests layout with single node
func TestSingleNodeLayout(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	if _, err := g.AddNode("only"); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	layout := NewForceDirectedLayout(&LayoutConfig{
		Width:  800,
		Height: 600,
	})

	positions, err := layout.ComputeLayout(pipeline.NewGraphView(g))
	if err != nil {
		t.Fatalf("Single node layout failed: %v", err)
	}

	if len(positions) != 1 {
		t.Fatalf("Expected 1 position, got %d", len(positions))
	}

	// Single node should be centered
	if pos := positions[0]; pos.X != 400 || pos.Y != 300 {
		t.Errorf("Single node not centered: (%f, %f)", pos.X, pos.Y)
	}
}

func analyse(t *testing.T, g *graph.Graph) *pipeline.AnalysisResult {
	t.Helper()
	opts := pipeline.DefaultOptions()
	opts.Metrics = []string{algorithms.MetricDegree, algorithms.MetricPageRank}
	opts.LinkPrediction = nil
	o, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	result, err := o.Run(context.Background(), g)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result
}

// TestNewVisualization tests size and colour mapping
func TestNewVisualization(t *testing.T) {
	g := buildGraph(t, false,
		"a", "b", "b", "c", "a", "c",
		"x", "y", "y", "z", "x", "z",
		"c", "x",
		"a", "leaf",
	)
	result := analyse(t, g)

	opts := DefaultStyleOptions()
	opts.Metric = algorithms.MetricDegree
	viz, err := New(result, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if viz.Metric != algorithms.MetricDegree {
		t.Errorf("Expected metric degree, got %s", viz.Metric)
	}
	if len(viz.Nodes) != g.NodeCount() || len(viz.Edges) != g.EdgeCount() {
		t.Fatalf("Expected %d nodes and %d edges, got %d and %d", g.NodeCount(), g.EdgeCount(), len(viz.Nodes), len(viz.Edges))
	}

	byID := make(map[graph.NodeID]NodeVisual)
	for _, nv := range viz.Nodes {
		byID[nv.ID] = nv
		if nv.Size < opts.MinSize || nv.Size > opts.MaxSize {
			t.Errorf("Node %s size %f outside [%f, %f]", nv.ID, nv.Size, opts.MinSize, opts.MaxSize)
		}
		if nv.Community < 0 || nv.Color != opts.Palette[nv.Community%len(opts.Palette)] {
			t.Errorf("Node %s has community %d and color %s", nv.ID, nv.Community, nv.Color)
		}
	}

	// Highest degree gets the largest size, the leaf the smallest
	if byID["a"].Size != opts.MaxSize {
		t.Errorf("Expected a to have max size, got %f", byID["a"].Size)
	}
	if byID["leaf"].Size != opts.MinSize {
		t.Errorf("Expected leaf to have min size, got %f", byID["leaf"].Size)
	}
	if byID["a"].Community != byID["b"].Community || byID["a"].Community == byID["y"].Community {
		t.Errorf("Unexpected communities: a=%d b=%d y=%d", byID["a"].Community, byID["b"].Community, byID["y"].Community)
	}
}

// TestNewVisualization_DefaultMetric tests the PageRank default and errors
func TestNewVisualization_DefaultMetric(t *testing.T) {
	result := analyse(t, buildGraph(t, false, "a", "b", "b", "c"))

	viz, err := New(result, DefaultStyleOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if viz.Metric != algorithms.MetricPageRank {
		t.Errorf("Expected pagerank, got %s", viz.Metric)
	}

	opts := DefaultStyleOptions()
	opts.Metric = algorithms.MetricBetweenness
	if _, err := New(result, opts); !errors.Is(err, ErrMetricUnavailable) {
		t.Errorf("Expected ErrMetricUnavailable, got %v", err)
	}

	opts = DefaultStyleOptions()
	opts.MinSize, opts.MaxSize = 10, 1
	if _, err := New(result, opts); err == nil {
		t.Error("Expected error for empty size range")
	}
}

// TestVisualizationExport tests exporting the visualization to JSON
func TestVisualizationExport(t *testing.T) {
	result := analyse(t, buildGraph(t, false, "Alice", "Bob"))

	opts := DefaultStyleOptions()
	opts.Layout = NewForceDirectedLayout(&LayoutConfig{Iterations: 20})
	viz, err := New(result, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	jsonData, err := viz.ExportJSON()
	if err != nil {
		t.Fatalf("JSON export failed: %v", err)
	}

	jsonStr := string(jsonData)
	if !strings.Contains(jsonStr, "Alice") || !strings.Contains(jsonStr, "Bob") {
		t.Error("JSON export missing node data")
	}

	var decoded Visualization
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if len(decoded.Nodes) != 2 || len(decoded.Edges) != 1 {
		t.Errorf("Expected 2 nodes and 1 edge, got %d and %d", len(decoded.Nodes), len(decoded.Edges))
	}
	if !decoded.Edges[0].SameCommunity {
		t.Error("Expected the single edge to be inside one community")
	}
}

// Helper function to calculate distance between two positions
func distance(p1, p2 Position) float64 {
	dx := p1.X - p2.X
	dy := p1.Y - p2.Y
	return math.Sqrt(dx*dx + dy*dy)
}
