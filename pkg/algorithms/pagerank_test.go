package algorithms

import (
	"context"
	"errors"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

func sumScores(scores map[graph.NodeID]float64) float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum
}

// TestPageRank_Cycle tests that a directed cycle gives uniform scores
func TestPageRank_Cycle(t *testing.T) {
	g := newTestGraph(t, true, "a", "b", "b", "c", "c", "d", "d", "e", "e", "a")

	result, err := PageRank(context.Background(), g, DefaultCentralityOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if !result.Converged || result.Warning != nil {
		t.Errorf("Expected convergence, got warning %v", result.Warning)
	}
	for id, score := range result.Scores {
		if !approxEqual(score, 0.2) {
			t.Errorf("Node %s: expected 0.2, got %f", id, score)
		}
	}
}

// TestPageRank_SumsToOne tests normalisation on a mixed graph with dangling nodes
func TestPageRank_SumsToOne(t *testing.T) {
	g := newTestGraph(t, true, "a", "b", "a", "c", "b", "c", "d", "c")
	addEdge(t, g, "c", "e", 1, false)

	result, err := PageRank(context.Background(), g, DefaultCentralityOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if !approxEqual(sumScores(result.Scores), 1.0) {
		t.Errorf("Expected scores to sum to 1, got %f", sumScores(result.Scores))
	}
	for id, score := range result.Scores {
		if score <= 0 {
			t.Errorf("Node %s: expected positive score, got %f", id, score)
		}
	}
	if result.Scores["c"] <= result.Scores["a"] {
		t.Errorf("Expected sink c (%f) above source a (%f)", result.Scores["c"], result.Scores["a"])
	}
}

// TestPageRank_Dangling tests that dangling mass is redistributed
func TestPageRank_Dangling(t *testing.T) {
	g := newTestGraph(t, true, "hub", "a", "hub", "b")

	result, err := PageRank(context.Background(), g, DefaultCentralityOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if !approxEqual(result.Scores["a"], result.Scores["b"]) {
		t.Errorf("Expected symmetric leaves, got %f and %f", result.Scores["a"], result.Scores["b"])
	}
	if result.Scores["a"] <= result.Scores["hub"] {
		t.Errorf("Expected leaves above hub")
	}
	if !approxEqual(sumScores(result.Scores), 1.0) {
		t.Errorf("Expected scores to sum to 1, got %f", sumScores(result.Scores))
	}
}

// TestPageRank_NotConverged tests the iteration cap warning
func TestPageRank_NotConverged(t *testing.T) {
	g := newTestGraph(t, true, "a", "b")

	opts := DefaultCentralityOptions()
	opts.MaxIterations = 1
	result, err := PageRank(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if result.Converged {
		t.Error("Expected Converged = false")
	}
	var warning *ConvergenceWarning
	if !errors.As(result.Warning, &warning) || !errors.Is(warning, ErrNotConverged) {
		t.Fatalf("Expected NotConverged warning, got %v", result.Warning)
	}
	if warning.Iterations != 1 {
		t.Errorf("Expected 1 iteration, got %d", warning.Iterations)
	}
	if !approxEqual(sumScores(result.Scores), 1.0) {
		t.Errorf("Expected partial scores to sum to 1, got %f", sumScores(result.Scores))
	}
}

// TestPageRank_Weighted tests that heavier arcs attract more rank
func TestPageRank_Weighted(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	addEdge(t, g, "a", "b", 9, true)
	addEdge(t, g, "a", "c", 1, true)
	addEdge(t, g, "b", "a", 1, true)
	addEdge(t, g, "c", "a", 1, true)

	opts := DefaultCentralityOptions()
	opts.Weighted = true
	result, err := PageRank(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if result.Scores["b"] <= result.Scores["c"] {
		t.Errorf("Expected b (%f) above c (%f)", result.Scores["b"], result.Scores["c"])
	}
}

// TestPageRank_Empty tests the empty graph
func TestPageRank_Empty(t *testing.T) {
	result, err := PageRank(context.Background(), graph.New(graph.DefaultOptions()), DefaultCentralityOptions())
	if err != nil {
		t.Fatalf("PageRank failed: %v", err)
	}
	if len(result.Scores) != 0 {
		t.Errorf("Expected no scores, got %d", len(result.Scores))
	}
}
