package visualization

import (
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures layout parameters
type LayoutConfig struct {
	Width      float64 // Canvas width
	Height     float64 // Canvas height
	Iterations int     // Number of iterations for iterative algorithms
	Padding    float64 // Padding from edges
	Seed       uint64  // start positions of the force-directed layout
}

// Layout computes one position per node of the view, in dense index order.
type Layout interface {
	ComputeLayout(view *pipeline.GraphView) ([]Position, error)
}

// NodeVisual is the drawing attributes of one node.
type NodeVisual struct {
	ID        graph.NodeID `json:"id"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Size      float64      `json:"size"`
	Color     string       `json:"color"`
	Community int          `json:"community"` // -1 without community detection
	Score     float64      `json:"score"`
}

// EdgeVisual is the drawing attributes of one edge.
type EdgeVisual struct {
	Source        graph.NodeID `json:"source"`
	Target        graph.NodeID `json:"target"`
	Weight        float64      `json:"weight"`
	Directed      bool         `json:"directed"`
	SameCommunity bool         `json:"same_community"`
}

// Visualization represents a graph visualization with layout
type Visualization struct {
	Metric string       `json:"metric"` // metric that sized the nodes
	Nodes  []NodeVisual `json:"nodes"`
	Edges  []EdgeVisual `json:"edges"`
}
