package visualization

import (
	"math"

	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// normalizePositions scales positions to fit within bounds
func normalizePositions(positions []Position, width, height, padding float64) []Position {
	if len(positions) == 0 {
		return positions
	}

	// Find bounds
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64

	for _, pos := range positions {
		minX = math.Min(minX, pos.X)
		maxX = math.Max(maxX, pos.X)
		minY = math.Min(minY, pos.Y)
		maxY = math.Max(maxY, pos.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	if rangeX < 0.01 {
		rangeX = 1
	}
	if rangeY < 0.01 {
		rangeY = 1
	}

	// Scale to fit bounds with padding
	targetWidth := width - 2*padding
	targetHeight := height - 2*padding

	normalized := make([]Position, len(positions))
	for i, pos := range positions {
		normalized[i] = Position{
			X: padding + ((pos.X-minX)/rangeX)*targetWidth,
			Y: padding + ((pos.Y-minY)/rangeY)*targetHeight,
		}
	}

	return normalized
}

// adjacency returns the out- and in-neighbours of every node by dense index.
// Undirected edges appear in both directions; self-loops are skipped.
func adjacency(view *pipeline.GraphView) (out, in [][]int) {
	n := view.NodeCount()
	out = make([][]int, n)
	in = make([][]int, n)
	for _, e := range view.Edges() {
		u, _ := view.IndexOf(e.Source)
		v, _ := view.IndexOf(e.Target)
		if u == v {
			continue
		}
		out[u] = append(out[u], v)
		in[v] = append(in[v], u)
		if !e.Directed {
			out[v] = append(out[v], u)
			in[u] = append(in[u], v)
		}
	}
	return out, in
}

func withPadding(config *LayoutConfig) *LayoutConfig {
	if config == nil {
		config = &LayoutConfig{}
	}
	if config.Width == 0 {
		config.Width = 800
	}
	if config.Height == 0 {
		config.Height = 600
	}
	if config.Padding == 0 {
		config.Padding = 50
	}
	return config
}
