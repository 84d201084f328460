package visualization

import (
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// HierarchicalLayout arranges nodes in a tree hierarchy
type HierarchicalLayout struct {
	config *LayoutConfig
}

// NewHierarchicalLayout creates a new hierarchical layout
func NewHierarchicalLayout(config *LayoutConfig) *HierarchicalLayout {
	return &HierarchicalLayout{config: withPadding(config)}
}

// ComputeLayout arranges nodes in levels by BFS from the nodes without
// incoming edges. Undirected edges count as incoming at both ends.
func (hl *HierarchicalLayout) ComputeLayout(view *pipeline.GraphView) ([]Position, error) {
	n := view.NodeCount()
	positions := make([]Position, n)
	if n == 0 {
		return positions, nil
	}

	out, in := adjacency(view)

	// Find root nodes (nodes with no incoming edges)
	roots := make([]int, 0)
	for i := 0; i < n; i++ {
		if len(in[i]) == 0 {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		// No clear root, use first node
		roots = []int{0}
	}

	// Build levels using BFS
	levels := make([][]int, 0)
	visited := make([]bool, n)
	for _, r := range roots {
		visited[r] = true
	}
	currentLevel := roots

	for len(currentLevel) > 0 {
		levels = append(levels, currentLevel)
		nextLevel := make([]int, 0)
		for _, v := range currentLevel {
			for _, w := range out[v] {
				if !visited[w] {
					visited[w] = true
					nextLevel = append(nextLevel, w)
				}
			}
		}
		currentLevel = nextLevel
	}

	// Add unvisited nodes to last level
	for i := 0; i < n; i++ {
		if !visited[i] {
			levels[len(levels)-1] = append(levels[len(levels)-1], i)
		}
	}

	// Position nodes
	levelHeight := (hl.config.Height - 2*hl.config.Padding) / float64(len(levels))

	for levelIdx, level := range levels {
		y := hl.config.Padding + float64(levelIdx)*levelHeight + levelHeight/2
		levelWidth := hl.config.Width - 2*hl.config.Padding
		spacing := levelWidth / float64(len(level)+1)

		for slot, idx := range level {
			x := hl.config.Padding + spacing*float64(slot+1)
			positions[idx] = Position{X: x, Y: y}
		}
	}

	return positions, nil
}
