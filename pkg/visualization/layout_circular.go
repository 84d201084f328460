package visualization

import (
	"cmp"
	"math"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// CircularLayout arranges nodes in a circle
type CircularLayout struct {
	config *LayoutConfig
	groups []int
}

// NewCircularLayout creates a new circular layout
func NewCircularLayout(config *LayoutConfig) *CircularLayout {
	return &CircularLayout{config: withPadding(config)}
}

// GroupBy places nodes with the same label next to each other on the circle.
// labels is indexed by dense node index, for example community labels.
func (cl *CircularLayout) GroupBy(labels []int) *CircularLayout {
	cl.groups = labels
	return cl
}

// ComputeLayout arranges nodes in a circle
func (cl *CircularLayout) ComputeLayout(view *pipeline.GraphView) ([]Position, error) {
	n := view.NodeCount()
	positions := make([]Position, n)
	if n == 0 {
		return positions, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if len(cl.groups) == n {
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(cl.groups[a], cl.groups[b])
		})
	}

	centerX := cl.config.Width / 2
	centerY := cl.config.Height / 2
	radius := math.Min(centerX, centerY) - cl.config.Padding

	angleStep := 2 * math.Pi / float64(n)

	for slot, idx := range order {
		angle := float64(slot) * angleStep
		positions[idx] = Position{
			X: centerX + radius*math.Cos(angle),
			Y: centerY + radius*math.Sin(angle),
		}
	}

	return positions, nil
}
