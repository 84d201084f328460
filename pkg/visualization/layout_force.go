package visualization

import (
	"math"
	"math/rand/v2"

	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// ForceDirectedLayout implements force-directed graph layout
type ForceDirectedLayout struct {
	config *LayoutConfig
}

// NewForceDirectedLayout creates a new force-directed layout
func NewForceDirectedLayout(config *LayoutConfig) *ForceDirectedLayout {
	config = withPadding(config)
	if config.Iterations == 0 {
		config.Iterations = 50
	}
	return &ForceDirectedLayout{config: config}
}

// ComputeLayout computes positions using force-directed algorithm. The same
// seed and graph always give the same positions.
func (fdl *ForceDirectedLayout) ComputeLayout(view *pipeline.GraphView) ([]Position, error) {
	n := view.NodeCount()
	if n == 0 {
		return []Position{}, nil
	}

	// Single node - center it
	if n == 1 {
		return []Position{{X: fdl.config.Width / 2, Y: fdl.config.Height / 2}}, nil
	}

	rng := rand.New(rand.NewPCG(fdl.config.Seed, fdl.config.Seed^0x9e3779b97f4a7c15))
	positions := make([]Position, n)
	for i := range positions {
		positions[i] = Position{
			X: rng.Float64()*(fdl.config.Width-2*fdl.config.Padding) + fdl.config.Padding,
			Y: rng.Float64()*(fdl.config.Height-2*fdl.config.Padding) + fdl.config.Padding,
		}
	}

	out, in := adjacency(view)

	// Force-directed iterations
	k := math.Sqrt((fdl.config.Width * fdl.config.Height) / float64(n)) // Optimal distance
	temperature := fdl.config.Width / 10.0
	forces := make([]Position, n)

	for iter := 0; iter < fdl.config.Iterations; iter++ {
		clear(forces)

		// Repulsion between all nodes
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := positions[i].X - positions[j].X
				dy := positions[i].Y - positions[j].Y
				dist := math.Max(math.Sqrt(dx*dx+dy*dy), 0.01)

				force := (k * k) / dist
				fx := (dx / dist) * force
				fy := (dy / dist) * force

				forces[i].X += fx
				forces[i].Y += fy
				forces[j].X -= fx
				forces[j].Y -= fy
			}
		}

		// Attraction between connected nodes
		for i := 0; i < n; i++ {
			for _, j := range out[i] {
				fdl.attract(positions, forces, i, j, k)
			}
			for _, j := range in[i] {
				fdl.attract(positions, forces, i, j, k)
			}
		}

		// Apply forces with cooling
		cool := 1.0 - float64(iter)/float64(fdl.config.Iterations)
		for i := range positions {
			fx, fy := forces[i].X, forces[i].Y
			force := math.Sqrt(fx*fx + fy*fy)
			if force > 0 {
				step := math.Min(force, temperature) * cool
				positions[i].X += (fx / force) * step
				positions[i].Y += (fy / force) * step
			}
		}

		temperature *= 0.95
	}

	// Normalize positions to bounds
	return normalizePositions(positions, fdl.config.Width, fdl.config.Height, fdl.config.Padding), nil
}

// attract pulls node i towards its neighbour j.
func (fdl *ForceDirectedLayout) attract(positions, forces []Position, i, j int, k float64) {
	dx := positions[i].X - positions[j].X
	dy := positions[i].Y - positions[j].Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 0.01 {
		return
	}

	force := (dist * dist) / k
	forces[i].X -= (dx / dist) * force
	forces[i].Y -= (dy / dist) * force
}
