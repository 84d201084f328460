// Package visualization turns an analysis result into drawable node and edge
// attributes: node size from a centrality metric, colour from the community
// and a position from one of the layouts.
package visualization

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// ErrMetricUnavailable is returned when the sizing metric has no scores in
// the result.
var ErrMetricUnavailable = errors.New("metric not available in result")

// DefaultPalette colours communities by id, cycling when there are more
// communities than colours.
var DefaultPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// NoCommunityColor is used when the result has no community assignment.
const NoCommunityColor = "#999999"

// StyleOptions configures how scores map to visual attributes.
type StyleOptions struct {
	Metric  string // sizes nodes; PageRank, else the first metric with scores
	MinSize float64
	MaxSize float64
	Palette []string
	Layout  Layout // nil arranges communities around a circle
}

// DefaultStyleOptions returns default style settings
func DefaultStyleOptions() StyleOptions {
	return StyleOptions{
		MinSize: 3,
		MaxSize: 18,
		Palette: DefaultPalette,
	}
}

// New builds the visualization of result.
func New(result *pipeline.AnalysisResult, opts StyleOptions) (*Visualization, error) {
	if opts.MaxSize < opts.MinSize {
		return nil, fmt.Errorf("size range [%g, %g] is empty", opts.MinSize, opts.MaxSize)
	}
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}

	metric, err := sizingMetric(result, opts.Metric)
	if err != nil {
		return nil, err
	}

	layout := opts.Layout
	if layout == nil {
		circular := NewCircularLayout(nil)
		if result.Communities != nil {
			circular.GroupBy(result.Communities.Labels)
		}
		layout = circular
	}
	positions, err := layout.ComputeLayout(result.Graph)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	var values []float64
	if scores, ok := result.Centrality[metric]; ok {
		values = scores.Values
	}
	minScore, maxScore := bounds(values)
	if maxScore == minScore {
		maxScore = minScore + 1 // Avoid division by zero
	}

	n := result.Graph.NodeCount()
	viz := &Visualization{
		Metric: metric,
		Nodes:  make([]NodeVisual, n),
		Edges:  make([]EdgeVisual, 0, len(result.EdgeAttributes)),
	}
	for i := 0; i < n; i++ {
		id := result.Graph.NodeAt(i)
		nv := NodeVisual{
			ID:        id,
			X:         positions[i].X,
			Y:         positions[i].Y,
			Size:      opts.MinSize,
			Color:     NoCommunityColor,
			Community: -1,
		}
		if values != nil {
			nv.Score = values[i]
			nv.Size = opts.MinSize + (values[i]-minScore)/(maxScore-minScore)*(opts.MaxSize-opts.MinSize)
		}
		if c, ok := result.Community(id); ok {
			nv.Community = c
			nv.Color = opts.Palette[c%len(opts.Palette)]
		}
		viz.Nodes[i] = nv
	}
	for _, ea := range result.EdgeAttributes {
		viz.Edges = append(viz.Edges, EdgeVisual{
			Source:        ea.Edge.Source,
			Target:        ea.Edge.Target,
			Weight:        ea.Edge.Weight,
			Directed:      ea.Edge.Directed,
			SameCommunity: ea.SameCommunity,
		})
	}
	return viz, nil
}

func sizingMetric(result *pipeline.AnalysisResult, metric string) (string, error) {
	if metric != "" {
		if _, ok := result.Centrality[metric]; !ok {
			return "", fmt.Errorf("%q: %w", metric, ErrMetricUnavailable)
		}
		return metric, nil
	}
	if _, ok := result.Centrality[algorithms.MetricPageRank]; ok {
		return algorithms.MetricPageRank, nil
	}
	if succeeded := result.Succeeded(); len(succeeded) > 0 {
		return succeeded[0], nil
	}
	return "", nil
}

func bounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	return slices.Min(values), slices.Max(values)
}

// ExportJSON exports the visualization to JSON
func (v *Visualization) ExportJSON() ([]byte, error) {
	return json.Marshal(v)
}

// WriteJSON writes the visualization as indented JSON.
func (v *Visualization) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
