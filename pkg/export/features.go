package export

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// ErrNoFeatures is returned when no column can be built.
var ErrNoFeatures = errors.New("no feature columns")

// FeatureOptions selects the feature columns.
type FeatureOptions struct {
	Metrics []string // nil takes every metric that produced scores

	Community   bool // community id as a numeric column
	OneHot      bool // one column per community, 1 for members
	Clustering  bool
	Standardize bool // scale metric columns to zero mean and unit variance
}

// DefaultFeatureOptions returns every metric plus community and clustering
// columns.
func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{Community: true, Clustering: true}
}

// FeatureMatrix is a node-by-feature matrix. Row i belongs to Nodes[i].
type FeatureMatrix struct {
	Nodes   []graph.NodeID
	Columns []string
	Data    *mat.Dense
}

// Column returns a copy of the named column.
func (f *FeatureMatrix) Column(name string) ([]float64, bool) {
	for j, c := range f.Columns {
		if c == name {
			return mat.Col(nil, j, f.Data), true
		}
	}
	return nil, false
}

// Features builds the feature matrix of result with one row per node in
// dense index order.
func Features(result *pipeline.AnalysisResult, opts FeatureOptions) (*FeatureMatrix, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = result.Succeeded()
	}

	var (
		columns []string
		values  [][]float64
	)
	for _, m := range metrics {
		scores, ok := result.Centrality[m]
		if !ok {
			return nil, fmt.Errorf("metric %q has no scores", m)
		}
		col := append([]float64(nil), scores.Values...)
		if opts.Standardize {
			standardize(col)
		}
		columns = append(columns, m)
		values = append(values, col)
	}

	n := result.Graph.NodeCount()
	if labels := communityLabels(result); labels != nil {
		if opts.Community {
			col := make([]float64, n)
			for i, c := range labels {
				col[i] = float64(c)
			}
			columns = append(columns, pipeline.AttrCommunity)
			values = append(values, col)
		}
		if opts.OneHot {
			for c := 0; c < result.Communities.Count; c++ {
				col := make([]float64, n)
				for i, l := range labels {
					if l == c {
						col[i] = 1
					}
				}
				columns = append(columns, fmt.Sprintf("%s_%d", pipeline.AttrCommunity, c))
				values = append(values, col)
			}
		}
	}

	if opts.Clustering {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = result.NodeAttributes[result.Graph.NodeAt(i)][pipeline.AttrClustering]
		}
		columns = append(columns, pipeline.AttrClustering)
		values = append(values, col)
	}

	if len(columns) == 0 || n == 0 {
		return nil, ErrNoFeatures
	}

	data := mat.NewDense(n, len(columns), nil)
	for j, col := range values {
		data.SetCol(j, col)
	}
	return &FeatureMatrix{
		Nodes:   result.Graph.Nodes(),
		Columns: columns,
		Data:    data,
	}, nil
}

func communityLabels(result *pipeline.AnalysisResult) []int {
	if result.Communities == nil || len(result.Communities.Labels) != result.Graph.NodeCount() {
		return nil
	}
	return result.Communities.Labels
}

// standardize rescales x in place. Constant columns become zero.
func standardize(x []float64) {
	if len(x) == 0 {
		return
	}
	mean, std := stat.MeanStdDev(x, nil)
	for i := range x {
		if std > 0 {
			x[i] = (x[i] - mean) / std
		} else {
			x[i] = 0
		}
	}
}
