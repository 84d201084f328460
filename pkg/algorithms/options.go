package algorithms

import (
	"runtime"

	"github.com/dd0wney/cluso-analytics/pkg/partition"
)

// Built-in centrality metric names.
const (
	MetricDegree      = "degree"
	MetricCloseness   = "closeness"
	MetricBetweenness = "betweenness"
	MetricPageRank    = "pagerank"
	MetricEigenvector = "eigenvector"
)

// BuiltinMetrics lists the built-in centrality metrics in evaluation order.
var BuiltinMetrics = []string{MetricDegree, MetricCloseness, MetricBetweenness, MetricPageRank, MetricEigenvector}

// CentralityOptions configures the centrality engine.
type CentralityOptions struct {
	Weighted         bool
	IncludeSelfLoops bool
	Workers          int // 0 = runtime.NumCPU()

	// Partitioner splits source nodes into shards for per-source passes.
	// nil uses contiguous ranges.
	Partitioner func(shards, n int) partition.Strategy

	Damping       float64 // PageRank, usually 0.85
	Tolerance     float64 // convergence threshold
	MaxIterations int     // cap for PageRank and eigenvector
}

// DefaultCentralityOptions returns default centrality configuration
func DefaultCentralityOptions() CentralityOptions {
	return CentralityOptions{
		Damping:       0.85,
		Tolerance:     1e-6,
		MaxIterations: 100,
	}
}

func (o CentralityOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// shards assigns n source indices to worker shards.
func (o CentralityOptions) shards(n int) [][]int {
	w := min(o.workers(), max(n, 1))
	var s partition.Strategy
	if o.Partitioner != nil {
		s = o.Partitioner(w, n)
	} else {
		s = partition.NewRangePartition(w, n)
	}
	return partition.Assign(s, n)
}

// CommunityAlgorithm selects the community detection method.
type CommunityAlgorithm string

const (
	Louvain          CommunityAlgorithm = "louvain"
	LabelPropagation CommunityAlgorithm = "labelProp"
	GirvanNewman     CommunityAlgorithm = "girvanNewman"
	Components       CommunityAlgorithm = "components"
)

// CommunityOptions configures community detection.
type CommunityOptions struct {
	Algorithm         CommunityAlgorithm
	Weighted          bool
	IncludeSelfLoops  bool
	Resolution        float64 // modularity resolution, gamma
	MinModularityGain float64 // Louvain stops when a level gains less
	MaxPasses         int     // Louvain local-move passes per level
	MaxLevels         int     // Louvain levels, Girvan-Newman splits
	LabelPropRounds   int
}

// DefaultCommunityOptions returns default community detection configuration
func DefaultCommunityOptions() CommunityOptions {
	return CommunityOptions{
		Algorithm:         Louvain,
		Resolution:        1.0,
		MinModularityGain: 1e-7,
		MaxPasses:         100,
		MaxLevels:         32,
		LabelPropRounds:   100,
	}
}
