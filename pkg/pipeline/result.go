package pipeline

import (
	"slices"
	"time"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// Stage names used for timings, errors, spans and metrics labels.
const (
	StageCommunities    = "communities"
	StageLinkPrediction = "link_prediction"
	StageStatistics     = "statistics"
	StageAttributes     = "attributes"
)

// Attribute keys set on every node besides the centrality metric names.
const (
	AttrCommunity  = "community"
	AttrClustering = "clustering"
)

// GraphView is a read-only snapshot of the analysed graph. Node order matches
// the dense indices of every CentralityScores.Values slice in the result.
type GraphView struct {
	nodes    []graph.NodeID
	edges    []graph.Edge
	index    map[graph.NodeID]int
	directed bool
	version  uint64
}

// NewGraphView snapshots g. The caller must keep g from changing during the
// call, for example by holding its run lock.
func NewGraphView(g *graph.Graph) *GraphView {
	nodes := g.Nodes()
	index := make(map[graph.NodeID]int, len(nodes))
	for i, id := range nodes {
		index[id] = i
	}
	return &GraphView{
		nodes:    nodes,
		edges:    g.Edges(),
		index:    index,
		directed: g.IsDirected(),
		version:  g.Version(),
	}
}

// Nodes returns the node IDs in dense index order.
func (v *GraphView) Nodes() []graph.NodeID { return slices.Clone(v.nodes) }

// Edges returns the edge records.
func (v *GraphView) Edges() []graph.Edge { return slices.Clone(v.edges) }

// NodeCount returns the number of nodes.
func (v *GraphView) NodeCount() int { return len(v.nodes) }

// EdgeCount returns the number of edges.
func (v *GraphView) EdgeCount() int { return len(v.edges) }

// NodeAt returns the node at dense index i.
func (v *GraphView) NodeAt(i int) graph.NodeID { return v.nodes[i] }

// IndexOf returns the dense index of id.
func (v *GraphView) IndexOf(id graph.NodeID) (int, bool) {
	i, ok := v.index[id]
	return i, ok
}

// IsDirected reports whether the snapshot holds a directed edge.
func (v *GraphView) IsDirected() bool { return v.directed }

// Version is the graph version the snapshot was taken at.
func (v *GraphView) Version() uint64 { return v.version }

// Attributes are the numeric values attached to one node, keyed by metric
// name, AttrCommunity or AttrClustering.
type Attributes map[string]float64

// EdgeAttributes are the values attached to one edge.
type EdgeAttributes struct {
	Edge          graph.Edge
	SameCommunity bool
	Community     int // -1 for edges between communities
}

// AnalysisResult is the output of one orchestrator run. It is never modified
// after Run returns and may be shared between goroutines.
type AnalysisResult struct {
	RunID     string
	GraphHash uint64
	Graph     *GraphView
	StartedAt time.Time

	Metrics        []string // requested metrics in order
	Centrality     map[string]*algorithms.CentralityScores
	Communities    *algorithms.CommunityAssignment
	Links          *algorithms.LinkPredictionResult
	Statistics     *algorithms.GraphStatistics
	NodeAttributes map[graph.NodeID]Attributes
	EdgeAttributes []EdgeAttributes

	// Errors holds stages that failed without aborting the run, keyed by
	// metric or stage name.
	Errors   map[string]error
	Warnings []error
	Timings  map[string]time.Duration
	Duration time.Duration

	// Partial is set when the run was cancelled before every stage finished.
	Partial bool
}

// Score returns the score of id under metric.
func (r *AnalysisResult) Score(metric string, id graph.NodeID) (float64, bool) {
	scores, ok := r.Centrality[metric]
	if !ok {
		return 0, false
	}
	v, ok := scores.Scores[id]
	return v, ok
}

// Community returns the community id of id.
func (r *AnalysisResult) Community(id graph.NodeID) (int, bool) {
	if r.Communities == nil {
		return 0, false
	}
	c, ok := r.Communities.Communities[id]
	return c, ok
}

// Err returns the error recorded for a metric or stage.
func (r *AnalysisResult) Err(name string) error {
	return r.Errors[name]
}

// Succeeded lists the requested metrics that produced scores, in request
// order.
func (r *AnalysisResult) Succeeded() []string {
	var out []string
	for _, m := range r.Metrics {
		if _, ok := r.Centrality[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// attach builds the node and edge attributes from the finished stages.
func (r *AnalysisResult) attach(clustering map[graph.NodeID]float64) {
	r.NodeAttributes = make(map[graph.NodeID]Attributes, r.Graph.NodeCount())
	for _, id := range r.Graph.nodes {
		attrs := make(Attributes, len(r.Centrality)+2)
		for metric, scores := range r.Centrality {
			attrs[metric] = scores.Scores[id]
		}
		if c, ok := r.Community(id); ok {
			attrs[AttrCommunity] = float64(c)
		}
		if clustering != nil {
			attrs[AttrClustering] = clustering[id]
		}
		r.NodeAttributes[id] = attrs
	}

	r.EdgeAttributes = make([]EdgeAttributes, len(r.Graph.edges))
	for i, e := range r.Graph.edges {
		ea := EdgeAttributes{Edge: e, Community: -1}
		cu, okU := r.Community(e.Source)
		cv, okV := r.Community(e.Target)
		if okU && okV && cu == cv {
			ea.SameCommunity = true
			ea.Community = cu
		}
		r.EdgeAttributes[i] = ea
	}
}
