package graph

// NodeID is the external, opaque identifier of a node.
type NodeID string

// Edge is an edge record as supplied by the caller.
type Edge struct {
	Source   NodeID  `json:"source" yaml:"source"`
	Target   NodeID  `json:"target" yaml:"target"`
	Weight   float64 `json:"weight" yaml:"weight"`
	Directed bool    `json:"directed" yaml:"directed"`
}

// Arc is one adjacency entry keyed by dense index. Undirected edges appear as
// an arc in both endpoints' out and in lists with Directed=false.
type Arc struct {
	To       int
	Weight   float64
	Directed bool
}

// Options configures a Graph.
type Options struct {
	// AutoCreateNodes adds unknown endpoints on AddEdge instead of failing
	// with ErrUnknownNode.
	AutoCreateNodes bool
}

// DefaultOptions returns the options used by loaders.
func DefaultOptions() Options {
	return Options{AutoCreateNodes: true}
}

// MutationKind identifies the kind of change applied to a graph.
type MutationKind int

const (
	MutationAddNode MutationKind = iota
	MutationAddEdge
	MutationUpdateWeight
	MutationRemoveEdge
	MutationRemoveNode
)

// String returns the name of the mutation kind.
func (k MutationKind) String() string {
	switch k {
	case MutationAddNode:
		return "add_node"
	case MutationAddEdge:
		return "add_edge"
	case MutationUpdateWeight:
		return "update_weight"
	case MutationRemoveEdge:
		return "remove_edge"
	case MutationRemoveNode:
		return "remove_node"
	default:
		return "unknown"
	}
}

// Mutation describes a change delivered to OnMutate hooks. PreviousHash is
// the content hash of the graph before the change.
type Mutation struct {
	Kind         MutationKind
	Version      uint64
	PreviousHash uint64
}

// EdgeOption modifies AddEdge behaviour.
type EdgeOption func(*edgeConfig)

type edgeConfig struct {
	updateWeight bool
}

// UpdateWeight makes AddEdge replace the weight of an existing edge instead
// of failing with ErrDuplicateEdge.
func UpdateWeight() EdgeOption {
	return func(c *edgeConfig) { c.updateWeight = true }
}

// pairKey identifies an edge slot. Undirected edges use the ordered pair
// (min, max) with directed=false.
type pairKey struct {
	a, b     int
	directed bool
}
