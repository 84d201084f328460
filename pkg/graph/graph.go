// Package graph is the in-memory graph store used by the analytics engine.
//
// Nodes are addressed externally by NodeID and internally by a dense integer
// index assigned at insertion. Algorithms iterate the dense adjacency lists
// directly, so no hashing happens inside their hot loops.
//
// Mutations take the write lock and the NodeID lookups take the read lock.
// An analysis run holds the read lock for its whole duration (see BeginRun),
// so the dense accessors are lock-free and the graph cannot change underneath
// a running algorithm. Code holding BeginRun must use the dense accessors
// only.
package graph

import (
	"iter"
	"math"
	"sync"
	"sync/atomic"
)

// Graph is a weighted graph whose edges may individually be directed or
// undirected.
type Graph struct {
	mu   sync.RWMutex
	opts Options

	ids   []NodeID
	index map[NodeID]int

	out [][]Arc
	in  [][]Arc

	edges []Edge
	slots map[pairKey]int // -> position in edges

	degree         []int
	weightedDegree []float64
	selfLoopDegree []int
	selfLoopWeight []float64
	directedEdges  int

	version atomic.Uint64
	hash    atomic.Uint64

	hooksMu sync.Mutex
	hooks   []func(Mutation)
}

// New creates an empty graph.
func New(opts Options) *Graph {
	return &Graph{
		opts:  opts,
		index: make(map[NodeID]int),
		slots: make(map[pairKey]int),
	}
}

// BeginRun marks the start of an analysis pass. Mutations block until the
// returned release function is called. Release is idempotent.
func (g *Graph) BeginRun() (release func()) {
	g.mu.RLock()
	return sync.OnceFunc(g.mu.RUnlock)
}

// OnMutate registers a hook invoked after every successful mutation.
func (g *Graph) OnMutate(hook func(Mutation)) {
	g.hooksMu.Lock()
	defer g.hooksMu.Unlock()
	g.hooks = append(g.hooks, hook)
}

func (g *Graph) notify(kind MutationKind, previousHash uint64) {
	g.hooksMu.Lock()
	hooks := make([]func(Mutation), len(g.hooks))
	copy(hooks, g.hooks)
	g.hooksMu.Unlock()

	m := Mutation{Kind: kind, Version: g.version.Load(), PreviousHash: previousHash}
	for _, hook := range hooks {
		hook(m)
	}
}

// Version returns a counter incremented by every mutation.
func (g *Graph) Version() uint64 {
	return g.version.Load()
}

// ContentHash returns an order-independent hash of the node set and the edge
// records (endpoints, directedness and weight).
func (g *Graph) ContentHash() uint64 {
	return g.hash.Load()
}

// AddNode adds a node and returns its dense index. Adding an existing node
// returns its index without changing the graph.
func (g *Graph) AddNode(id NodeID) (int, error) {
	if id == "" {
		return -1, NewError("AddNode").Node(id).Cause(ErrEmptyNodeID).Err()
	}

	g.mu.Lock()
	if idx, ok := g.index[id]; ok {
		g.mu.Unlock()
		return idx, nil
	}
	prev := g.hash.Load()
	idx := g.addNodeLocked(id)
	g.version.Add(1)
	g.mu.Unlock()

	g.notify(MutationAddNode, prev)
	return idx, nil
}

func (g *Graph) addNodeLocked(id NodeID) int {
	idx := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = idx
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.degree = append(g.degree, 0)
	g.weightedDegree = append(g.weightedDegree, 0)
	g.selfLoopDegree = append(g.selfLoopDegree, 0)
	g.selfLoopWeight = append(g.selfLoopWeight, 0)
	g.hash.Add(nodeHash(id))
	return idx
}

// AddEdge adds an edge between u and v. It fails with ErrDuplicateEdge if the
// pair is already connected (unless UpdateWeight is given), with
// ErrUnknownNode if an endpoint is missing and auto-creation is disabled, and
// with ErrInvalidWeight for negative or non-finite weights.
func (g *Graph) AddEdge(u, v NodeID, weight float64, directed bool, opts ...EdgeOption) error {
	var cfg edgeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return NewError("AddEdge").Edge(u, v).Cause(ErrInvalidWeight).Err()
	}

	g.mu.Lock()
	prev := g.hash.Load()

	ui, uok := g.index[u]
	vi, vok := g.index[v]
	if !g.opts.AutoCreateNodes {
		if !uok {
			g.mu.Unlock()
			return UnknownNodeError("AddEdge", u)
		}
		if !vok {
			g.mu.Unlock()
			return UnknownNodeError("AddEdge", v)
		}
	}
	if u == "" || v == "" {
		g.mu.Unlock()
		return NewError("AddEdge").Edge(u, v).Cause(ErrEmptyNodeID).Err()
	}

	if pos, found := g.findSlotLocked(ui, vi, uok && vok, directed); found {
		existing := g.edges[pos]
		if !cfg.updateWeight || existing.Directed != directed {
			g.mu.Unlock()
			return DuplicateEdgeError(u, v)
		}
		g.updateWeightLocked(pos, weight)
		g.version.Add(1)
		g.mu.Unlock()
		g.notify(MutationUpdateWeight, prev)
		return nil
	}

	if !uok {
		ui = g.addNodeLocked(u)
	}
	if u == v {
		vi = ui
	} else if !vok {
		vi = g.addNodeLocked(v)
	}
	g.insertEdgeLocked(ui, vi, weight, directed)
	g.version.Add(1)
	g.mu.Unlock()

	g.notify(MutationAddEdge, prev)
	return nil
}

// findSlotLocked returns the position of any edge conflicting with (u, v).
func (g *Graph) findSlotLocked(u, v int, known, directed bool) (int, bool) {
	if !known {
		return 0, false
	}
	a, b := u, v
	if a > b {
		a, b = b, a
	}
	if pos, ok := g.slots[pairKey{a: a, b: b}]; ok {
		return pos, true
	}
	if pos, ok := g.slots[pairKey{a: u, b: v, directed: true}]; ok {
		return pos, true
	}
	if !directed {
		if pos, ok := g.slots[pairKey{a: v, b: u, directed: true}]; ok {
			return pos, true
		}
	}
	return 0, false
}

func slotFor(u, v int, directed bool) pairKey {
	if directed {
		return pairKey{a: u, b: v, directed: true}
	}
	if u > v {
		u, v = v, u
	}
	return pairKey{a: u, b: v}
}

func (g *Graph) insertEdgeLocked(u, v int, weight float64, directed bool) {
	e := Edge{Source: g.ids[u], Target: g.ids[v], Weight: weight, Directed: directed}
	g.slots[slotFor(u, v, directed)] = len(g.edges)
	g.edges = append(g.edges, e)
	g.hash.Add(edgeHash(e))

	if directed {
		g.directedEdges++
		g.out[u] = append(g.out[u], Arc{To: v, Weight: weight, Directed: true})
		g.in[v] = append(g.in[v], Arc{To: u, Weight: weight, Directed: true})
	} else {
		g.out[u] = append(g.out[u], Arc{To: v, Weight: weight})
		g.in[u] = append(g.in[u], Arc{To: v, Weight: weight})
		if u != v {
			g.out[v] = append(g.out[v], Arc{To: u, Weight: weight})
			g.in[v] = append(g.in[v], Arc{To: u, Weight: weight})
		}
	}

	g.degree[u]++
	g.degree[v]++
	g.weightedDegree[u] += weight
	g.weightedDegree[v] += weight
	if u == v {
		g.selfLoopDegree[u] += 2
		g.selfLoopWeight[u] += 2 * weight
	}
}

func (g *Graph) updateWeightLocked(pos int, weight float64) {
	e := g.edges[pos]
	u, v := g.index[e.Source], g.index[e.Target]
	delta := weight - e.Weight

	g.hash.Add(-edgeHash(e))
	e.Weight = weight
	g.edges[pos] = e
	g.hash.Add(edgeHash(e))

	setArcWeight(g.out[u], v, e.Directed, weight)
	setArcWeight(g.in[v], u, e.Directed, weight)
	if !e.Directed {
		setArcWeight(g.out[v], u, false, weight)
		setArcWeight(g.in[u], v, false, weight)
	}

	g.weightedDegree[u] += delta
	g.weightedDegree[v] += delta
	if u == v {
		g.selfLoopWeight[u] += 2 * delta
	}
}

func setArcWeight(arcs []Arc, to int, directed bool, weight float64) {
	for i := range arcs {
		if arcs[i].To == to && arcs[i].Directed == directed {
			arcs[i].Weight = weight
			return
		}
	}
}

// RemoveEdge removes the edge u->v (directed) or {u,v} (undirected).
// Dense indices are unchanged.
func (g *Graph) RemoveEdge(u, v NodeID) error {
	g.mu.Lock()
	prev := g.hash.Load()

	ui, uok := g.index[u]
	vi, vok := g.index[v]
	if !uok || !vok {
		g.mu.Unlock()
		return NewError("RemoveEdge").Edge(u, v).Cause(ErrEdgeNotFound).Err()
	}
	pos, ok := g.slots[slotFor(ui, vi, true)]
	if !ok {
		pos, ok = g.slots[slotFor(ui, vi, false)]
	}
	if !ok {
		g.mu.Unlock()
		return NewError("RemoveEdge").Edge(u, v).Cause(ErrEdgeNotFound).Err()
	}

	edges := make([]Edge, 0, len(g.edges)-1)
	edges = append(edges, g.edges[:pos]...)
	edges = append(edges, g.edges[pos+1:]...)
	g.rebuildLocked(g.ids, edges)
	g.version.Add(1)
	g.mu.Unlock()

	g.notify(MutationRemoveEdge, prev)
	return nil
}

// RemoveNode removes a node and its incident edges. Dense indices of later
// nodes shift down by one; relative order is preserved.
func (g *Graph) RemoveNode(id NodeID) error {
	g.mu.Lock()
	prev := g.hash.Load()

	idx, ok := g.index[id]
	if !ok {
		g.mu.Unlock()
		return UnknownNodeError("RemoveNode", id)
	}

	ids := make([]NodeID, 0, len(g.ids)-1)
	ids = append(ids, g.ids[:idx]...)
	ids = append(ids, g.ids[idx+1:]...)

	edges := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	g.rebuildLocked(ids, edges)
	g.version.Add(1)
	g.mu.Unlock()

	g.notify(MutationRemoveNode, prev)
	return nil
}

func (g *Graph) rebuildLocked(ids []NodeID, edges []Edge) {
	g.ids = nil
	g.index = make(map[NodeID]int, len(ids))
	g.out, g.in = nil, nil
	g.edges = nil
	g.slots = make(map[pairKey]int, len(edges))
	g.degree, g.weightedDegree = nil, nil
	g.selfLoopDegree, g.selfLoopWeight = nil, nil
	g.directedEdges = 0
	g.hash.Store(0)

	for _, id := range ids {
		g.addNodeLocked(id)
	}
	for _, e := range edges {
		g.insertEdgeLocked(g.index[e.Source], g.index[e.Target], e.Weight, e.Directed)
	}
}

// Neighbors returns a lazy, restartable sequence of the out-neighbours of id
// (all incident neighbours for undirected edges). Each iteration reads the
// current adjacency under the read lock and yields nothing once id has been
// removed.
func (g *Graph) Neighbors(id NodeID) (iter.Seq[NodeID], error) {
	if !g.HasNode(id) {
		return nil, UnknownNodeError("Neighbors", id)
	}
	return func(yield func(NodeID) bool) {
		for _, n := range g.neighborIDs(id) {
			if !yield(n) {
				return
			}
		}
	}, nil
}

func (g *Graph) neighborIDs(id NodeID) []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]NodeID, len(g.out[idx]))
	for i, arc := range g.out[idx] {
		out[i] = g.ids[arc.To]
	}
	return out
}

// Degree returns the number of incident edge endpoints of id. A self-loop
// counts twice.
func (g *Graph) Degree(id NodeID) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.index[id]
	if !ok {
		return 0, UnknownNodeError("Degree", id)
	}
	return g.degree[idx], nil
}

// WeightedDegree returns the sum of incident edge weights of id.
func (g *Graph) WeightedDegree(id NodeID) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	idx, ok := g.index[id]
	if !ok {
		return 0, UnknownNodeError("WeightedDegree", id)
	}
	return g.weightedDegree[idx], nil
}

// HasNode reports whether id was added.
func (g *Graph) HasNode(id NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.index[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.ids) }

// EdgeCount returns the number of edge records.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// IsDirected reports whether the graph holds at least one directed edge.
func (g *Graph) IsDirected() bool { return g.directedEdges > 0 }

// NodeAt returns the external ID of dense index i.
func (g *Graph) NodeAt(i int) NodeID { return g.ids[i] }

// IndexOf returns the dense index of id. Like the other dense accessors it
// takes no lock and is meant for callers holding BeginRun.
func (g *Graph) IndexOf(id NodeID) (int, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

// Nodes returns the node IDs in dense index order.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, len(g.ids))
	copy(out, g.ids)
	return out
}

// Edges returns the edge records in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Out returns the outgoing arcs of dense index i. The slice must not be modified.
func (g *Graph) Out(i int) []Arc { return g.out[i] }

// In returns the incoming arcs of dense index i. The slice must not be modified.
func (g *Graph) In(i int) []Arc { return g.in[i] }

// DegreeAt returns the degree of dense index i.
func (g *Graph) DegreeAt(i int) int { return g.degree[i] }

// WeightedDegreeAt returns the weighted degree of dense index i.
func (g *Graph) WeightedDegreeAt(i int) float64 { return g.weightedDegree[i] }

// SelfLoopDegreeAt returns the part of DegreeAt contributed by self-loops.
func (g *Graph) SelfLoopDegreeAt(i int) int { return g.selfLoopDegree[i] }

// SelfLoopWeightAt returns the part of WeightedDegreeAt contributed by self-loops.
func (g *Graph) SelfLoopWeightAt(i int) float64 { return g.selfLoopWeight[i] }

// Connected reports whether any edge joins dense indices i and j, in either
// direction.
func (g *Graph) Connected(i, j int) bool {
	if _, ok := g.slots[slotFor(i, j, false)]; ok {
		return true
	}
	if _, ok := g.slots[slotFor(i, j, true)]; ok {
		return true
	}
	_, ok := g.slots[slotFor(j, i, true)]
	return ok
}
