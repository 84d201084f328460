package algorithms

import (
	"container/heap"
	"math"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// traversal holds the per-source state of a single-source shortest path
// search. One traversal is owned by one worker and reused across sources.
type traversal struct {
	g          *graph.Graph
	weighted   bool
	trackPaths bool

	dist  []float64 // +Inf when unreached
	sigma []float64 // number of shortest paths from the source
	preds [][]int   // predecessors on shortest paths
	order []int     // nodes in non-decreasing distance order

	queue []int
	pq    distHeap
	seen  []float64
}

func newTraversal(g *graph.Graph, weighted, trackPaths bool) *traversal {
	n := g.NodeCount()
	t := &traversal{
		g:          g,
		weighted:   weighted,
		trackPaths: trackPaths,
		dist:       make([]float64, n),
		order:      make([]int, 0, n),
	}
	if trackPaths {
		t.sigma = make([]float64, n)
		t.preds = make([][]int, n)
	}
	if weighted {
		t.seen = make([]float64, n)
	}
	return t
}

// run computes shortest paths from source over out-arcs.
func (t *traversal) run(source int) {
	for i := range t.dist {
		t.dist[i] = math.Inf(1)
	}
	if t.trackPaths {
		for i := range t.sigma {
			t.sigma[i] = 0
			t.preds[i] = t.preds[i][:0]
		}
	}
	t.order = t.order[:0]

	if t.weighted {
		t.dijkstra(source)
	} else {
		t.bfs(source)
	}
}

func (t *traversal) bfs(source int) {
	t.dist[source] = 0
	if t.trackPaths {
		t.sigma[source] = 1
	}
	t.queue = append(t.queue[:0], source)

	for head := 0; head < len(t.queue); head++ {
		v := t.queue[head]
		t.order = append(t.order, v)
		for _, arc := range t.g.Out(v) {
			w := arc.To
			if math.IsInf(t.dist[w], 1) {
				t.dist[w] = t.dist[v] + 1
				t.queue = append(t.queue, w)
			}
			if t.trackPaths && t.dist[w] == t.dist[v]+1 {
				t.sigma[w] += t.sigma[v]
				t.preds[w] = append(t.preds[w], v)
			}
		}
	}
}

// dijkstra settles nodes in distance order. Path counts are propagated when a
// node is settled so that zero-weight arcs are counted once.
func (t *traversal) dijkstra(source int) {
	for i := range t.seen {
		t.seen[i] = math.Inf(1)
	}
	t.pq = t.pq[:0]
	t.seen[source] = 0
	if t.trackPaths {
		t.sigma[source] = 1
	}
	seq := 0
	heap.Push(&t.pq, distItem{node: source, pred: -1, dist: 0, seq: seq})

	for t.pq.Len() > 0 {
		item := heap.Pop(&t.pq).(distItem)
		v := item.node
		if !math.IsInf(t.dist[v], 1) {
			continue
		}
		if t.trackPaths && item.pred >= 0 {
			t.sigma[v] += t.sigma[item.pred]
		}
		t.dist[v] = item.dist
		t.order = append(t.order, v)

		for _, arc := range t.g.Out(v) {
			w := arc.To
			d := item.dist + arc.Weight
			if math.IsInf(t.dist[w], 1) && d < t.seen[w] {
				t.seen[w] = d
				seq++
				heap.Push(&t.pq, distItem{node: w, pred: v, dist: d, seq: seq})
				if t.trackPaths {
					t.sigma[w] = 0
					t.preds[w] = append(t.preds[w][:0], v)
				}
			} else if t.trackPaths && d == t.seen[w] && w != v && math.IsInf(t.dist[w], 1) {
				t.sigma[w] += t.sigma[v]
				t.preds[w] = append(t.preds[w], v)
			}
		}
	}
}

// distItem is a priority queue entry. seq breaks ties in insertion order.
type distItem struct {
	node int
	pred int
	dist float64
	seq  int
}

// distHeap implements a min-heap of distItem by distance.
type distHeap []distItem

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].seq < h[j].seq
}
func (h distHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *distHeap) Push(x any) {
	*h = append(*h, x.(distItem))
}

func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// ShortestPathLength returns the number of hops (or the total weight when
// weighted) of a shortest path from source to target following out-arcs.
// It returns false when target is unreachable.
func ShortestPathLength(g *graph.Graph, source, target graph.NodeID, weighted bool) (float64, bool, error) {
	s, ok := g.IndexOf(source)
	if !ok {
		return 0, false, graph.UnknownNodeError("ShortestPathLength", source)
	}
	d, ok := g.IndexOf(target)
	if !ok {
		return 0, false, graph.UnknownNodeError("ShortestPathLength", target)
	}
	t := newTraversal(g, weighted, false)
	t.run(s)
	if math.IsInf(t.dist[d], 1) {
		return 0, false, nil
	}
	return t.dist[d], true, nil
}

// ShortestPath returns the nodes of one shortest path from source to target
// following out-arcs, both ends included. Among equal-length paths it follows
// the first predecessor found. It returns false when target is unreachable.
func ShortestPath(g *graph.Graph, source, target graph.NodeID, weighted bool) ([]graph.NodeID, bool, error) {
	s, ok := g.IndexOf(source)
	if !ok {
		return nil, false, graph.UnknownNodeError("ShortestPath", source)
	}
	d, ok := g.IndexOf(target)
	if !ok {
		return nil, false, graph.UnknownNodeError("ShortestPath", target)
	}
	t := newTraversal(g, weighted, true)
	t.run(s)
	if math.IsInf(t.dist[d], 1) {
		return nil, false, nil
	}

	path := []graph.NodeID{g.NodeAt(d)}
	for v := d; v != s; {
		v = t.preds[v][0]
		path = append(path, g.NodeAt(v))
	}
	slices.Reverse(path)
	return path, true, nil
}
