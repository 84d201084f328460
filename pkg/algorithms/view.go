package algorithms

import (
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// weightedNbr is one entry of a symmetric adjacency list.
type weightedNbr struct {
	to int
	w  float64
}

// undirectedView is the symmetrised weighted adjacency used by modularity
// and community detection. Opposite directed arcs between the same pair are
// merged by summing their weights. Self-loops are kept apart from nbrs.
type undirectedView struct {
	nbrs     [][]weightedNbr // sorted by to, never contains i itself
	selfLoop []float64
	strength []float64 // sum of nbr weights plus twice the self-loop
	total    float64   // sum of strengths, 2m
}

// symmetricArcs calls fn for each arc of i in the symmetric view: every out
// arc plus directed in arcs. Directed self-loops are reported once.
func symmetricArcs(g *graph.Graph, i int, fn func(graph.Arc)) {
	for _, arc := range g.Out(i) {
		fn(arc)
	}
	for _, arc := range g.In(i) {
		if arc.Directed && arc.To != i {
			fn(arc)
		}
	}
}

func newUndirectedView(g *graph.Graph, weighted, includeSelfLoops bool) *undirectedView {
	n := g.NodeCount()
	v := &undirectedView{
		nbrs:     make([][]weightedNbr, n),
		selfLoop: make([]float64, n),
		strength: make([]float64, n),
	}

	pos := make([]int, n)
	for i := range pos {
		pos[i] = -1
	}

	for i := 0; i < n; i++ {
		var list []weightedNbr
		symmetricArcs(g, i, func(arc graph.Arc) {
			w := 1.0
			if weighted {
				w = arc.Weight
			}
			if arc.To == i {
				if includeSelfLoops {
					v.selfLoop[i] += w
				}
				return
			}
			if p := pos[arc.To]; p >= 0 {
				list[p].w += w
				return
			}
			pos[arc.To] = len(list)
			list = append(list, weightedNbr{to: arc.To, w: w})
		})
		for _, nb := range list {
			pos[nb.to] = -1
		}
		slices.SortFunc(list, func(a, b weightedNbr) int { return a.to - b.to })
		v.nbrs[i] = list
	}

	v.recompute()
	return v
}

func (v *undirectedView) recompute() {
	v.total = 0
	for i := range v.nbrs {
		s := 2 * v.selfLoop[i]
		for _, nb := range v.nbrs[i] {
			s += nb.w
		}
		v.strength[i] = s
		v.total += s
	}
}

func (v *undirectedView) size() int { return len(v.nbrs) }

// neighborSets returns, for each node, its distinct neighbours in the
// symmetric view in ascending order, self excluded.
func neighborSets(g *graph.Graph) [][]int {
	n := g.NodeCount()
	sets := make([][]int, n)
	seen := make([]int, n)
	for i := range seen {
		seen[i] = -1
	}
	for i := 0; i < n; i++ {
		var list []int
		symmetricArcs(g, i, func(arc graph.Arc) {
			if arc.To == i || seen[arc.To] == i {
				return
			}
			seen[arc.To] = i
			list = append(list, arc.To)
		})
		slices.Sort(list)
		sets[i] = list
	}
	return sets
}

// intersectSorted calls fn for each element common to two ascending slices.
func intersectSorted(a, b []int, fn func(int)) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			fn(a[i])
			i++
			j++
		}
	}
}

// weakComponents labels the connected components of a symmetric adjacency,
// numbering them by their lowest node index.
func weakComponents(nbrs [][]int) ([]int, int) {
	n := len(nbrs)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	count := 0
	queue := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if labels[start] >= 0 {
			continue
		}
		labels[start] = count
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range nbrs[v] {
				if labels[w] < 0 {
					labels[w] = count
					queue = append(queue, w)
				}
			}
		}
		count++
	}
	return labels, count
}

// renumber relabels communities 0..k-1 by first appearance in ascending
// index order and returns k.
func renumber(labels []int) int {
	mapping := make(map[int]int)
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		labels[i] = id
	}
	return len(mapping)
}
