package algorithms

import (
	"container/heap"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// RankedNode represents a node with its score
type RankedNode struct {
	Node  graph.NodeID `json:"node"`
	Index int          `json:"-"`
	Score float64      `json:"score"`
}

// rankedNodeHeap implements a min-heap for RankedNode by score.
// The root is the weakest entry: lowest score, then highest index.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopNodes returns the k highest-scoring nodes in descending score order.
// Equal scores are ordered by ascending internal index.
// Time complexity: O(n log k)
func TopNodes(g *graph.Graph, scores *CentralityScores, k int) []RankedNode {
	if k <= 0 || scores == nil {
		return nil
	}

	h := make(rankedNodeHeap, 0, k)
	for i, score := range scores.Values {
		rn := RankedNode{Node: g.NodeAt(i), Index: i, Score: score}
		if h.Len() < k {
			heap.Push(&h, rn)
		} else if score > h[0].Score {
			// Ties never displace the root since its index is lower than i
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	// Extract elements from heap (weakest first)
	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}
	return result
}
