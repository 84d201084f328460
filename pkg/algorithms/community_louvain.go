package algorithms

import (
	"context"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// gainEpsilon is the margin a move must beat staying by.
const gainEpsilon = 1e-12

// LouvainCommunities detects communities with the Louvain method on the
// symmetrised graph.
//
// Each level runs local-move passes in ascending node order, moving a node
// only when the modularity gain strictly beats staying, with ties going to
// the lowest community id. The level's communities are then collapsed into
// meta-nodes, intra-community weight becoming a self-loop. Levels stop when
// the gain falls below MinModularityGain, the graph stops shrinking, or
// MaxLevels is reached.
func LouvainCommunities(ctx context.Context, g *graph.Graph, opts CommunityOptions) (*CommunityAssignment, error) {
	view := newUndirectedView(g, opts.Weighted, opts.IncludeSelfLoops)
	gamma := resolution(opts)
	n := view.size()

	// meta maps each original node to its node in the current level graph
	meta := make([]int, n)
	for i := range meta {
		meta[i] = i
	}
	labels := slices.Clone(meta)
	prevQ := view.modularity(labels, gamma)

	var levels []CommunityLevel
	passes := 0
	current := view
	for level := 0; level < max(opts.MaxLevels, 1); level++ {
		local, k, moves, p, err := louvainLevel(ctx, current, gamma, max(opts.MaxPasses, 1))
		passes += p
		if err != nil {
			return nil, cancelled(string(Louvain), err)
		}
		if moves == 0 {
			break
		}

		for i, m := range meta {
			meta[i] = local[m]
		}
		labels = slices.Clone(meta)
		renumber(labels)
		q := view.modularity(labels, gamma)
		levels = append(levels, CommunityLevel{
			Labels:     slices.Clone(labels),
			Count:      k,
			Modularity: q,
			Gain:       q - prevQ,
			Moves:      moves,
		})
		gain := q - prevQ
		prevQ = q

		if gain < opts.MinModularityGain || k == current.size() {
			break
		}
		current = current.aggregate(local, k)
	}

	if len(levels) == 0 {
		levels = append(levels, CommunityLevel{Labels: slices.Clone(labels), Count: n, Modularity: prevQ})
	}

	result := newAssignment(g, Louvain, labels, prevQ)
	result.Levels = levels
	result.Iterations = passes
	return result, nil
}

// louvainLevel runs local-move passes on v. It returns the community of each
// node of v renumbered 0..k-1, the number of communities, the number of
// moves, and the number of passes run.
func louvainLevel(ctx context.Context, v *undirectedView, gamma float64, maxPasses int) ([]int, int, int, int, error) {
	n := v.size()
	comm := make([]int, n)
	tot := make([]float64, n)
	for i := range comm {
		comm[i] = i
		tot[i] = v.strength[i]
	}

	// Scratch space for weights from the current node to each community
	linkWeight := make([]float64, n)
	linked := make([]bool, n)
	var candidates []int

	moves := 0
	passes := 0
	for passes < maxPasses {
		if err := ctx.Err(); err != nil {
			return nil, 0, 0, passes, err
		}
		passes++

		passMoves := 0
		for i := 0; i < n; i++ {
			ci := comm[i]
			ki := v.strength[i]

			candidates = candidates[:0]
			for _, nb := range v.nbrs[i] {
				c := comm[nb.to]
				if !linked[c] {
					linked[c] = true
					candidates = append(candidates, c)
				}
				linkWeight[c] += nb.w
			}

			// Take i out of its community before scoring
			tot[ci] -= ki
			stay := linkWeight[ci] - gamma*tot[ci]*ki/v.total

			best, bestGain := -1, 0.0
			for _, c := range candidates {
				if c == ci {
					continue
				}
				gain := linkWeight[c] - gamma*tot[c]*ki/v.total
				if best < 0 || gain > bestGain || (gain == bestGain && c < best) {
					best, bestGain = c, gain
				}
			}

			target := ci
			if best >= 0 && bestGain > stay+gainEpsilon {
				target = best
				passMoves++
			}
			comm[i] = target
			tot[target] += ki

			for _, c := range candidates {
				linked[c] = false
				linkWeight[c] = 0
			}
			linkWeight[ci] = 0
		}

		moves += passMoves
		if passMoves == 0 {
			break
		}
	}

	k := renumber(comm)
	return comm, k, moves, passes, nil
}

// aggregate collapses the communities of v into meta-nodes. Edges between
// communities are summed; intra-community weight becomes a self-loop.
func (v *undirectedView) aggregate(labels []int, k int) *undirectedView {
	members := make([][]int, k)
	for i, c := range labels {
		members[c] = append(members[c], i)
	}

	out := &undirectedView{
		nbrs:     make([][]weightedNbr, k),
		selfLoop: make([]float64, k),
		strength: make([]float64, k),
	}

	acc := make([]float64, k)
	touched := make([]bool, k)
	var order []int
	for c := 0; c < k; c++ {
		intra := 0.0
		order = order[:0]
		for _, i := range members[c] {
			out.selfLoop[c] += v.selfLoop[i]
			for _, nb := range v.nbrs[i] {
				d := labels[nb.to]
				if d == c {
					intra += nb.w
					continue
				}
				if !touched[d] {
					touched[d] = true
					order = append(order, d)
				}
				acc[d] += nb.w
			}
		}
		// Each intra edge was seen from both endpoints
		out.selfLoop[c] += intra / 2

		slices.Sort(order)
		list := make([]weightedNbr, 0, len(order))
		for _, d := range order {
			list = append(list, weightedNbr{to: d, w: acc[d]})
			acc[d] = 0
			touched[d] = false
		}
		out.nbrs[c] = list
	}

	out.recompute()
	return out
}
