package algorithms

import "github.com/dd0wney/cluso-analytics/pkg/graph"

// modularity computes Newman modularity with resolution gamma:
//
//	Q = sum_c [ in_c/2m - gamma*(tot_c/2m)^2 ]
//
// where in_c counts intra-community weight from both endpoints and tot_c is
// the total strength of the community.
func (v *undirectedView) modularity(labels []int, gamma float64) float64 {
	if v.total == 0 {
		return 0
	}

	k := 0
	for _, c := range labels {
		k = max(k, c+1)
	}
	in := make([]float64, k)
	tot := make([]float64, k)
	for i, c := range labels {
		tot[c] += v.strength[i]
		in[c] += 2 * v.selfLoop[i]
		for _, nb := range v.nbrs[i] {
			if labels[nb.to] == c {
				in[c] += nb.w
			}
		}
	}

	q := 0.0
	for c := range in {
		frac := tot[c] / v.total
		q += in[c]/v.total - gamma*frac*frac
	}
	return q
}

// Modularity returns the modularity of a partition of g. Nodes missing from
// communities are placed in singleton communities.
func Modularity(g *graph.Graph, communities map[graph.NodeID]int, opts CommunityOptions) float64 {
	n := g.NodeCount()
	labels := make([]int, n)
	next := 0
	for _, c := range communities {
		next = max(next, c+1)
	}
	for i := 0; i < n; i++ {
		if c, ok := communities[g.NodeAt(i)]; ok && c >= 0 {
			labels[i] = c
		} else {
			labels[i] = next
			next++
		}
	}
	view := newUndirectedView(g, opts.Weighted, opts.IncludeSelfLoops)
	return view.modularity(labels, resolution(opts))
}

func resolution(opts CommunityOptions) float64 {
	if opts.Resolution <= 0 {
		return 1
	}
	return opts.Resolution
}
