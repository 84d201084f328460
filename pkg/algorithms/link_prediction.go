package algorithms

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/parallel"
	"github.com/dd0wney/cluso-analytics/pkg/partition"
)

// LinkMethod names a link prediction scoring formula. Scores across
// different methods are not comparable.
type LinkMethod string

const (
	// CommonNeighbors scores by |N(u) ∩ N(v)|
	CommonNeighbors LinkMethod = "common_neighbors"
	// Jaccard scores by |N(u) ∩ N(v)| / |N(u) ∪ N(v)|, 0 when both are empty
	Jaccard LinkMethod = "jaccard"
	// AdamicAdar sums 1/log(|N(w)|) over common neighbours, skipping |N(w)| <= 1
	AdamicAdar LinkMethod = "adamic_adar"
	// PreferentialAttachment scores by |N(u)| × |N(v)|
	PreferentialAttachment LinkMethod = "preferential_attachment"
	// ResourceAllocation sums 1/|N(w)| over common neighbours
	ResourceAllocation LinkMethod = "resource_allocation"
)

// DefaultLinkMethods are the methods scored when none are configured.
var DefaultLinkMethods = []LinkMethod{CommonNeighbors, Jaccard, AdamicAdar}

// AllLinkMethods lists every supported method.
var AllLinkMethods = []LinkMethod{CommonNeighbors, Jaccard, AdamicAdar, PreferentialAttachment, ResourceAllocation}

// CandidateMode selects which non-adjacent pairs are scored.
type CandidateMode string

const (
	ModeExact  CandidateMode = "exact"  // every non-adjacent pair
	ModeTwoHop CandidateMode = "twoHop" // non-adjacent pairs sharing a neighbour
	ModeAuto   CandidateMode = "auto"   // twoHop above TwoHopThreshold nodes
)

// ParseLinkMethod validates a method name.
func ParseLinkMethod(s string) (LinkMethod, error) {
	m := LinkMethod(s)
	if slices.Contains(AllLinkMethods, m) {
		return m, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownMethod)
}

// ParseCandidateMode validates a candidate mode name.
func ParseCandidateMode(s string) (CandidateMode, error) {
	switch m := CandidateMode(s); m {
	case ModeExact, ModeTwoHop, ModeAuto:
		return m, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

// LinkPredictionOptions configures link prediction.
type LinkPredictionOptions struct {
	Methods         []LinkMethod
	Mode            CandidateMode
	TwoHopThreshold int // default 1000
	TopK            int // per-method ranking length, 0 = all
	Workers         int

	// Communities adds the SameCommunity feature when set.
	Communities *CommunityAssignment
}

// DefaultLinkPredictionOptions returns sensible defaults.
func DefaultLinkPredictionOptions() LinkPredictionOptions {
	return LinkPredictionOptions{
		Methods:         DefaultLinkMethods,
		Mode:            ModeAuto,
		TwoHopThreshold: 1000,
		TopK:            10,
	}
}

// LinkPrediction holds the scores of one candidate pair.
type LinkPrediction struct {
	Source        graph.NodeID           `json:"source"`
	Target        graph.NodeID           `json:"target"`
	Scores        map[LinkMethod]float64 `json:"scores"`
	SameCommunity *bool                  `json:"same_community,omitempty"`

	u, v int
}

// LinkPredictionResult holds every scored candidate pair and an independent
// ranking per method.
type LinkPredictionResult struct {
	Mode        CandidateMode                   `json:"mode"`
	Methods     []LinkMethod                    `json:"methods"`
	Predictions []LinkPrediction                `json:"predictions"` // ascending (source, target) index order
	Rankings    map[LinkMethod][]LinkPrediction `json:"rankings"`    // sorted desc by score
}

// linkScorer computes pair scores from the symmetric neighbour sets.
type linkScorer struct {
	nbrs    [][]int
	methods []LinkMethod
}

func newLinkScorer(g *graph.Graph, methods []LinkMethod) (*linkScorer, error) {
	if len(methods) == 0 {
		methods = DefaultLinkMethods
	}
	for _, m := range methods {
		if !slices.Contains(AllLinkMethods, m) {
			return nil, fmt.Errorf("%q: %w", m, ErrUnknownMethod)
		}
	}
	return &linkScorer{nbrs: neighborSets(g), methods: methods}, nil
}

func (s *linkScorer) score(u, v int) map[LinkMethod]float64 {
	nu, nv := s.nbrs[u], s.nbrs[v]

	common := 0
	aa, ra := 0.0, 0.0
	intersectSorted(nu, nv, func(w int) {
		common++
		deg := len(s.nbrs[w])
		if deg > 1 {
			aa += 1.0 / math.Log(float64(deg))
		}
		ra += 1.0 / float64(deg)
	})

	scores := make(map[LinkMethod]float64, len(s.methods))
	for _, m := range s.methods {
		switch m {
		case CommonNeighbors:
			scores[m] = float64(common)
		case Jaccard:
			if union := len(nu) + len(nv) - common; union > 0 {
				scores[m] = float64(common) / float64(union)
			} else {
				scores[m] = 0
			}
		case AdamicAdar:
			scores[m] = aa
		case PreferentialAttachment:
			scores[m] = float64(len(nu)) * float64(len(nv))
		case ResourceAllocation:
			scores[m] = ra
		}
	}
	return scores
}

// ScorePair scores a single node pair with the given methods (defaults when
// empty). The pair does not need to be non-adjacent.
func ScorePair(g *graph.Graph, u, v graph.NodeID, methods ...LinkMethod) (map[LinkMethod]float64, error) {
	ui, ok := g.IndexOf(u)
	if !ok {
		return nil, graph.UnknownNodeError("ScorePair", u)
	}
	vi, ok := g.IndexOf(v)
	if !ok {
		return nil, graph.UnknownNodeError("ScorePair", v)
	}
	s, err := newLinkScorer(g, methods)
	if err != nil {
		return nil, err
	}
	return s.score(ui, vi), nil
}

// PredictLinks scores candidate non-edges. Source nodes are hashed into
// shards scored on the worker pool; the merged predictions are sorted by
// index pair so the result does not depend on scheduling.
func PredictLinks(ctx context.Context, g *graph.Graph, opts LinkPredictionOptions) (*LinkPredictionResult, error) {
	scorer, err := newLinkScorer(g, opts.Methods)
	if err != nil {
		return nil, err
	}

	mode := opts.Mode
	switch mode {
	case ModeAuto, "":
		threshold := opts.TwoHopThreshold
		if threshold <= 0 {
			threshold = 1000
		}
		mode = ModeExact
		if g.NodeCount() > threshold {
			mode = ModeTwoHop
		}
	case ModeExact, ModeTwoHop:
	default:
		return nil, fmt.Errorf("%q: %w", opts.Mode, ErrUnknownMode)
	}

	n := g.NodeCount()
	workers := opts.Workers
	if workers <= 0 {
		workers = CentralityOptions{}.workers()
	}
	shards := partition.Assign(partition.NewHashPartition(min(workers, max(n, 1))), n)

	var (
		mu     sync.Mutex
		merged []LinkPrediction
	)
	tasks := make([]parallel.Task, len(shards))
	for s, sources := range shards {
		tasks[s] = func(ctx context.Context) error {
			var local []LinkPrediction
			mark := make([]int, n)
			for i := range mark {
				mark[i] = -1
			}
			for _, u := range sources {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, v := range candidates(g, scorer.nbrs, u, mode, mark) {
					local = append(local, newPrediction(g, scorer, opts.Communities, u, v))
				}
			}
			mu.Lock()
			merged = append(merged, local...)
			mu.Unlock()
			return nil
		}
	}
	if err := parallel.Run(ctx, workers, tasks); err != nil {
		return nil, cancelled("link_prediction", err)
	}

	slices.SortFunc(merged, comparePairs)

	result := &LinkPredictionResult{
		Mode:        mode,
		Methods:     scorer.methods,
		Predictions: merged,
		Rankings:    make(map[LinkMethod][]LinkPrediction, len(scorer.methods)),
	}
	for _, m := range scorer.methods {
		result.Rankings[m] = rank(merged, m, opts.TopK)
	}
	return result, nil
}

// candidates returns the nodes v > u that u could link to. mark is scratch
// space of length n owned by the caller.
func candidates(g *graph.Graph, nbrs [][]int, u int, mode CandidateMode, mark []int) []int {
	var out []int
	if mode == ModeExact {
		for v := u + 1; v < len(nbrs); v++ {
			if !g.Connected(u, v) {
				out = append(out, v)
			}
		}
		return out
	}

	for _, w := range nbrs[u] {
		for _, v := range nbrs[w] {
			if v <= u || mark[v] == u {
				continue
			}
			mark[v] = u
			if !g.Connected(u, v) {
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return out
}

func newPrediction(g *graph.Graph, s *linkScorer, communities *CommunityAssignment, u, v int) LinkPrediction {
	p := LinkPrediction{
		Source: g.NodeAt(u),
		Target: g.NodeAt(v),
		Scores: s.score(u, v),
		u:      u,
		v:      v,
	}
	if communities != nil && u < len(communities.Labels) && v < len(communities.Labels) {
		same := communities.Labels[u] == communities.Labels[v]
		p.SameCommunity = &same
	}
	return p
}

func comparePairs(a, b LinkPrediction) int {
	if c := cmp.Compare(a.u, b.u); c != 0 {
		return c
	}
	return cmp.Compare(a.v, b.v)
}

// rank returns the top k predictions for method m, ties in index order.
func rank(preds []LinkPrediction, m LinkMethod, k int) []LinkPrediction {
	ranked := slices.Clone(preds)
	slices.SortStableFunc(ranked, func(a, b LinkPrediction) int {
		return cmp.Compare(b.Scores[m], a.Scores[m])
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
