package algorithms

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// DetectCommunities runs the community algorithm selected by opts.Algorithm.
// An empty algorithm means Louvain.
func DetectCommunities(ctx context.Context, g *graph.Graph, opts CommunityOptions) (*CommunityAssignment, error) {
	switch opts.Algorithm {
	case Louvain, "":
		return LouvainCommunities(ctx, g, opts)
	case LabelPropagation:
		return LabelPropagationCommunities(ctx, g, opts)
	case GirvanNewman:
		return GirvanNewmanCommunities(ctx, g, opts)
	case Components:
		if err := ctx.Err(); err != nil {
			return nil, cancelled(string(Components), err)
		}
		return ConnectedComponents(g), nil
	default:
		return nil, fmt.Errorf("%q: %w", opts.Algorithm, ErrUnknownCommAlg)
	}
}

// ParseCommunityAlgorithm validates an algorithm name.
func ParseCommunityAlgorithm(s string) (CommunityAlgorithm, error) {
	switch a := CommunityAlgorithm(s); a {
	case Louvain, LabelPropagation, GirvanNewman, Components:
		return a, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownCommAlg)
}
