package pipeline

import (
	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/cache"
	"github.com/dd0wney/cluso-analytics/pkg/config"
)

// Options selects the stages of a run and their settings.
type Options struct {
	Metrics    []string // centrality metrics, built-in or registered scorers
	Centrality algorithms.CentralityOptions
	Community  algorithms.CommunityOptions

	// LinkPrediction enables the link prediction stage when non-nil.
	// Community labels are supplied by the orchestrator.
	LinkPrediction *algorithms.LinkPredictionOptions

	Statistics bool

	// Concurrency bounds the centrality metrics and community detection
	// running at once. 0 runs them all together.
	Concurrency int
}

// DefaultOptions runs every built-in metric, Louvain, link prediction and
// statistics with default settings.
func DefaultOptions() Options {
	lp := algorithms.DefaultLinkPredictionOptions()
	return Options{
		Metrics:        algorithms.BuiltinMetrics,
		Centrality:     algorithms.DefaultCentralityOptions(),
		Community:      algorithms.DefaultCommunityOptions(),
		LinkPrediction: &lp,
		Statistics:     true,
	}
}

// FromConfig converts loaded settings into Options.
func FromConfig(cfg *config.Config) Options {
	opts := Options{
		Metrics:    cfg.Metrics,
		Centrality: cfg.CentralityOptions(),
		Community:  cfg.CommunityOptions(),
		Statistics: true,
	}
	if cfg.LinkPrediction {
		lp := cfg.LinkPredictionOptions()
		opts.LinkPrediction = &lp
	}
	return opts
}

// cacheKey hashes the settings that change results. Worker counts and
// partitioners only change scheduling and are left out.
func (o Options) cacheKey(scorers []string) uint64 {
	type centrality struct {
		Weighted, IncludeSelfLoops bool
		Damping, Tolerance         float64
		MaxIterations              int
	}
	type links struct {
		Methods         []algorithms.LinkMethod
		Mode            algorithms.CandidateMode
		TwoHopThreshold int
		TopK            int
	}
	key := struct {
		Metrics    []string
		Scorers    []string
		Centrality centrality
		Community  algorithms.CommunityOptions
		Links      *links
		Statistics bool
	}{
		Metrics: o.Metrics,
		Scorers: scorers,
		Centrality: centrality{
			Weighted:         o.Centrality.Weighted,
			IncludeSelfLoops: o.Centrality.IncludeSelfLoops,
			Damping:          o.Centrality.Damping,
			Tolerance:        o.Centrality.Tolerance,
			MaxIterations:    o.Centrality.MaxIterations,
		},
		Community:  o.Community,
		Statistics: o.Statistics,
	}
	if lp := o.LinkPrediction; lp != nil {
		key.Links = &links{
			Methods:         lp.Methods,
			Mode:            lp.Mode,
			TwoHopThreshold: lp.TwoHopThreshold,
			TopK:            lp.TopK,
		}
	}
	return cache.ConfigHash(key)
}
