// Package config loads analysis settings from defaults, an optional TOML
// file, GRAPHANALYTICS_* environment variables and command-line flags, in
// increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/loader"
	"github.com/dd0wney/cluso-analytics/pkg/validation"
)

// EnvPrefix prefixes every environment variable the loader reads
const EnvPrefix = "GRAPHANALYTICS_"

// DefaultFile is read when present and no --config flag is given
const DefaultFile = "graphanalytics.toml"

// Config holds all configuration for an analysis run
type Config struct {
	// Centrality
	Metrics          []string `koanf:"metrics" validate:"required,min=1,dive,required"`
	Damping          float64  `koanf:"damping" validate:"gt=0,lt=1"`
	Tolerance        float64  `koanf:"tolerance" validate:"gt=0"`
	MaxIterations    int      `koanf:"max_iterations" validate:"gte=1"`
	Weighted         bool     `koanf:"weighted"`
	Directed         bool     `koanf:"directed"`
	IncludeSelfLoops bool     `koanf:"include_self_loops"`

	// Community detection
	CommunityAlgorithm string  `koanf:"community_algorithm" validate:"required"`
	Resolution         float64 `koanf:"resolution" validate:"gt=0"`
	MinModularityGain  float64 `koanf:"min_modularity_gain" validate:"gte=0"`
	MaxPasses          int     `koanf:"max_passes" validate:"gte=1"`
	MaxLevels          int     `koanf:"max_levels" validate:"gte=1"`
	LabelPropRounds    int     `koanf:"label_prop_rounds" validate:"gte=1"`

	// Link prediction
	LinkPrediction     bool     `koanf:"link_prediction"`
	LinkPredictionMode string   `koanf:"link_prediction_mode" validate:"required"`
	LinkMethods        []string `koanf:"link_methods"`
	TwoHopThreshold    int      `koanf:"two_hop_threshold" validate:"gte=0"`
	TopK               int      `koanf:"top_k" validate:"gte=0"`

	// Execution
	Workers  int    `koanf:"workers" validate:"gte=0"`
	Cache    bool   `koanf:"cache"`
	LogLevel string `koanf:"log_level"`

	// Input and output
	Input  string `koanf:"input"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`
}

// Defaults returns the default settings as a flat koanf map
func Defaults() map[string]any {
	return map[string]any{
		"metrics":              slices.Clone(algorithms.BuiltinMetrics),
		"damping":              0.85,
		"tolerance":            1e-6,
		"max_iterations":       100,
		"weighted":             false,
		"directed":             false,
		"include_self_loops":   false,
		"community_algorithm":  string(algorithms.Louvain),
		"resolution":           1.0,
		"min_modularity_gain":  1e-7,
		"max_passes":           100,
		"max_levels":           32,
		"label_prop_rounds":    100,
		"link_prediction":      true,
		"link_prediction_mode": string(algorithms.ModeAuto),
		"link_methods":         linkMethodNames(algorithms.DefaultLinkMethods),
		"two_hop_threshold":    1000,
		"top_k":                10,
		"workers":              0,
		"cache":                true,
		"log_level":            "info",
		"input":                "",
		"format":               "",
		"output":               "",
	}
}

// Default returns the default configuration without consulting files,
// environment or flags
func Default() *Config {
	k := koanf.New(".")
	var cfg Config
	if err := k.Load(makeMapProvider(Defaults()), nil); err == nil {
		_ = k.Unmarshal("", &cfg)
	}
	return &cfg
}

// RegisterFlags adds one flag per setting to f. Flag names use dashes in
// place of underscores.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("config", "", "path to a TOML config file")
	f.StringSlice("metrics", algorithms.BuiltinMetrics, "centrality metrics to compute")
	f.Float64("damping", 0.85, "PageRank damping factor")
	f.Float64("tolerance", 1e-6, "convergence tolerance for iterative metrics")
	f.Int("max-iterations", 100, "iteration cap for PageRank and eigenvector centrality")
	f.Bool("weighted", false, "use edge weights")
	f.Bool("directed", false, "treat edges without their own direction as directed")
	f.Bool("include-self-loops", false, "count self-loops in centrality and communities")
	f.String("community-algorithm", string(algorithms.Louvain), "louvain, labelProp, girvanNewman or components")
	f.Float64("resolution", 1.0, "modularity resolution")
	f.Float64("min-modularity-gain", 1e-7, "stop Louvain when a level gains less than this")
	f.Int("max-passes", 100, "Louvain local-move passes per level")
	f.Int("max-levels", 32, "Louvain levels or Girvan-Newman splits")
	f.Int("label-prop-rounds", 100, "label propagation round cap")
	f.Bool("link-prediction", true, "score candidate links")
	f.String("link-prediction-mode", string(algorithms.ModeAuto), "exact, twoHop or auto")
	f.StringSlice("link-methods", linkMethodNames(algorithms.DefaultLinkMethods), "link prediction methods")
	f.Int("two-hop-threshold", 1000, "node count above which auto mode uses twoHop")
	f.Int("top-k", 10, "length of each ranking")
	f.Int("workers", 0, "worker goroutines, 0 for one per CPU")
	f.Bool("cache", true, "reuse results for unchanged graphs")
	f.String("log-level", "info", "debug, info, warn or error")
	f.String("input", "", "input graph file")
	f.String("format", "", "input format, detected from the extension when empty")
	f.String("output", "", "snapshot output file")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file. The default file is optional, an explicit one is not.
	path, explicit := DefaultFile, false
	if f != nil {
		if p, err := f.GetString("config"); err == nil && p != "" {
			path, explicit = p, true
		}
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// Prefix: GRAPHANALYTICS_ (e.g., GRAPHANALYTICS_MAX_ITERATIONS=200)
	// List settings take comma-separated values.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if listKeys[key] {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, any) {
			return strings.ReplaceAll(fl.Name, "-", "_"), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and enumerated values
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	cv := validation.NewConfigValidator("Config").
		OpenUnitInterval("Damping", c.Damping).
		PositiveFloat("Tolerance", c.Tolerance).
		Positive("MaxIterations", c.MaxIterations).
		NonNegative("Workers", c.Workers).
		OneOf("LogLevel", c.LogLevel, []string{"debug", "info", "warn", "error"}).
		Custom("CommunityAlgorithm", func() error {
			_, err := algorithms.ParseCommunityAlgorithm(c.CommunityAlgorithm)
			return err
		}).
		Custom("LinkPredictionMode", func() error {
			_, err := algorithms.ParseCandidateMode(c.LinkPredictionMode)
			return err
		}).
		When(c.Format != "", func(v *validation.ConfigValidator) {
			v.Custom("Format", func() error {
				_, err := loader.ParseFormat(c.Format)
				return err
			})
		})
	for _, m := range c.LinkMethods {
		cv.Custom("LinkMethods", func() error {
			_, err := algorithms.ParseLinkMethod(m)
			return err
		})
	}

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var listKeys = map[string]bool{"metrics": true, "link_methods": true}

// CentralityOptions converts the settings for the centrality engine
func (c *Config) CentralityOptions() algorithms.CentralityOptions {
	opts := algorithms.DefaultCentralityOptions()
	opts.Weighted = c.Weighted
	opts.IncludeSelfLoops = c.IncludeSelfLoops
	opts.Workers = c.EffectiveWorkers()
	opts.Damping = c.Damping
	opts.Tolerance = c.Tolerance
	opts.MaxIterations = c.MaxIterations
	return opts
}

// CommunityOptions converts the settings for the community detector
func (c *Config) CommunityOptions() algorithms.CommunityOptions {
	opts := algorithms.DefaultCommunityOptions()
	opts.Algorithm = algorithms.CommunityAlgorithm(c.CommunityAlgorithm)
	opts.Weighted = c.Weighted
	opts.IncludeSelfLoops = c.IncludeSelfLoops
	opts.Resolution = c.Resolution
	opts.MinModularityGain = c.MinModularityGain
	opts.MaxPasses = c.MaxPasses
	opts.MaxLevels = c.MaxLevels
	opts.LabelPropRounds = c.LabelPropRounds
	return opts
}

// LinkPredictionOptions converts the settings for the link predictor
func (c *Config) LinkPredictionOptions() algorithms.LinkPredictionOptions {
	opts := algorithms.DefaultLinkPredictionOptions()
	opts.Mode = algorithms.CandidateMode(c.LinkPredictionMode)
	opts.TwoHopThreshold = c.TwoHopThreshold
	opts.TopK = c.TopK
	opts.Workers = c.EffectiveWorkers()
	if len(c.LinkMethods) > 0 {
		opts.Methods = make([]algorithms.LinkMethod, len(c.LinkMethods))
		for i, m := range c.LinkMethods {
			opts.Methods[i] = algorithms.LinkMethod(m)
		}
	}
	return opts
}

// EffectiveWorkers resolves Workers = 0 to the CPU count
func (c *Config) EffectiveWorkers() int {
	return validation.DefaultOrInt(c.Workers, runtime.NumCPU())
}

func linkMethodNames(methods []algorithms.LinkMethod) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return names
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
