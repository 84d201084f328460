// Package pipeline sequences the analytics stages over a graph and assembles
// an immutable AnalysisResult.
//
// Centrality metrics and community detection run concurrently. Link
// prediction follows, using the detected communities as a feature, then
// graph statistics and the per-node attributes. A metric that fails is
// recorded in AnalysisResult.Errors and the run continues; cancellation stops
// the run and returns what finished so far.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/cache"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
)

// TracerName is the instrumentation name of the orchestrator's spans.
const TracerName = "github.com/dd0wney/cluso-analytics/pkg/pipeline"

// ErrNoMetrics is returned by New when no centrality metric is requested.
var ErrNoMetrics = errors.New("no centrality metrics requested")

// Orchestrator runs the analysis pipeline. It is safe for concurrent use;
// each Run owns its working memory.
type Orchestrator struct {
	opts    Options
	engine  *algorithms.CentralityEngine
	cache   *cache.Cache[*AnalysisResult]
	metrics *metrics.Registry
	logger  logging.Logger
	tracer  trace.Tracer
	scorers []algorithms.Scorer

	configHash uint64
	watched    sync.Map // *graph.Graph -> struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache reuses results for graphs whose content and settings match an
// earlier run. Graphs passed to Run are watched so that mutating them drops
// their entries.
func WithCache(c *cache.Cache[*AnalysisResult]) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithMetrics records run metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTracer sets the tracer. The global otel provider is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithScorer registers a custom centrality scorer. Request it by name in
// Options.Metrics.
func WithScorer(s algorithms.Scorer) Option {
	return func(o *Orchestrator) { o.scorers = append(o.scorers, s) }
}

// New creates an orchestrator. Unknown metric names and scorer name clashes
// are reported here rather than at run time.
func New(opts Options, options ...Option) (*Orchestrator, error) {
	o := &Orchestrator{opts: opts}
	for _, opt := range options {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewRegistry()
	}
	if o.logger == nil {
		o.logger = logging.NewNopLogger()
	}
	o.logger = o.logger.With(logging.Component("pipeline"))
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}

	if len(opts.Metrics) == 0 {
		return nil, ErrNoMetrics
	}
	o.engine = algorithms.NewCentralityEngine(opts.Centrality)
	names := make([]string, 0, len(o.scorers))
	for _, s := range o.scorers {
		if err := o.engine.Register(s); err != nil {
			return nil, err
		}
		names = append(names, s.Name())
	}
	for _, m := range opts.Metrics {
		if !o.engine.Has(m) {
			return nil, fmt.Errorf("metric %q: %w", m, algorithms.ErrUnknownMetric)
		}
	}
	o.configHash = opts.cacheKey(names)

	if o.cache != nil {
		o.cache.OnInvalidate(func(dropped int) {
			o.metrics.CacheInvalidationsTotal.Add(float64(dropped))
			o.metrics.CacheEntries.Set(float64(o.cache.Size()))
		})
	}
	return o, nil
}

// Metrics returns the orchestrator's metrics registry.
func (o *Orchestrator) Metrics() *metrics.Registry {
	return o.metrics
}

// Run analyses g. The graph is held read-only for the whole run; mutations
// block until Run returns. A cache hit returns the earlier result itself.
//
// On cancellation Run returns the partial result (Partial set) together with
// a *algorithms.CancellationError. Partial results are not cached.
func (o *Orchestrator) Run(ctx context.Context, g *graph.Graph) (*AnalysisResult, error) {
	release := g.BeginRun()
	defer release()

	start := time.Now()
	key := cache.Key{Graph: g.ContentHash(), Config: o.configHash}
	if o.cache != nil {
		if _, loaded := o.watched.LoadOrStore(g, struct{}{}); !loaded {
			o.cache.Watch(g)
		}
		cached, ok := o.cache.Get(key)
		o.metrics.RecordCacheLookup(ok)
		if ok {
			o.metrics.RecordRun(metrics.StatusCached, time.Since(start))
			o.logger.Debug("cache hit", logging.RunID(cached.RunID), logging.GraphHash(key.Graph))
			return cached, nil
		}
	}

	runID := uuid.NewString()
	ctx, span := o.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("graph.nodes", g.NodeCount()),
		attribute.Int("graph.edges", g.EdgeCount()),
	))
	defer span.End()

	o.metrics.RunsInFlight.Inc()
	defer o.metrics.RunsInFlight.Dec()
	o.metrics.UpdateGraphMetrics(g.NodeCount(), g.EdgeCount())

	log := o.logger.With(logging.RunID(runID))
	timer := logging.StartTimer(log, "analysis run", logging.NodeCount(g.NodeCount()), logging.EdgeCount(g.EdgeCount()))

	r := &run{
		o:   o,
		g:   g,
		log: log,
		result: &AnalysisResult{
			RunID:      runID,
			GraphHash:  key.Graph,
			Graph:      NewGraphView(g),
			StartedAt:  start,
			Metrics:    o.opts.Metrics,
			Centrality: make(map[string]*algorithms.CentralityScores, len(o.opts.Metrics)),
			Errors:     make(map[string]error),
			Timings:    make(map[string]time.Duration),
		},
	}

	err := r.execute(ctx)
	result := r.result
	result.attach(r.clustering)
	result.Duration = time.Since(start)

	switch {
	case err != nil:
		result.Partial = true
		span.RecordError(err)
		span.SetStatus(codes.Error, "run cancelled")
		o.metrics.RecordRun(metrics.StatusCancelled, result.Duration)
		timer.EndError(err)
		return result, err
	case len(result.Errors) > 0:
		span.SetStatus(codes.Error, fmt.Sprintf("%d stages failed", len(result.Errors)))
		o.metrics.RecordRun(metrics.StatusPartial, result.Duration)
	default:
		o.metrics.RecordRun(metrics.StatusSuccess, result.Duration)
	}
	timer.End(logging.Int("errors", len(result.Errors)), logging.Int("warnings", len(result.Warnings)))

	if o.cache != nil {
		o.cache.Put(key, result)
		o.metrics.CacheEntries.Set(float64(o.cache.Size()))
	}
	return result, nil
}

// run is the working state of one Run call.
type run struct {
	o   *Orchestrator
	g   *graph.Graph
	log logging.Logger

	mu         sync.Mutex
	result     *AnalysisResult
	clustering map[graph.NodeID]float64
}

// execute runs the stages in order. Only cancellation is returned; other
// failures are recorded on the result.
func (r *run) execute(ctx context.Context) error {
	opts := r.o.opts

	grp, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		grp.SetLimit(opts.Concurrency)
	}
	for _, metric := range opts.Metrics {
		grp.Go(func() error {
			return r.centrality(gctx, metric)
		})
	}
	grp.Go(func() error {
		return r.communities(gctx)
	})
	if err := grp.Wait(); err != nil {
		return err
	}

	if opts.LinkPrediction != nil {
		if err := r.links(ctx, *opts.LinkPrediction); err != nil {
			return err
		}
	}
	if opts.Statistics {
		if err := r.statistics(ctx); err != nil {
			return err
		}
	}

	return r.stage(ctx, StageAttributes, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return cancellation(StageAttributes, err)
		}
		r.clustering = algorithms.ClusteringCoefficient(r.g)
		return nil
	})
}

func (r *run) centrality(ctx context.Context, metric string) error {
	var scores *algorithms.CentralityScores
	err := r.stage(ctx, metric, func(ctx context.Context) error {
		var err error
		scores, err = r.o.engine.Compute(ctx, r.g, metric)
		return err
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if algorithms.IsCancellation(err) {
			return cancellation(metric, err)
		}
		r.result.Errors[metric] = err
		r.log.Warn("metric failed", logging.Metric(metric), logging.Error(err))
		return nil
	}

	r.result.Centrality[metric] = scores
	if scores.Iterations > 0 {
		r.o.metrics.RecordIterations(metric, scores.Iterations)
	}
	r.warn(metric, scores.Warning)
	return nil
}

func (r *run) communities(ctx context.Context) error {
	var assignment *algorithms.CommunityAssignment
	err := r.stage(ctx, StageCommunities, func(ctx context.Context) error {
		var err error
		assignment, err = algorithms.DetectCommunities(ctx, r.g, r.o.opts.Community)
		return err
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if algorithms.IsCancellation(err) {
			return cancellation(StageCommunities, err)
		}
		r.result.Errors[StageCommunities] = err
		r.log.Warn("community detection failed", logging.Error(err))
		return nil
	}

	r.result.Communities = assignment
	r.o.metrics.RecordCommunities(assignment.Count, assignment.Modularity)
	r.o.metrics.RecordIterations(string(assignment.Algorithm), assignment.Iterations)
	r.warn(StageCommunities, assignment.Warning)
	r.log.Info("communities detected",
		logging.String("algorithm", string(assignment.Algorithm)),
		logging.Int("count", assignment.Count),
		logging.Modularity(assignment.Modularity))
	return nil
}

func (r *run) links(ctx context.Context, opts algorithms.LinkPredictionOptions) error {
	opts.Communities = r.result.Communities
	var predicted *algorithms.LinkPredictionResult
	err := r.stage(ctx, StageLinkPrediction, func(ctx context.Context) error {
		var err error
		predicted, err = algorithms.PredictLinks(ctx, r.g, opts)
		return err
	})
	if err != nil {
		if algorithms.IsCancellation(err) {
			return cancellation(StageLinkPrediction, err)
		}
		r.result.Errors[StageLinkPrediction] = err
		r.log.Warn("link prediction failed", logging.Error(err))
		return nil
	}

	r.result.Links = predicted
	r.o.metrics.LinkCandidates.Set(float64(len(predicted.Predictions)))
	return nil
}

func (r *run) statistics(ctx context.Context) error {
	var stats *algorithms.GraphStatistics
	err := r.stage(ctx, StageStatistics, func(ctx context.Context) error {
		var err error
		stats, err = algorithms.ComputeStatistics(ctx, r.g)
		return err
	})
	if err != nil {
		if algorithms.IsCancellation(err) {
			return cancellation(StageStatistics, err)
		}
		r.result.Errors[StageStatistics] = err
		return nil
	}
	r.result.Statistics = stats
	return nil
}

// stage wraps fn in a span, records its duration and error, and stores the
// timing on the result.
func (r *run) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := r.o.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	r.o.metrics.RecordStage(name, elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	r.mu.Lock()
	r.result.Timings[name] = elapsed
	r.mu.Unlock()

	r.log.Debug("stage finished", logging.String("stage", name), logging.Latency(elapsed))
	return err
}

// warn records a non-fatal warning. Callers hold r.mu.
func (r *run) warn(stage string, w error) {
	if w == nil {
		return
	}
	r.result.Warnings = append(r.result.Warnings, w)
	r.o.metrics.RecordWarning(stage)
	r.log.Warn("convergence warning", logging.String("stage", stage), logging.Error(w))
}

// cancellation makes sure err is a *algorithms.CancellationError.
func cancellation(stage string, err error) error {
	var ce *algorithms.CancellationError
	if errors.As(err, &ce) {
		return err
	}
	return &algorithms.CancellationError{Stage: stage, Cause: err}
}
