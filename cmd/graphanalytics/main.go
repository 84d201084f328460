// Command graphanalytics loads a graph file, runs the analysis pipeline and
// writes the result as a snapshot, a visualization or attribute records.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/cache"
	"github.com/dd0wney/cluso-analytics/pkg/config"
	"github.com/dd0wney/cluso-analytics/pkg/export"
	"github.com/dd0wney/cluso-analytics/pkg/loader"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/metrics"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
	"github.com/dd0wney/cluso-analytics/pkg/visualization"
)

const (
	cacheCapacity = 16
	summaryTopK   = 5
)

func main() {
	flags := pflag.NewFlagSet("graphanalytics", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: graphanalytics --input graph.csv [--output result.snap] [flags]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Output format follows the extension:")
		fmt.Fprintln(os.Stderr, "  .snap      compressed snapshot")
		fmt.Fprintln(os.Stderr, "  .viz.json  visualization with layout")
		fmt.Fprintln(os.Stderr, "  .json      node and edge attribute records")
		fmt.Fprintln(os.Stderr)
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Input == "" {
		flags.Usage()
		os.Exit(2)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("analysis failed", logging.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	var format loader.Format
	if cfg.Format != "" {
		f, err := loader.ParseFormat(cfg.Format)
		if err != nil {
			return err
		}
		format = f
	}
	g, err := loader.LoadFile(cfg.Input, loader.Options{
		Format:   format,
		Directed: cfg.Directed,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	options := []pipeline.Option{
		pipeline.WithMetrics(metrics.NewRegistry()),
		pipeline.WithLogger(logger),
	}
	if cfg.Cache {
		options = append(options, pipeline.WithCache(cache.New[*pipeline.AnalysisResult](cacheCapacity)))
	}
	o, err := pipeline.New(pipeline.FromConfig(cfg), options...)
	if err != nil {
		return err
	}

	result, err := o.Run(ctx, g)
	if err != nil {
		var cancelled *algorithms.CancellationError
		if !errors.As(err, &cancelled) || result == nil {
			return err
		}
		logger.Warn("analysis interrupted, writing partial result",
			logging.String("stage", cancelled.Stage))
	}

	for name, stageErr := range result.Errors {
		logger.Warn("stage failed", logging.String("stage", name), logging.Error(stageErr))
	}
	for _, w := range result.Warnings {
		logger.Warn("stage warning", logging.Error(w))
	}

	if cfg.Output == "" {
		return printSummary(os.Stdout, result)
	}
	if err := writeOutput(cfg.Output, result); err != nil {
		return err
	}
	logger.Info("result written",
		logging.Path(cfg.Output),
		logging.RunID(result.RunID))
	return nil
}

func writeOutput(path string, result *pipeline.AnalysisResult) error {
	switch {
	case strings.HasSuffix(path, ".viz.json"):
		v, err := visualization.New(result, visualization.DefaultStyleOptions())
		if err != nil {
			return err
		}
		return writeFile(path, func(f *os.File) error { return v.WriteJSON(f) })
	case filepath.Ext(path) == ".json":
		records := struct {
			Nodes []export.NodeRecord `json:"nodes"`
			Edges []export.EdgeRecord `json:"edges"`
		}{export.NodeRecords(result), export.EdgeRecords(result)}
		return writeFile(path, func(f *os.File) error {
			enc := json.NewEncoder(f)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		})
	default:
		return export.SaveSnapshot(path, result)
	}
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// printSummary prints the top nodes per metric and the community split.
func printSummary(w io.Writer, result *pipeline.AnalysisResult) error {
	fmt.Fprintf(w, "Run %s: %d nodes, %d edges in %v\n",
		result.RunID, result.Graph.NodeCount(), result.Graph.EdgeCount(), result.Duration)

	for _, metric := range result.Succeeded() {
		fmt.Fprintf(w, "\n%s\n", metric)
		for _, rn := range algorithms.TopNodes(result.Graph, result.Centrality[metric], summaryTopK) {
			fmt.Fprintf(w, "  %-24s %.6f\n", rn.Node, rn.Score)
		}
	}

	if c := result.Communities; c != nil {
		fmt.Fprintf(w, "\n%s: %d communities, modularity %.4f\n", c.Algorithm, c.Count, c.Modularity)
	}
	if s := result.Statistics; s != nil {
		fmt.Fprintf(w, "density %.4f, components %d, diameter %d, clustering %.4f\n",
			s.Density, s.Components, s.Diameter, s.AverageClustering)
	}
	if l := result.Links; l != nil {
		for _, method := range l.Methods {
			ranking := l.Rankings[method]
			if len(ranking) == 0 {
				continue
			}
			top := ranking[0]
			fmt.Fprintf(w, "top %s link: %s - %s (%.4f)\n", method, top.Source, top.Target, top.Scores[method])
		}
	}
	return nil
}
