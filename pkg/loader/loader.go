// Package loader builds graphs from edge-list, GraphML and YAML/JSON files.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
	"github.com/dd0wney/cluso-analytics/pkg/validation"
)

// Format names an input file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatGraphML Format = "graphml"
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
)

// ErrUnknownFormat is returned when no reader handles a format
var ErrUnknownFormat = errors.New("unknown input format")

// Formats lists every supported format
func Formats() []Format {
	return []Format{FormatCSV, FormatTSV, FormatGraphML, FormatYAML, FormatJSON}
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// DetectFormat picks a format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".edgelist", ".txt":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".graphml", ".xml":
		return FormatGraphML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}

// Options configures a load
type Options struct {
	// Format overrides extension-based detection when set
	Format Format
	// Directed applies to edges that do not declare their own direction
	Directed bool
	// UpdateDuplicates replaces the weight of a repeated edge instead of
	// failing the load
	UpdateDuplicates bool
	Logger           logging.Logger
}

// ParseError reports the input position of a rejected record
type ParseError struct {
	Format Format
	Line   int // 1-based line for delimited input, record number otherwise; 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadFile opens path and builds a graph from it
func LoadFile(path string, opts Options) (*graph.Graph, error) {
	if opts.Format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		opts.Format = f
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timer := logging.StartTimer(logger, "graph loaded", logging.Path(path), logging.String("format", string(opts.Format)))
	g, err := Read(file, opts)
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	timer.End(logging.NodeCount(g.NodeCount()), logging.EdgeCount(g.EdgeCount()))
	return g, nil
}

// Read builds a graph from r in opts.Format
func Read(r io.Reader, opts Options) (*graph.Graph, error) {
	b := &builder{g: graph.New(graph.DefaultOptions()), opts: opts}
	var err error
	switch opts.Format {
	case FormatCSV:
		err = readDelimited(r, ',', b)
	case FormatTSV:
		err = readDelimited(r, '\t', b)
	case FormatGraphML:
		err = readGraphML(r, b)
	case FormatYAML, FormatJSON:
		err = readDocument(r, b)
	default:
		err = fmt.Errorf("%q: %w", opts.Format, ErrUnknownFormat)
	}
	if err != nil {
		return nil, err
	}
	return b.g, nil
}

// builder validates records and applies them to the graph
type builder struct {
	g    *graph.Graph
	opts Options
}

func (b *builder) node(line int, id string) error {
	if err := validation.ValidateNodeID(id); err != nil {
		return &ParseError{Format: b.opts.Format, Line: line, Err: err}
	}
	if _, err := b.g.AddNode(graph.NodeID(id)); err != nil {
		return &ParseError{Format: b.opts.Format, Line: line, Err: err}
	}
	return nil
}

// edge adds one record. A nil weight means 1 and a nil directed flag means
// the configured default.
func (b *builder) edge(line int, source, target string, weight *float64, directed *bool) error {
	rec := validation.EdgeRecord{Source: source, Target: target, Weight: weight}
	if err := validation.ValidateEdgeRecord(&rec); err != nil {
		return &ParseError{Format: b.opts.Format, Line: line, Err: err}
	}

	w := 1.0
	if weight != nil {
		w = *weight
	}
	d := b.opts.Directed
	if directed != nil {
		d = *directed
	}

	var edgeOpts []graph.EdgeOption
	if b.opts.UpdateDuplicates {
		edgeOpts = append(edgeOpts, graph.UpdateWeight())
	}
	if err := b.g.AddEdge(graph.NodeID(source), graph.NodeID(target), w, d, edgeOpts...); err != nil {
		return &ParseError{Format: b.opts.Format, Line: line, Err: err}
	}
	return nil
}
