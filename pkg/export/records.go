// Package export converts analysis results for downstream consumers: storage
// records keyed by the original node identifiers, numeric feature matrices
// for learned models, and compressed snapshots.
package export

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// NodeRecord holds the attributes of one node for a property store.
type NodeRecord struct {
	ID         graph.NodeID       `json:"id"`
	Properties map[string]float64 `json:"properties"`
}

// EdgeRecord holds the attributes of one edge for a property store.
type EdgeRecord struct {
	Source        graph.NodeID `json:"source"`
	Target        graph.NodeID `json:"target"`
	Weight        float64      `json:"weight"`
	Directed      bool         `json:"directed"`
	SameCommunity bool         `json:"same_community"`
	Community     int          `json:"community"`
}

// AttributeWriter receives attribute writes, for example a property-graph
// database client.
type AttributeWriter interface {
	WriteNode(ctx context.Context, rec NodeRecord) error
	WriteEdge(ctx context.Context, rec EdgeRecord) error
}

// NodeRecords returns one record per node in dense index order. Properties
// are copies and may be modified by the caller.
func NodeRecords(result *pipeline.AnalysisResult) []NodeRecord {
	records := make([]NodeRecord, 0, result.Graph.NodeCount())
	for _, id := range result.Graph.Nodes() {
		records = append(records, NodeRecord{
			ID:         id,
			Properties: maps.Clone(result.NodeAttributes[id]),
		})
	}
	return records
}

// EdgeRecords returns one record per edge in insertion order.
func EdgeRecords(result *pipeline.AnalysisResult) []EdgeRecord {
	records := make([]EdgeRecord, len(result.EdgeAttributes))
	for i, ea := range result.EdgeAttributes {
		records[i] = EdgeRecord{
			Source:        ea.Edge.Source,
			Target:        ea.Edge.Target,
			Weight:        ea.Edge.Weight,
			Directed:      ea.Edge.Directed,
			SameCommunity: ea.SameCommunity,
			Community:     ea.Community,
		}
	}
	return records
}

// WriteAttributes sends every node and edge record to w, nodes first. It
// stops at the first error or when ctx is done.
func WriteAttributes(ctx context.Context, w AttributeWriter, result *pipeline.AnalysisResult) error {
	for _, rec := range NodeRecords(result) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteNode(ctx, rec); err != nil {
			return fmt.Errorf("write node %q: %w", rec.ID, err)
		}
	}
	for _, rec := range EdgeRecords(result) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.WriteEdge(ctx, rec); err != nil {
			return fmt.Errorf("write edge %q-%q: %w", rec.Source, rec.Target, err)
		}
	}
	return nil
}

// PropertyNames lists the property keys present on any node, sorted.
func PropertyNames(records []NodeRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec.Properties {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}
