package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

// summarySection returns the lines printed under the given metric heading.
func summarySection(out, metric string) []string {
	var lines []string
	in := false
	for _, line := range strings.Split(out, "\n") {
		switch {
		case line == metric:
			in = true
		case in && !strings.HasPrefix(line, "  "):
			return lines
		case in:
			lines = append(lines, line)
		}
	}
	return lines
}

func TestPrintSummary_TopNodes(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	for i := 1; i <= 7; i++ {
		require.NoError(t, g.AddEdge("hub", graph.NodeID(fmt.Sprintf("l%d", i)), 1, false))
	}

	opts := pipeline.DefaultOptions()
	opts.Metrics = []string{algorithms.MetricDegree}
	o, err := pipeline.New(opts)
	require.NoError(t, err)
	result, err := o.Run(context.Background(), g)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, result))

	lines := summarySection(buf.String(), algorithms.MetricDegree)
	require.Len(t, lines, summaryTopK)

	var names []string
	for _, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 2, line)
		names = append(names, fields[0])
	}
	// Equal leaf scores keep insertion order
	assert.Equal(t, []string{"hub", "l1", "l2", "l3", "l4"}, names)
	assert.Equal(t, "1.000000", strings.Fields(lines[0])[1])
	assert.Contains(t, buf.String(), "Run "+result.RunID)
}

func TestPrintSummary_SmallGraph(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	require.NoError(t, g.AddEdge("a", "b", 1, false))

	opts := pipeline.DefaultOptions()
	opts.Metrics = []string{algorithms.MetricDegree, algorithms.MetricPageRank}
	o, err := pipeline.New(opts)
	require.NoError(t, err)
	result, err := o.Run(context.Background(), g)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, result))
	assert.Len(t, summarySection(buf.String(), algorithms.MetricDegree), 2)
	assert.Len(t, summarySection(buf.String(), algorithms.MetricPageRank), 2)
}
