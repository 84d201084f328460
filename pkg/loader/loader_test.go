package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/logging"
)

func edgeOf(t *testing.T, g *graph.Graph, u, v graph.NodeID) graph.Edge {
	t.Helper()
	for _, e := range g.Edges() {
		if (e.Source == u && e.Target == v) || (!e.Directed && e.Source == v && e.Target == u) {
			return e
		}
	}
	t.Fatalf("edge %s-%s not found", u, v)
	return graph.Edge{}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"edges.csv", FormatCSV},
		{"edges.TSV", FormatTSV},
		{"graph.graphml", FormatGraphML},
		{"graph.yml", FormatYAML},
		{"graph.json", FormatJSON},
		{"edges.edgelist", FormatCSV},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("graph.gml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := ParseFormat("GraphML")
	require.NoError(t, err)
	assert.Equal(t, FormatGraphML, f)
}

func TestReadCSV(t *testing.T) {
	input := `# a comment
source,target,weight
a,b,2.5
b, c
c,d,,true
e
`
	g, err := Read(strings.NewReader(input), Options{Format: FormatCSV})
	require.NoError(t, err)

	assert.Equal(t, 5, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, 2.5, edgeOf(t, g, "a", "b").Weight)
	assert.Equal(t, 1.0, edgeOf(t, g, "b", "c").Weight)
	assert.False(t, edgeOf(t, g, "b", "c").Directed)
	assert.True(t, edgeOf(t, g, "c", "d").Directed)
	assert.True(t, g.HasNode("e"))
}

func TestReadCSVHeaderless(t *testing.T) {
	g, err := Read(strings.NewReader("a,b,1\nb,c,3\n"), Options{Format: FormatCSV, Directed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())
	assert.True(t, g.IsDirected())
}

func TestReadTSV(t *testing.T) {
	g, err := Read(strings.NewReader("a\tb\t4\nb\tc\t1\n"), Options{Format: FormatTSV})
	require.NoError(t, err)
	assert.Equal(t, 4.0, edgeOf(t, g, "a", "b").Weight)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		opts   Options
		line   int
		target error
	}{
		{"bad weight", "a,b,1\nb,c,heavy\n", Options{Format: FormatCSV}, 2, nil},
		{"negative weight", "a,b,-1\n", Options{Format: FormatCSV}, 1, nil},
		{"duplicate edge", "a,b\nb,a\n", Options{Format: FormatCSV}, 2, graph.ErrDuplicateEdge},
		{"bad direction", "a,b,1,sideways\n", Options{Format: FormatCSV}, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestReadCSVUpdateDuplicates(t *testing.T) {
	g, err := Read(strings.NewReader("a,b,1\nb,a,5\n"), Options{Format: FormatCSV, UpdateDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, 5.0, edgeOf(t, g, "a", "b").Weight)
}

const sampleGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="w" for="edge" attr.name="weight" attr.type="double">
    <default>1.5</default>
  </key>
  <graph id="G" edgedefault="directed">
    <node id="a"/>
    <node id="b"/>
    <node id="c"/>
    <node id="lonely"/>
    <edge source="a" target="b"><data key="w">3</data></edge>
    <edge source="b" target="c"/>
    <edge source="c" target="a" directed="false"/>
  </graph>
</graphml>`

func TestReadGraphML(t *testing.T) {
	g, err := Read(strings.NewReader(sampleGraphML), Options{Format: FormatGraphML})
	require.NoError(t, err)

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	ab := edgeOf(t, g, "a", "b")
	assert.Equal(t, 3.0, ab.Weight)
	assert.True(t, ab.Directed)
	assert.Equal(t, 1.5, edgeOf(t, g, "b", "c").Weight)
	assert.False(t, edgeOf(t, g, "c", "a").Directed)
	assert.True(t, g.HasNode("lonely"))
}

func TestReadGraphMLErrors(t *testing.T) {
	_, err := Read(strings.NewReader("<graphml><graph"), Options{Format: FormatGraphML})
	assert.Error(t, err)

	_, err = Read(strings.NewReader("<graphml></graphml>"), Options{Format: FormatGraphML})
	assert.Error(t, err)

	bad := `<graphml><graph><edge source="a" target=""/></graph></graphml>`
	_, err = Read(strings.NewReader(bad), Options{Format: FormatGraphML})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
}

func TestReadDocument(t *testing.T) {
	yamlInput := `
directed: true
nodes: [x]
edges:
  - {source: a, target: b, weight: 2}
  - {source: b, target: c, directed: false}
`
	jsonInput := `{"directed": true, "nodes": ["x"], "edges": [
  {"source": "a", "target": "b", "weight": 2},
  {"source": "b", "target": "c", "directed": false}
]}`

	for format, input := range map[Format]string{FormatYAML: yamlInput, FormatJSON: jsonInput} {
		t.Run(string(format), func(t *testing.T) {
			g, err := Read(strings.NewReader(input), Options{Format: format})
			require.NoError(t, err)

			assert.Equal(t, 4, g.NodeCount())
			assert.Equal(t, 2.0, edgeOf(t, g, "a", "b").Weight)
			assert.True(t, edgeOf(t, g, "a", "b").Directed)
			assert.False(t, edgeOf(t, g, "b", "c").Directed)
		})
	}

	_, err := Read(strings.NewReader("edges: [{source: a, target: b, colour: red}]"), Options{Format: FormatYAML})
	assert.Error(t, err, "unknown fields are rejected")

	g, err := Read(strings.NewReader(""), Options{Format: FormatYAML})
	require.NoError(t, err)
	assert.Equal(t, 0, g.NodeCount())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edges.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\nb,c\n"), 0o600))

	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, logging.DebugLevel)

	g, err := LoadFile(path, Options{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	assert.Contains(t, buf.String(), "graph loaded")

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), Options{})
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = LoadFile(filepath.Join(dir, "graph.bin"), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Read(strings.NewReader(""), Options{Format: "gml"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
