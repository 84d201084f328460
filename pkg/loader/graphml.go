package loader

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type graphMLDoc struct {
	XMLName xml.Name      `xml:"graphml"`
	Keys    []graphMLKey  `xml:"key"`
	Graphs  []graphMLBody `xml:"graph"`
}

type graphMLKey struct {
	ID      string `xml:"id,attr"`
	For     string `xml:"for,attr"`
	Name    string `xml:"attr.name,attr"`
	Default string `xml:"default"`
}

type graphMLBody struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID string `xml:"id,attr"`
}

type graphMLEdge struct {
	Source   string        `xml:"source,attr"`
	Target   string        `xml:"target,attr"`
	Directed string        `xml:"directed,attr"`
	Data     []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// readGraphML reads the first <graph> of a GraphML document. Edge weights
// come from the edge data key whose attr.name is "weight".
func readGraphML(r io.Reader, b *builder) error {
	var doc graphMLDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return &ParseError{Format: b.opts.Format, Err: err}
	}
	if len(doc.Graphs) == 0 {
		return &ParseError{Format: b.opts.Format, Err: fmt.Errorf("no <graph> element")}
	}
	body := doc.Graphs[0]

	weightKey, defaultWeight := "", ""
	for _, k := range doc.Keys {
		if strings.EqualFold(k.Name, "weight") && (k.For == "edge" || k.For == "all" || k.For == "") {
			weightKey, defaultWeight = k.ID, strings.TrimSpace(k.Default)
			break
		}
	}

	edgeDefault := b.opts.Directed
	switch body.EdgeDefault {
	case "directed":
		edgeDefault = true
	case "undirected":
		edgeDefault = false
	}

	// Positions are record numbers in document order
	for i, n := range body.Nodes {
		if err := b.node(i+1, n.ID); err != nil {
			return err
		}
	}

	for i, e := range body.Edges {
		pos := len(body.Nodes) + i + 1

		directed := edgeDefault
		if e.Directed != "" {
			d, err := strconv.ParseBool(e.Directed)
			if err != nil {
				return &ParseError{Format: b.opts.Format, Line: pos, Err: fmt.Errorf("directed %q: %w", e.Directed, err)}
			}
			directed = d
		}

		raw := defaultWeight
		for _, d := range e.Data {
			if weightKey != "" && d.Key == weightKey {
				raw = strings.TrimSpace(d.Value)
			}
		}
		var weight *float64
		if raw != "" {
			w, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return &ParseError{Format: b.opts.Format, Line: pos, Err: fmt.Errorf("weight %q: %w", raw, err)}
			}
			weight = &w
		}

		if err := b.edge(pos, e.Source, e.Target, weight, &directed); err != nil {
			return err
		}
	}
	return nil
}
