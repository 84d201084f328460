package loader

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the YAML/JSON graph layout:
//
//	directed: false
//	nodes: [a, b, c]
//	edges:
//	  - {source: a, target: b, weight: 2}
//	  - {source: b, target: c, directed: true}
type document struct {
	Directed *bool          `yaml:"directed"`
	Nodes    []string       `yaml:"nodes"`
	Edges    []documentEdge `yaml:"edges"`
}

type documentEdge struct {
	Source   string   `yaml:"source"`
	Target   string   `yaml:"target"`
	Weight   *float64 `yaml:"weight"`
	Directed *bool    `yaml:"directed"`
}

// readDocument reads YAML, and JSON as its subset
func readDocument(r io.Reader, b *builder) error {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ParseError{Format: b.opts.Format, Err: fmt.Errorf("decode: %w", err)}
	}

	if doc.Directed != nil {
		b.opts.Directed = *doc.Directed
	}
	for i, id := range doc.Nodes {
		if err := b.node(i+1, id); err != nil {
			return err
		}
	}
	for i, e := range doc.Edges {
		if err := b.edge(len(doc.Nodes)+i+1, e.Source, e.Target, e.Weight, e.Directed); err != nil {
			return err
		}
	}
	return nil
}
