package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// readDelimited reads "source,target[,weight[,directed]]" records. Lines
// starting with # are comments. A first record whose weight column is not a
// number, or whose first two columns are "source" and "target", is a header.
// A single-column record declares an isolated node.
func readDelimited(r io.Reader, comma rune, b *builder) error {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.Comment = '#'
	reader.FieldsPerRecord = -1 // Allow optional weight and direction columns
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// csv.ParseError already carries the position
			return &ParseError{Format: b.opts.Format, Err: err}
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		if len(record) == 1 {
			if err := b.node(line, record[0]); err != nil {
				return err
			}
			continue
		}

		var weight *float64
		if len(record) > 2 && record[2] != "" {
			w, err := strconv.ParseFloat(record[2], 64)
			if err != nil {
				return &ParseError{Format: b.opts.Format, Line: line, Err: fmt.Errorf("weight %q: %w", record[2], err)}
			}
			weight = &w
		}

		var directed *bool
		if len(record) > 3 && record[3] != "" {
			d, err := strconv.ParseBool(record[3])
			if err != nil {
				return &ParseError{Format: b.opts.Format, Line: line, Err: fmt.Errorf("directed %q: %w", record[3], err)}
			}
			directed = &d
		}

		if err := b.edge(line, record[0], record[1], weight, directed); err != nil {
			return err
		}
	}
}

func isHeader(record []string) bool {
	if len(record) >= 2 &&
		strings.EqualFold(strings.TrimSpace(record[0]), "source") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "target") {
		return true
	}
	if len(record) >= 3 {
		_, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		return err != nil
	}
	return false
}
