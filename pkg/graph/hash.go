package graph

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// The content hash is the wrapping sum of per-node and per-edge digests, so it
// is independent of insertion order and can be maintained incrementally.

func nodeHash(id NodeID) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString("n\x00")
	_, _ = d.WriteString(string(id))
	return d.Sum64()
}

func edgeHash(e Edge) uint64 {
	src, dst := e.Source, e.Target
	kind := "d"
	if !e.Directed {
		kind = "u"
		if dst < src {
			src, dst = dst, src
		}
	}

	var w [8]byte
	binary.LittleEndian.PutUint64(w[:], math.Float64bits(e.Weight))

	d := xxhash.New()
	_, _ = d.WriteString("e\x00" + kind + "\x00")
	_, _ = d.WriteString(string(src))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(dst))
	_, _ = d.WriteString("\x00")
	_, _ = d.Write(w[:])
	return d.Sum64()
}
