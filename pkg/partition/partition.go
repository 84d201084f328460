// Package partition assigns dense node indices to shards. The analytics
// engine uses it to split per-source and per-pair work across workers; an
// integrator can supply its own Strategy to place shards on other machines.
package partition

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// Strategy defines how node indices map to shards.
type Strategy interface {
	Partition(index int) int
	Count() int
}

// HashPartition partitions nodes by hash (simplest, good load balance)
type HashPartition struct {
	partitionCount int
}

// NewHashPartition creates a hash-based partitioning strategy
func NewHashPartition(partitionCount int) *HashPartition {
	if partitionCount < 1 {
		partitionCount = 1
	}
	return &HashPartition{partitionCount: partitionCount}
}

// Partition returns which shard an index belongs to
func (hp *HashPartition) Partition(index int) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(index))
	return int(xxhash.Sum64(b[:]) % uint64(hp.partitionCount))
}

// Count returns total number of shards
func (hp *HashPartition) Count() int {
	return hp.partitionCount
}

// RangePartition partitions by contiguous index ranges, keeping each shard's
// sources in ascending order.
type RangePartition struct {
	partitionCount int
	rangeSize      int
}

// NewRangePartition creates range-based partitioning over n indices
func NewRangePartition(partitionCount, n int) *RangePartition {
	if partitionCount < 1 {
		partitionCount = 1
	}
	rangeSize := (n + partitionCount - 1) / partitionCount
	if rangeSize < 1 {
		rangeSize = 1
	}
	return &RangePartition{
		partitionCount: partitionCount,
		rangeSize:      rangeSize,
	}
}

// Partition returns the shard for an index
func (rp *RangePartition) Partition(index int) int {
	p := index / rp.rangeSize
	if p >= rp.partitionCount {
		p = rp.partitionCount - 1
	}
	return p
}

// Count returns total shards
func (rp *RangePartition) Count() int {
	return rp.partitionCount
}

// Assign groups indices 0..n-1 into shards. Each shard lists its indices in
// ascending order.
func Assign(s Strategy, n int) [][]int {
	shards := make([][]int, s.Count())
	for i := 0; i < n; i++ {
		p := s.Partition(i)
		shards[p] = append(shards[p], i)
	}
	return shards
}

// Metrics contains partitioning quality metrics
type Metrics struct {
	PartitionSizes []int   // Nodes per shard
	EdgeCuts       []int   // Cut arcs per shard
	LoadBalance    float64 // 0-1 (1 = perfect balance)
	CutRatio       float64 // Fraction of arcs that are cuts
}

// ComputeMetrics analyzes how well a strategy splits g.
func ComputeMetrics(g *graph.Graph, s Strategy) *Metrics {
	partCount := s.Count()
	sizes := make([]int, partCount)
	cuts := make([]int, partCount)

	n := g.NodeCount()
	totalArcs := 0
	totalCuts := 0

	for i := 0; i < n; i++ {
		p := s.Partition(i)
		sizes[p]++

		for _, arc := range g.Out(i) {
			totalArcs++
			if s.Partition(arc.To) != p {
				cuts[p]++
				totalCuts++
			}
		}
	}

	balance := 1.0
	if n > 0 {
		avgSize := float64(n) / float64(partCount)
		variance := 0.0
		for _, size := range sizes {
			diff := float64(size) - avgSize
			variance += diff * diff
		}
		variance /= float64(partCount)
		balance = 1.0 / (1.0 + variance/avgSize)
	}

	cutRatio := 0.0
	if totalArcs > 0 {
		cutRatio = float64(totalCuts) / float64(totalArcs)
	}

	return &Metrics{
		PartitionSizes: sizes,
		EdgeCuts:       cuts,
		LoadBalance:    balance,
		CutRatio:       cutRatio,
	}
}
