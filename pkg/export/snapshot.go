package export

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-analytics/pkg/algorithms"
	"github.com/dd0wney/cluso-analytics/pkg/graph"
	"github.com/dd0wney/cluso-analytics/pkg/pipeline"
)

var snapshotMagic = [4]byte{'G', 'A', 'S', 'N'}

const snapshotVersion = 1

// Snapshot errors
var (
	ErrBadMagic        = errors.New("not a snapshot file")
	ErrVersion         = errors.New("unsupported snapshot version")
	ErrChecksum        = errors.New("snapshot checksum mismatch")
	ErrSnapshotTooLong = errors.New("snapshot payload too large")
)

// maxSnapshotPayload bounds the compressed payload read back from disk.
const maxSnapshotPayload = 1 << 30

// Snapshot is the serialisable form of an AnalysisResult.
type Snapshot struct {
	RunID      string                               `json:"run_id"`
	GraphHash  uint64                               `json:"graph_hash"`
	CreatedAt  time.Time                            `json:"created_at"`
	Nodes      []graph.NodeID                       `json:"nodes"`
	Edges      []graph.Edge                         `json:"edges"`
	Centrality map[string]map[graph.NodeID]float64  `json:"centrality"`
	Community  *CommunitySnapshot                   `json:"community,omitempty"`
	Links      *algorithms.LinkPredictionResult     `json:"links,omitempty"`
	Statistics *algorithms.GraphStatistics          `json:"statistics,omitempty"`
	Attributes map[graph.NodeID]pipeline.Attributes `json:"attributes"`
	Errors     map[string]string                    `json:"errors,omitempty"`
	Warnings   []string                             `json:"warnings,omitempty"`
	Timings    map[string]time.Duration             `json:"timings"`
	Partial    bool                                 `json:"partial"`
}

// CommunitySnapshot is the serialisable part of a CommunityAssignment.
type CommunitySnapshot struct {
	Algorithm   algorithms.CommunityAlgorithm `json:"algorithm"`
	Assignment  map[graph.NodeID]int          `json:"assignment"`
	Count       int                           `json:"count"`
	Modularity  float64                       `json:"modularity"`
	LevelCounts []int                         `json:"level_counts,omitempty"`
}

// NewSnapshot captures result. Errors and warnings keep only their messages.
func NewSnapshot(result *pipeline.AnalysisResult) *Snapshot {
	s := &Snapshot{
		RunID:      result.RunID,
		GraphHash:  result.GraphHash,
		CreatedAt:  result.StartedAt.UTC(),
		Nodes:      result.Graph.Nodes(),
		Edges:      result.Graph.Edges(),
		Centrality: make(map[string]map[graph.NodeID]float64, len(result.Centrality)),
		Links:      result.Links,
		Statistics: result.Statistics,
		Attributes: result.NodeAttributes,
		Timings:    result.Timings,
		Partial:    result.Partial,
	}
	for metric, scores := range result.Centrality {
		s.Centrality[metric] = scores.Scores
	}
	if c := result.Communities; c != nil {
		s.Community = &CommunitySnapshot{
			Algorithm:  c.Algorithm,
			Assignment: c.Communities,
			Count:      c.Count,
			Modularity: c.Modularity,
		}
		for _, level := range c.Levels {
			s.Community.LevelCounts = append(s.Community.LevelCounts, level.Count)
		}
	}
	if len(result.Errors) > 0 {
		s.Errors = make(map[string]string, len(result.Errors))
		for name, err := range result.Errors {
			s.Errors[name] = err.Error()
		}
	}
	for _, w := range result.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s
}

// WriteSnapshot writes result as snappy-compressed JSON.
// Format: [Magic:4][Version:1][Timestamp:8][DataLen:4][Data:N][Checksum:4]
func WriteSnapshot(w io.Writer, result *pipeline.AnalysisResult) error {
	data, err := json.Marshal(NewSnapshot(result))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	compressed := snappy.Encode(nil, data)

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := bw.WriteByte(snapshotVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, time.Now().Unix()); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(compressed))); err != nil {
		return err
	}
	if _, err := bw.Write(compressed); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, crc32.ChecksumIEEE(compressed)); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	reader := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(reader, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if magic != snapshotMagic {
		return nil, ErrBadMagic
	}
	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, version)
	}

	var timestamp int64
	if err := binary.Read(reader, binary.BigEndian, &timestamp); err != nil {
		return nil, err
	}
	var dataLen uint32
	if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
		return nil, err
	}
	if dataLen > maxSnapshotPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrSnapshotTooLong, dataLen)
	}

	compressed := make([]byte, dataLen)
	if _, err := io.ReadFull(reader, compressed); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	var checksum uint32
	if err := binary.Read(reader, binary.BigEndian, &checksum); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, ErrChecksum
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// SaveSnapshot writes result to path, replacing it atomically.
func SaveSnapshot(path string, result *pipeline.AnalysisResult) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := WriteSnapshot(f, result); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot reads the snapshot at path.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSnapshot(f)
}
