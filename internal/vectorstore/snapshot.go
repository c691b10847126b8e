package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ragmcp/internal/domain"
)

// BuildSnapshot assembles the persisted form of chunks. Sources are listed once each,
// in order of first appearance.
func BuildSnapshot(chunks []domain.Chunk, embeddingModel string, chunkSize int, now time.Time) domain.Snapshot {
	seen := make(map[string]struct{})
	sources := []string{}
	for _, c := range chunks {
		if _, ok := seen[c.Metadata.Source]; ok {
			continue
		}
		seen[c.Metadata.Source] = struct{}{}
		sources = append(sources, c.Metadata.Source)
	}
	if chunks == nil {
		chunks = []domain.Chunk{}
	}
	return domain.Snapshot{
		Chunks: chunks,
		Metadata: domain.SnapshotMetadata{
			Version:        domain.SnapshotVersion,
			CreatedAt:      now.UTC().Format(time.RFC3339),
			EmbeddingModel: embeddingModel,
			ChunkSize:      chunkSize,
			TotalChunks:    len(chunks),
			Sources:        sources,
		},
	}
}

// WriteSnapshot writes snap as indented JSON, replacing path via a temporary file in the same directory.
func WriteSnapshot(path string, snap domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot parses the snapshot at path. A file that exists but does not decode
// yields an error wrapping domain.ErrMalformedSnapshot; a missing file yields an
// error satisfying os.IsNotExist.
func ReadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedSnapshot, path, err)
	}
	if snap.Metadata.Version == "" {
		snap.Metadata.Version = domain.SnapshotVersion
	}
	if snap.Metadata.TotalChunks == 0 {
		snap.Metadata.TotalChunks = len(snap.Chunks)
	}
	for i := range snap.Chunks {
		if snap.Chunks[i].Metadata.HeadingsContext == nil {
			snap.Chunks[i].Metadata.HeadingsContext = []string{}
		}
	}
	return snap, nil
}
