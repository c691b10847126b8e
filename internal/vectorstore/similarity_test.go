package vectorstore

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragmcp/internal/domain"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"zero norm", []float64{0, 0}, []float64{1, 1}, 0},
		{"scaled", []float64{1, 2}, []float64{2, 4}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float64{0.3, -1.2, 4.5, 0.01}
	b := []float64{2.2, 0.4, -0.7, 3.3}
	ab, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	ba, err := CosineSimilarity(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-12)
	assert.LessOrEqual(t, math.Abs(ab), 1.0)
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func chunk(id, source string) domain.Chunk {
	return domain.Chunk{ID: id, Content: "c " + id, Metadata: domain.ChunkMetadata{Source: source, HeadingsContext: []string{}}}
}

func TestBuildSnapshot_SourcesInFirstSeenOrder(t *testing.T) {
	chunks := []domain.Chunk{chunk("1", "b.md"), chunk("2", "a.md"), chunk("3", "b.md"), chunk("4", "c.txt")}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	snap := BuildSnapshot(chunks, "simple-hash-embedding", 500, now)
	assert.Equal(t, []string{"b.md", "a.md", "c.txt"}, snap.Metadata.Sources)
	assert.Equal(t, 4, snap.Metadata.TotalChunks)
	assert.Equal(t, domain.SnapshotVersion, snap.Metadata.Version)
	assert.Equal(t, "2026-01-02T03:04:05Z", snap.Metadata.CreatedAt)
	assert.Equal(t, 500, snap.Metadata.ChunkSize)
}

func TestWriteAndReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	c := chunk("1", "a.md")
	c.Embedding = []float64{0.6, 0.8}
	snap := BuildSnapshot([]domain.Chunk{c, chunk("2", "a.md")}, "m", 100, time.Now())

	require.NoError(t, WriteSnapshot(path, snap))
	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Metadata, got.Metadata)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, []float64{0.6, 0.8}, got.Chunks[0].Embedding)
	assert.Nil(t, got.Chunks[1].Embedding)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is cleaned up")
}

func TestReadSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadSnapshot(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = ReadSnapshot(bad)
	assert.ErrorIs(t, err, domain.ErrMalformedSnapshot)
}

func TestReadSnapshot_ToleratesMissingAndUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	data := `{"chunks":[{"id":"x","content":"hello","metadata":{"source":"a.md","headings":["H"],"startChar":1,"endChar":6}}],
		"extra":{"ignored":true}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.Chunks, 1)
	assert.Equal(t, domain.SnapshotVersion, snap.Metadata.Version)
	assert.Equal(t, 1, snap.Metadata.TotalChunks)
	assert.Equal(t, []string{"H"}, snap.Chunks[0].Metadata.HeadingsContext)
	assert.Equal(t, 6, snap.Chunks[0].Metadata.EndOffset)
	assert.False(t, snap.Chunks[0].HasEmbedding())
}
