package vectorstore

import "ragmcp/internal/domain"

// Storage holds embedded chunks, answers similarity queries and persists itself as a snapshot.
type Storage interface {
	AddChunks(chunks []domain.Chunk)
	// Replace swaps the whole collection in one step.
	Replace(chunks []domain.Chunk)
	Search(query []float64, topK int, minSimilarity float64) []domain.SearchResult
	Save(embeddingModel string, chunkSize int) error
	// Publish writes chunks as the new snapshot and swaps them in only once the write succeeded.
	Publish(chunks []domain.Chunk, embeddingModel string, chunkSize int) error
	// Load reports whether a snapshot was read. A missing or unreadable file leaves the store as is.
	Load() bool
	Size() int
	Clear()
	AllChunks() []domain.Chunk
	Metadata() (domain.SnapshotMetadata, bool)
	Path() string
}
