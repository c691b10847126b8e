package domain

import (
	"encoding/json"
	"unicode/utf8"
)

// SnapshotVersion is written into every persisted snapshot.
const SnapshotVersion = "1.0"

// NoRelevantInformation is the answer returned when retrieval finds nothing above the threshold.
const NoRelevantInformation = "No relevant information found in the knowledge base."

// QueryChunkID identifies the synthetic chunk used to embed a query. It is never persisted.
const QueryChunkID = "query"

// StructuralStats summarises the shape of an ingested document.
type StructuralStats struct {
	Lines      int `json:"lines"`
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Headings   int `json:"headings"`
	ListItems  int `json:"listItems"`
	CodeBlocks int `json:"codeBlocks"`
}

// DocumentMetadata describes where a document came from.
type DocumentMetadata struct {
	Source   string          `json:"source"`
	Title    string          `json:"title"`
	FileType string          `json:"fileType"`
	Stats    StructuralStats `json:"stats"`
}

// Document represents a single text file loaded into the system.
type Document struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// ChunkMetadata locates a chunk inside its document.
// Offsets are character offsets into the document content, end exclusive.
type ChunkMetadata struct {
	DocumentID      string   `json:"documentId"`
	ChunkIndex      int      `json:"chunkIndex"`
	TotalChunks     int      `json:"totalChunks"`
	Source          string   `json:"source"`
	Title           string   `json:"title"`
	HeadingsContext []string `json:"headingsContext"`
	StartOffset     int      `json:"startOffset"`
	EndOffset       int      `json:"endOffset"`
}

// UnmarshalJSON accepts both the current field names and the older
// headings/startChar/endChar names.
func (m *ChunkMetadata) UnmarshalJSON(data []byte) error {
	type plain ChunkMetadata
	var raw struct {
		plain
		Headings  []string `json:"headings"`
		StartChar *int     `json:"startChar"`
		EndChar   *int     `json:"endChar"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ChunkMetadata(raw.plain)
	if m.HeadingsContext == nil && raw.Headings != nil {
		m.HeadingsContext = raw.Headings
	}
	if raw.StartChar != nil && m.StartOffset == 0 {
		m.StartOffset = *raw.StartChar
	}
	if raw.EndChar != nil && m.EndOffset == 0 {
		m.EndOffset = *raw.EndChar
	}
	return nil
}

// Chunk is a contiguous piece of a document. A nil Embedding means the chunk was never embedded.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Embedding []float64     `json:"embedding"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// HasEmbedding reports whether the chunk carries a usable vector.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// NewQueryChunk wraps a query so it can travel through the embedding path like any chunk.
func NewQueryChunk(query string) Chunk {
	return Chunk{
		ID:      QueryChunkID,
		Content: query,
		Metadata: ChunkMetadata{
			DocumentID:      QueryChunkID,
			TotalChunks:     1,
			Source:          "query",
			Title:           "Query",
			HeadingsContext: []string{},
			EndOffset:       utf8.RuneCountInString(query),
		},
	}
}

// SnapshotMetadata is stored alongside the chunks in a snapshot file.
type SnapshotMetadata struct {
	Version        string   `json:"version"`
	CreatedAt      string   `json:"createdAt"`
	EmbeddingModel string   `json:"embeddingModel"`
	ChunkSize      int      `json:"chunkSize"`
	TotalChunks    int      `json:"totalChunks"`
	Sources        []string `json:"sources"`
}

// Snapshot is the persisted form of the vector store.
type Snapshot struct {
	Chunks   []Chunk          `json:"chunks"`
	Metadata SnapshotMetadata `json:"metadata"`
}

// SearchResult represents a matching chunk with its cosine similarity to the query.
type SearchResult struct {
	Chunk      Chunk   `json:"chunk"`
	Similarity float64 `json:"similarity"`
}

// SourceReference is the caller-facing summary of one retrieved chunk.
type SourceReference struct {
	Source     string  `json:"source"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	ChunkID    string  `json:"chunkId"`
	Excerpt    string  `json:"excerpt"`
}

// RagResponse is the outcome of a query.
type RagResponse struct {
	Query          string            `json:"query"`
	Answer         string            `json:"answer"`
	Sources        []SourceReference `json:"sources"`
	RetrievedCount int               `json:"retrievedCount"`
}
