package domain

import "context"

// Embedder converts free text into numeric vectors.
// The i-th returned vector belongs to the i-th input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
	ModelName() string
	Close() error
}

// Generator produces an answer to a question from an already-formatted context block.
type Generator interface {
	Generate(ctx context.Context, question, context string) (string, error)
	ModelName() string
	Close() error
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}
