package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ragmcp/internal/domain"
)

func TestFormatContext(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Content: "First body.", Metadata: domain.ChunkMetadata{Title: "T1", Source: "s1", HeadingsContext: []string{"A", "B"}}}, Similarity: 0.91234},
		{Chunk: domain.Chunk{Content: "Second body.", Metadata: domain.ChunkMetadata{Title: "T2", Source: "s2"}}, Similarity: 0.5},
	}
	want := "--- Source 1 ---\nTitle: T1\nSource: s1\nSimilarity: 0.912\nContext: A > B\n\nFirst body.\n\n" +
		"--- Source 2 ---\nTitle: T2\nSource: s2\nSimilarity: 0.500\n\nSecond body.\n\n"
	assert.Equal(t, want, FormatContext(results))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short...", Excerpt("short"))
	long := strings.Repeat("é", 200)
	assert.Equal(t, strings.Repeat("é", 150)+"...", Excerpt(long))
}

func TestFormatResponse(t *testing.T) {
	resp := domain.RagResponse{
		Query:          "what?",
		Answer:         "this.",
		RetrievedCount: 1,
		Sources:        []domain.SourceReference{{Title: "Doc", Similarity: 0.8766, Excerpt: "body..."}},
	}
	want := "Query: what?\n\nAnswer: this.\n\nSources (1 chunks):\n  [1] Doc (0.877)\n      body...\n"
	assert.Equal(t, want, FormatResponse(resp))
}

func TestHits(t *testing.T) {
	hits := Hits([]domain.SearchResult{{
		Chunk: domain.Chunk{
			ID:        "c1",
			Content:   "text",
			Embedding: []float64{1, 2},
			Metadata:  domain.ChunkMetadata{Source: "s", Title: "t", HeadingsContext: []string{"h"}},
		},
		Similarity: 0.4,
	}})
	assert.Equal(t, []Hit{{ChunkID: "c1", Source: "s", Title: "t", Similarity: 0.4, HeadingsContext: []string{"h"}, Content: "text"}}, hits)
	assert.NotNil(t, Hits(nil))
}

func TestFormatHits(t *testing.T) {
	assert.Equal(t, domain.NoRelevantInformation+"\n", FormatHits(nil))

	hits := []Hit{{Title: "Doc", Source: "docs/a.md", Similarity: 0.5, HeadingsContext: []string{"A", "B"}, Content: "body"}}
	assert.Equal(t, "[1] Doc (0.500)\n    Source: docs/a.md\n    Context: A > B\n    body\n\n", FormatHits(hits))
}
