package service

import (
	"fmt"
	"strings"

	"ragmcp/internal/domain"
)

// FormatContext renders ranked results into the context block handed to the generator.
func FormatContext(results []domain.SearchResult) string {
	var b strings.Builder
	for i, r := range results {
		md := r.Chunk.Metadata
		fmt.Fprintf(&b, "--- Source %d ---\n", i+1)
		fmt.Fprintf(&b, "Title: %s\n", md.Title)
		fmt.Fprintf(&b, "Source: %s\n", md.Source)
		fmt.Fprintf(&b, "Similarity: %.3f\n", r.Similarity)
		if len(md.HeadingsContext) > 0 {
			fmt.Fprintf(&b, "Context: %s\n", strings.Join(md.HeadingsContext, " > "))
		}
		b.WriteString("\n")
		b.WriteString(r.Chunk.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Excerpt returns the first 150 characters of content followed by "...".
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return string(runes) + "..."
}

// FormatResponse renders a response as plain text for tool and terminal output.
func FormatResponse(resp domain.RagResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", resp.Query)
	fmt.Fprintf(&b, "Answer: %s\n\n", resp.Answer)
	fmt.Fprintf(&b, "Sources (%d chunks):\n", resp.RetrievedCount)
	for i, s := range resp.Sources {
		fmt.Fprintf(&b, "  [%d] %s (%.3f)\n", i+1, s.Title, s.Similarity)
		fmt.Fprintf(&b, "      %s\n", s.Excerpt)
	}
	return b.String()
}

// Hit is a search result stripped of its embedding.
type Hit struct {
	ChunkID         string   `json:"chunkId"`
	Source          string   `json:"source"`
	Title           string   `json:"title"`
	Similarity      float64  `json:"similarity"`
	HeadingsContext []string `json:"headingsContext"`
	Content         string   `json:"content"`
}

func Hits(results []domain.SearchResult) []Hit {
	out := make([]Hit, 0, len(results))
	for _, r := range results {
		out = append(out, Hit{
			ChunkID:         r.Chunk.ID,
			Source:          r.Chunk.Metadata.Source,
			Title:           r.Chunk.Metadata.Title,
			Similarity:      r.Similarity,
			HeadingsContext: r.Chunk.Metadata.HeadingsContext,
			Content:         r.Chunk.Content,
		})
	}
	return out
}

// FormatHits renders search hits as plain text.
func FormatHits(hits []Hit) string {
	if len(hits) == 0 {
		return domain.NoRelevantInformation + "\n"
	}
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s (%.3f)\n", i+1, h.Title, h.Similarity)
		fmt.Fprintf(&b, "    Source: %s\n", h.Source)
		if len(h.HeadingsContext) > 0 {
			fmt.Fprintf(&b, "    Context: %s\n", strings.Join(h.HeadingsContext, " > "))
		}
		fmt.Fprintf(&b, "    %s\n\n", h.Content)
	}
	return b.String()
}
