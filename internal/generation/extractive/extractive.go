// Package extractive answers questions offline by quoting the most relevant
// sentences of the retrieved context.
package extractive

import (
	"context"
	"strings"

	"ragmcp/internal/domain"
	"ragmcp/internal/summarizer"
)

const ModelName = "extractive-summarizer"

var _ domain.Generator = (*Generator)(nil)

// headerPrefixes mark the per-source header lines of a formatted context block.
var headerPrefixes = []string{"--- Source ", "Title: ", "Source: ", "Similarity: ", "Context: "}

type Generator struct {
	summarizer   *summarizer.FrequencySummarizer
	maxSentences int
}

func New(maxSentences int) *Generator {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Generator{summarizer: summarizer.NewFrequencySummarizer(), maxSentences: maxSentences}
}

func (g *Generator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	passages := stripHeaders(contextBlock)
	answer := g.summarizer.Focus(passages, question, g.maxSentences)

	var b strings.Builder
	b.WriteString("Based on the retrieved context, here's what I found:\n\n")
	b.WriteString("Query: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	if answer == "" {
		b.WriteString("The retrieved passages contain no readable text.")
	} else {
		b.WriteString(answer)
	}
	b.WriteString("\n")
	return b.String(), nil
}

func (g *Generator) ModelName() string { return ModelName }
func (g *Generator) Close() error      { return nil }

func stripHeaders(block string) string {
	var kept []string
	for _, line := range strings.Split(block, "\n") {
		if isHeader(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isHeader(line string) bool {
	for _, p := range headerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
