package chunker

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"ragmcp/internal/domain"
)

const (
	DefaultChunkSize   = 500
	DefaultOverlapSize = 100

	// sentenceWindow bounds how far a chunk end may move to land on a sentence terminator.
	sentenceWindow = 100
	// wordWindow bounds the whitespace fallback search in either direction.
	wordWindow = 50
	// maxHeadings is how many enclosing headings a chunk remembers.
	maxHeadings = 3
)

// OverlapChunker splits text into fixed-size character windows that prefer to end on
// sentence or word boundaries, with a configurable overlap between consecutive windows.
type OverlapChunker struct {
	chunkSize   int
	overlapSize int
	newID       func() string
}

func NewOverlapChunker(chunkSize, overlapSize int) *OverlapChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlapSize < 0 {
		overlapSize = 0
	}
	return &OverlapChunker{
		chunkSize:   chunkSize,
		overlapSize: overlapSize,
		newID:       func() string { return uuid.New().String() },
	}
}

// ChunkSize returns the configured target window size in characters.
func (c *OverlapChunker) ChunkSize() int { return c.chunkSize }

type heading struct {
	line int
	text string
}

type span struct {
	text       string
	start, end int
}

func (c *OverlapChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	spans := c.split(runes)
	if len(spans) == 0 {
		return nil, nil
	}

	headings := extractHeadings(document.Content)
	documentID := c.newID()
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:      c.newID(),
			Content: s.text,
			Metadata: domain.ChunkMetadata{
				DocumentID:      documentID,
				ChunkIndex:      i,
				TotalChunks:     len(spans),
				Source:          document.Metadata.Source,
				Title:           document.Metadata.Title,
				HeadingsContext: headingsBefore(headings, startLine(runes, s.start)),
				StartOffset:     s.start,
				EndOffset:       s.end,
			},
		})
	}
	return chunks, nil
}

func (c *OverlapChunker) split(runes []rune) []span {
	n := len(runes)
	var spans []span
	start := 0
	for start < n {
		end := start + c.chunkSize
		if end >= n {
			end = n
		} else {
			end = boundary(runes, start, end)
		}

		if text := strings.TrimSpace(string(runes[start:end])); text != "" {
			spans = append(spans, span{text: text, start: start, end: end})
		}
		if end == n {
			break
		}

		next := end - c.overlapSize
		if next <= start {
			next = end
		}
		start = next
	}
	return spans
}

// boundary picks the end of the window starting at start whose nominal end is target.
// The result is always in (start, len(runes)].
func boundary(runes []rune, start, target int) int {
	if pos, ok := sentenceBoundary(runes, start, target); ok {
		return pos
	}
	return wordBoundary(runes, start, target)
}

// sentenceBoundary finds the sentence terminator nearest to target within the window.
// The returned position is just past the terminator and its trailing space or newline.
func sentenceBoundary(runes []rune, start, target int) (int, bool) {
	from := max(0, target-sentenceWindow)
	to := min(len(runes), target+sentenceWindow)

	best, bestDistance := -1, sentenceWindow
	for i := from; i+1 < to; i++ {
		if !isTerminator(runes[i]) || (runes[i+1] != ' ' && runes[i+1] != '\n') {
			continue
		}
		pos := i + 2
		if pos <= start {
			continue
		}
		if d := abs(pos - target); d < bestDistance {
			best, bestDistance = pos, d
		}
	}
	return best, best >= 0
}

func wordBoundary(runes []rune, start, target int) int {
	for i := target; i < min(len(runes), target+wordWindow); i++ {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	for i := target; i >= max(start+1, target-wordWindow); i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return target
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func extractHeadings(content string) []heading {
	var out []heading
	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		if text != "" {
			out = append(out, heading{line: i, text: text})
		}
	}
	return out
}

func startLine(runes []rune, offset int) int {
	line := 0
	for _, r := range runes[:offset] {
		if r == '\n' {
			line++
		}
	}
	return line
}

func headingsBefore(headings []heading, line int) []string {
	out := []string{}
	for _, h := range headings {
		if h.line >= line {
			break
		}
		out = append(out, h.text)
	}
	if len(out) > maxHeadings {
		out = out[len(out)-maxHeadings:]
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
