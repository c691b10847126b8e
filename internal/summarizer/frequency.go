// Package summarizer picks the sentences of a passage that best cover a question.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	defaultSentences = 5
	focusBonus       = 2.0
)

var (
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?\n]+(?:[.!?]|\n|$))`)
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
)

const stopwordList = `a an the and or but if then else for to of in on at by with as is are was were
be been being it this that these those from up down over under again further than so such into
about between through during before after above below out off own same too very can will just
don should now what which who whom how why when where do does did i you we they me my your`

// FrequencySummarizer ranks sentences by normalised term frequency, boosted by
// overlap with a focus question.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

func NewFrequencySummarizer() *FrequencySummarizer {
	words := strings.Fields(stopwordList)
	stop := make(map[string]struct{}, len(words))
	for _, w := range words {
		stop[w] = struct{}{}
	}
	return &FrequencySummarizer{stopwords: stop}
}

type rankedSentence struct {
	index int
	score float64
}

// Focus picks the maxSentences sentences of text that best match focus, breaking ties by
// overall term frequency. An empty focus ranks on frequency alone. The chosen sentences
// keep their order in text.
func (s *FrequencySummarizer) Focus(text, focus string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = defaultSentences
	}
	sentences := s.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	weights := s.termWeights(sentences)
	boost := s.Keywords(focus)
	ranked := make([]rankedSentence, len(sentences))
	for i, sent := range sentences {
		ranked[i] = rankedSentence{index: i, score: s.score(sent, weights, boost)}
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	keep := ranked[:min(maxSentences, len(ranked))]
	sort.Slice(keep, func(a, b int) bool { return keep[a].index < keep[b].index })
	parts := make([]string, len(keep))
	for i, r := range keep {
		parts[i] = sentences[r.index]
	}
	return strings.Join(parts, " ")
}

// termWeights counts non-stopword terms across sentences, scaled so the most frequent is 1.
func (s *FrequencySummarizer) termWeights(sentences []string) map[string]float64 {
	counts := make(map[string]float64)
	top := 0.0
	for _, sent := range sentences {
		for _, tok := range s.tokens(sent) {
			if s.isStopword(tok) {
				continue
			}
			counts[tok]++
			top = math.Max(top, counts[tok])
		}
	}
	if top > 0 {
		for term := range counts {
			counts[term] /= top
		}
	}
	return counts
}

// score is length-normalised so long sentences don't win on volume.
func (s *FrequencySummarizer) score(sentence string, weights map[string]float64, boost map[string]struct{}) float64 {
	toks := s.tokens(sentence)
	if len(toks) == 0 {
		return 0
	}
	total := 0.0
	for _, tok := range toks {
		total += weights[tok]
		if _, ok := boost[tok]; ok {
			total += focusBonus
		}
	}
	return total / math.Sqrt(float64(len(toks)))
}

// Sentences splits text on sentence terminators and line breaks, dropping blanks.
func (s *FrequencySummarizer) Sentences(text string) []string {
	var out []string
	for _, m := range sentencePattern.FindAllString(text, -1) {
		if t := strings.TrimSpace(m); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Keywords returns the lower-cased non-stopword tokens of text.
func (s *FrequencySummarizer) Keywords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range s.tokens(text) {
		if !s.isStopword(tok) {
			out[tok] = struct{}{}
		}
	}
	return out
}

func (s *FrequencySummarizer) isStopword(tok string) bool {
	_, ok := s.stopwords[tok]
	return ok
}

func (s *FrequencySummarizer) tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}
