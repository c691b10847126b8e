// Package hash implements a deterministic, offline embedder.
//
// Vectors carry no semantic meaning beyond exact lexical identity, but they are
// stable across runs and machines, which keeps the pipeline usable without any
// model service.
package hash

import (
	"context"
	"math"
	"strings"
	"unicode/utf16"

	"ragmcp/internal/domain"
)

const (
	ModelName        = "simple-hash-embedding"
	DefaultDimension = 384
)

var _ domain.Embedder = (*Embedder)(nil)

// Embedder derives every component from a seeded rolling hash of the normalised text.
type Embedder struct {
	dimension int
}

func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Dimension() int    { return e.dimension }
func (e *Embedder) ModelName() string { return ModelName }
func (e *Embedder) Close() error      { return nil }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float64 {
	units := utf16.Encode([]rune(strings.ToLower(strings.TrimSpace(text))))
	vec := make([]float64, e.dimension)
	var norm float64
	for i := range vec {
		// signed 32-bit, wrapping, over UTF-16 code units
		h := int32(i * 37)
		for _, u := range units {
			h = h*31 + int32(u)
			h ^= int32(uint32(h) >> 16)
		}
		v := float64(h%2000-1000) / 1000
		vec[i] = v
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
