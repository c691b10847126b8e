// Package gemini provides an embedder backed by the Google Generative AI API.
package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"google.golang.org/api/option"

	"ragmcp/internal/domain"
	"ragmcp/internal/remote"
)

const (
	DefaultModel     = "text-embedding-004"
	DefaultDimension = 768
)

var _ domain.Embedder = (*Embedder)(nil)

type Config struct {
	APIKeyEnv string
	Model     string
	Dimension int
}

// Embedder batches texts into a single BatchEmbedContents call.
type Embedder struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	name      string
	dimension int
	breaker   *gobreaker.CircuitBreaker
}

func New(ctx context.Context, cfg Config) (*Embedder, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultDimension
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Embedder{
		client:    client,
		model:     client.EmbeddingModel(cfg.Model),
		name:      cfg.Model,
		dimension: cfg.Dimension,
		breaker:   remote.NewBreaker("gemini-embeddings"),
	}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batch := e.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	var resp *genai.BatchEmbedContentsResponse
	err := remote.Guard(e.breaker, "gemini", func() error {
		var err error
		resp, err = e.model.BatchEmbedContents(ctx, batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([][]float64, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, toFloat64(emb.Values))
	}
	return out, nil
}

func (e *Embedder) Dimension() int    { return e.dimension }
func (e *Embedder) ModelName() string { return "gemini:" + e.name }
func (e *Embedder) Close() error      { return e.client.Close() }

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
