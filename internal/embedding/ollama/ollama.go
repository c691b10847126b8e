// Package ollama provides an embedder backed by a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ragmcp/internal/domain"
	"ragmcp/internal/remote"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "embeddinggemma"
	// DefaultTimeout is longer than hosted APIs since local inference is slower.
	DefaultTimeout = 60 * time.Second
)

var modelDimensions = map[string]int{
	"embeddinggemma":    768,
	"all-minilm":        384,
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
}

var _ domain.Embedder = (*Embedder)(nil)

// Config configures the Ollama embedder.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Embedder calls /api/embeddings once per text.
type Embedder struct {
	client    *remote.Client
	model     string
	dimension int
}

func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	dim, ok := modelDimensions[baseModel(cfg.Model)]
	if !ok {
		dim = 768
	}
	return &Embedder{
		client: remote.New(remote.Config{
			Provider:   "ollama",
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}),
		model:     cfg.Model,
		dimension: dim,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for _, t := range texts {
		var resp embedResponse
		if err := e.client.PostJSON(ctx, "/api/embeddings", embedRequest{Model: e.model, Prompt: t}, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embedding) == 0 {
			return nil, domain.Rejected("ollama", 0, fmt.Errorf("empty embedding for model %s", e.model))
		}
		out = append(out, resp.Embedding)
	}
	return out, nil
}

func (e *Embedder) Dimension() int    { return e.dimension }
func (e *Embedder) ModelName() string { return "ollama:" + e.model }
func (e *Embedder) Close() error      { return nil }

// Ping checks that the server is reachable by listing its models.
func (e *Embedder) Ping(ctx context.Context) error {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := e.client.GetJSON(ctx, "/api/tags", &tags); err != nil {
		return fmt.Errorf("ping ollama: %w", err)
	}
	return nil
}

func baseModel(model string) string {
	name, _, _ := strings.Cut(model, ":")
	return name
}
