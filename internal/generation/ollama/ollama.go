// Package ollama generates answers with a local Ollama model.
package ollama

import (
	"context"
	"errors"
	"strings"
	"time"

	"ragmcp/internal/domain"
	"ragmcp/internal/generation/prompt"
	"ragmcp/internal/remote"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	// DefaultTimeout allows for slow local inference.
	DefaultTimeout = 120 * time.Second
)

var _ domain.Generator = (*Generator)(nil)

type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type Generator struct {
	client *remote.Client
	model  string
}

func New(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Generator{
		client: remote.New(remote.Config{
			Provider:   "ollama",
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}),
		model: cfg.Model,
	}
}

type generateRequest struct {
	Model  string         `json:"model"`
	System string         `json:"system,omitempty"`
	Prompt string         `json:"prompt"`
	Stream bool           `json:"stream"`
	Opts   map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (g *Generator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	req := generateRequest{
		Model:  g.model,
		System: prompt.System,
		Prompt: prompt.User(question, contextBlock),
		Opts:   map[string]any{"temperature": 0.7, "num_predict": 500},
	}
	var resp generateResponse
	if err := g.client.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	answer := strings.TrimSpace(resp.Response)
	if answer == "" {
		return "", domain.Rejected("ollama", 0, errors.New("empty response"))
	}
	return answer, nil
}

func (g *Generator) ModelName() string { return "ollama:" + g.model }
func (g *Generator) Close() error      { return nil }
