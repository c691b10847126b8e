// Package gemini generates answers with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"google.golang.org/api/option"

	"ragmcp/internal/domain"
	"ragmcp/internal/generation/prompt"
	"ragmcp/internal/remote"
)

const DefaultModel = "gemini-2.0-flash"

var _ domain.Generator = (*Generator)(nil)

type Config struct {
	APIKeyEnv   string
	Model       string
	Temperature float32
	MaxTokens   int32
}

type Generator struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	name    string
	breaker *gobreaker.CircuitBreaker
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxTokens)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}

	return &Generator{
		client:  client,
		model:   model,
		name:    cfg.Model,
		breaker: remote.NewBreaker("gemini-generate"),
	}, nil
}

func (g *Generator) Generate(ctx context.Context, question, contextBlock string) (string, error) {
	var resp *genai.GenerateContentResponse
	err := remote.Guard(g.breaker, "gemini", func() error {
		var err error
		resp, err = g.model.GenerateContent(ctx, genai.Text(prompt.User(question, contextBlock)))
		return err
	})
	if err != nil {
		return "", err
	}
	text := extractText(resp)
	if text == "" {
		return "", domain.Rejected("gemini", 0, errors.New("empty response"))
	}
	return text, nil
}

func (g *Generator) ModelName() string { return "gemini:" + g.name }
func (g *Generator) Close() error      { return g.client.Close() }

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		// first candidate only
		break
	}
	return strings.TrimSpace(b.String())
}
