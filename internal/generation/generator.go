// Package generation selects the answer generator.
package generation

import (
	"context"
	"fmt"
	"time"

	"ragmcp/internal/config"
	"ragmcp/internal/domain"
	"ragmcp/internal/generation/extractive"
	"ragmcp/internal/generation/gemini"
	"ragmcp/internal/generation/ollama"
	"ragmcp/internal/generation/openai"
)

func New(ctx context.Context, cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "extractive", "":
		return extractive.New(cfg.MaxSentences), nil
	case "ollama":
		oc := ollama.Config{}
		if cfg.Ollama != nil {
			oc = ollama.Config{
				BaseURL:    cfg.Ollama.BaseURL,
				Model:      cfg.Ollama.Model,
				Timeout:    time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
				MaxRetries: cfg.Ollama.MaxRetries,
			}
		}
		return ollama.New(oc), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("generator type openai requires an openai section")
		}
		return openai.New(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries:  cfg.OpenAI.MaxRetries,
		})
	case "gemini":
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("generator type gemini requires a gemini section")
		}
		return gemini.New(ctx, gemini.Config{
			APIKeyEnv:   cfg.Gemini.APIKeyEnv,
			Model:       cfg.Gemini.Model,
			Temperature: float32(cfg.Gemini.Temperature),
			MaxTokens:   int32(cfg.Gemini.MaxTokens),
		})
	default:
		return nil, fmt.Errorf("unknown generator type: %s", cfg.Type)
	}
}
