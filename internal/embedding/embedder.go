// Package embedding selects an embedding provider and embeds chunks in batches.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ragmcp/internal/config"
	"ragmcp/internal/domain"
	"ragmcp/internal/embedding/gemini"
	"ragmcp/internal/embedding/hash"
	"ragmcp/internal/embedding/ollama"
	"ragmcp/internal/embedding/openai"
	"ragmcp/internal/logger"
)

// probeTimeout bounds the reachability check done for the auto provider.
const probeTimeout = 2 * time.Second

// New builds the embedder selected by cfg.Type. The auto type uses Ollama when it
// answers within probeTimeout and falls back to the offline hash embedder otherwise.
func New(ctx context.Context, cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hash":
		return newHash(cfg), nil
	case "ollama":
		return newOllama(cfg), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("embedder type openai requires an openai section")
		}
		return openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	case "gemini":
		if cfg.Gemini == nil {
			return nil, fmt.Errorf("embedder type gemini requires a gemini section")
		}
		return gemini.New(ctx, gemini.Config{APIKeyEnv: cfg.Gemini.APIKeyEnv, Model: cfg.Gemini.Model})
	case "auto", "":
		o := newOllama(cfg)
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := o.Ping(pctx); err != nil {
			logger.Info("ollama not reachable, using hash embeddings", "err", err)
			return newHash(cfg), nil
		}
		logger.Info("using ollama embeddings", "model", o.ModelName())
		return o, nil
	default:
		return nil, fmt.Errorf("unknown embedder type: %s", cfg.Type)
	}
}

// ProviderFor maps a snapshot's embedding model back to the auto-selectable provider
// that produced it. ok is false for models auto never picks.
func ProviderFor(model string) (provider, name string, ok bool) {
	switch {
	case model == hash.ModelName:
		return "hash", "", true
	case strings.HasPrefix(model, "ollama:"):
		return "ollama", strings.TrimPrefix(model, "ollama:"), true
	}
	return "", "", false
}

func newHash(cfg config.EmbedderConfig) *hash.Embedder {
	dim := 0
	if cfg.Hash != nil {
		dim = cfg.Hash.Dimension
	}
	return hash.New(dim)
}

func newOllama(cfg config.EmbedderConfig) *ollama.Embedder {
	oc := ollama.Config{}
	if cfg.Ollama != nil {
		oc = ollama.Config{
			BaseURL:    cfg.Ollama.BaseURL,
			Model:      cfg.Ollama.Model,
			Timeout:    time.Duration(cfg.Ollama.TimeoutSecs) * time.Second,
			MaxRetries: cfg.Ollama.MaxRetries,
		}
	}
	return ollama.New(oc)
}
