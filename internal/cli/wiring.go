package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ragmcp/internal/chunker"
	"ragmcp/internal/config"
	"ragmcp/internal/domain"
	"ragmcp/internal/embedding"
	"ragmcp/internal/generation"
	"ragmcp/internal/ingest"
	"ragmcp/internal/logger"
	"ragmcp/internal/progress"
	"ragmcp/internal/service"
	"ragmcp/internal/telemetry"
	"ragmcp/internal/vectorstore/memory"
)

// app holds the components wired for one command invocation.
type app struct {
	cfg      *config.AppConfig
	store    *memory.Storage
	svc      *service.RAGService
	loaded   bool
	shutdown telemetry.Shutdown
}

func loadConfig() (*config.AppConfig, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, path, err := config.LoadDefault()
	if err == nil {
		logger.Debug("loaded config", "path", path)
	}
	return cfg, err
}

// newApp wires config, providers, store and service once, in dependency order, for
// commands that read the store. Overrides run on the loaded config before anything
// is built from it.
func newApp(ctx context.Context, reporter progress.Reporter, overrides ...func(*config.AppConfig)) (*app, error) {
	return wire(ctx, reporter, true, overrides...)
}

// newIngestApp is newApp for rebuilding the store: the embedder is chosen from
// config alone since the snapshot is about to be replaced.
func newIngestApp(ctx context.Context, reporter progress.Reporter, overrides ...func(*config.AppConfig)) (*app, error) {
	return wire(ctx, reporter, false, overrides...)
}

func wire(ctx context.Context, reporter progress.Reporter, followSnapshot bool, overrides ...func(*config.AppConfig)) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if verbose {
		logger.SetVerbose(true)
	}

	shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	store := memory.NewStorage(cfg.VectorStore.Path)
	loaded := store.Load()
	if md, ok := store.Metadata(); ok && followSnapshot {
		followSnapshotEmbedder(&cfg.Embedder, md)
	}

	emb, err := embedding.New(ctx, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	gen, err := generation.New(ctx, cfg.Generator)
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("init generator: %w", err)
	}
	logger.Debug("providers ready", "embedder", emb.ModelName(), "generator", gen.ModelName())

	svc := service.NewRAGService(
		chunker.NewOverlapChunker(cfg.Chunker.ChunkSize, cfg.Chunker.OverlapSize),
		emb,
		store,
		gen,
		ingest.NewReader(cfg.Ingest.Recursive, cfg.Ingest.Exclude),
		service.Options{
			ChunkSize:  cfg.Chunker.ChunkSize,
			BatchSize:  cfg.Embedder.BatchSize,
			BatchDelay: time.Duration(cfg.Embedder.BatchDelayMS) * time.Millisecond,
			TopK:       cfg.Query.TopK,
			Progress:   reporter,
		},
	)
	if loaded && followSnapshot {
		if err := svc.CheckEmbedder(); err != nil {
			logger.Warn("vector store was built with a different embedder; re-run `ragmcp ingest`", "err", err)
		}
	}
	return &app{cfg: cfg, store: store, svc: svc, loaded: loaded, shutdown: shutdown}, nil
}

// followSnapshotEmbedder pins the auto embedder to the provider that built the
// loaded snapshot so queries land in the same vector space.
func followSnapshotEmbedder(cfg *config.EmbedderConfig, md domain.SnapshotMetadata) {
	if cfg.Type != "auto" && cfg.Type != "" {
		return
	}
	provider, name, ok := embedding.ProviderFor(md.EmbeddingModel)
	if !ok {
		return
	}
	cfg.Type = provider
	if provider == "ollama" {
		if cfg.Ollama == nil {
			cfg.Ollama = &config.OllamaConfig{}
		}
		cfg.Ollama.Model = name
	}
	logger.Debug("embedder follows snapshot", "type", provider, "model", md.EmbeddingModel)
}

func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(a.svc.Close(), a.shutdown(ctx))
}

// requireIndex warns when there is nothing to search yet.
func (a *app) requireIndex() {
	if !a.loaded || a.store.Size() == 0 {
		logger.Warn("vector store is empty; run `ragmcp ingest` first", "path", a.store.Path())
	}
}
