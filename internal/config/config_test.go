package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Embedder.Type)
	assert.Equal(t, 20, cfg.Embedder.BatchSize)
	assert.Equal(t, 100, cfg.Embedder.BatchDelayMS)
	assert.Equal(t, 384, cfg.Embedder.Hash.Dimension)
	assert.Equal(t, "embeddinggemma", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "extractive", cfg.Generator.Type)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.OverlapSize)
	assert.Equal(t, "vector_store.json", cfg.VectorStore.Path)
	assert.Equal(t, 5, cfg.Query.TopK)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
generator:
  type: openai
chunker:
  chunk_size: 800
  overlap_size: 50
vector_store:
  path: /tmp/store.json
query:
  top_k: 3
  min_similarity: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.OpenAI.Model)
	assert.Equal(t, 0.7, cfg.Generator.OpenAI.Temperature)
	assert.Equal(t, 500, cfg.Generator.OpenAI.MaxTokens)
	assert.Equal(t, 800, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.OverlapSize)
	assert.Equal(t, "/tmp/store.json", cfg.VectorStore.Path)
	assert.Equal(t, 3, cfg.Query.TopK)
	assert.Equal(t, 0.25, cfg.Query.MinSimilarity)
	assert.Nil(t, cfg.Embedder.Hash)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[embedder]
type = "ollama"

[embedder.ollama]
model = "nomic-embed-text"

[generator]
type = "ollama"

[ingest]
documents_dir = "notes"
recursive = true
exclude = ["drafts/**"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Ollama.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Ollama.BaseURL)
	assert.Equal(t, "llama3.2", cfg.Generator.Ollama.Model)
	assert.Equal(t, 120, cfg.Generator.Ollama.TimeoutSecs)
	assert.Equal(t, "notes", cfg.Ingest.DocumentsDir)
	assert.True(t, cfg.Ingest.Recursive)
	assert.Equal(t, []string{"drafts/**"}, cfg.Ingest.Exclude)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [unclosed"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			cfg := defaultConfig()
			cfg.Query.TopK = 9
			cfg.Embedder.Type = "hash"
			require.NoError(t, Save(path, cfg))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 9, got.Query.TopK)
			assert.Equal(t, "hash", got.Embedder.Type)
			assert.Equal(t, cfg.Chunker, got.Chunker)
		})
	}
}

func TestLoadDefault_PrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("query:\n  top_k: 7\n"), 0o644))

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)
	assert.Equal(t, 7, cfg.Query.TopK)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ragmcp", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "auto", cfg.Embedder.Type)
}
