package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragmcp/internal/config"
	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
	"ragmcp/internal/service"
)

const testConfig = `embedder:
  type: hash
  batch_size: 20
  hash:
    dimension: 64
generator:
  type: extractive
vector_store:
  path: %STORE%
logging:
  level: error
`

func setupWorkspace(t *testing.T) (cfgFile, docsDir, storePath string) {
	t.Helper()
	root := t.TempDir()
	docsDir = filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "go.md"),
		[]byte("# Go\n\nGo is a statically typed language with goroutines and channels."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "rust.txt"),
		[]byte("Rust is a systems language focused on memory safety without garbage collection."), 0o644))

	storePath = filepath.Join(root, "data", "store.json")
	cfgFile = filepath.Join(root, "config.yaml")
	content := bytes.ReplaceAll([]byte(testConfig), []byte("%STORE%"), []byte(storePath))
	require.NoError(t, os.WriteFile(cfgFile, content, 0o644))
	return cfgFile, docsDir, storePath
}

func resetFlags() {
	cfgPath = ""
	verbose = false
	ingestRecursive = false
	ingestJSON = false
	queryTopK = 0
	queryMinSimilarity = 0
	queryJSON = false
	queryRaw = false
	statsJSON = false
	serveAddr = ""
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "ragmcp", rootCmd.Use)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "query", "serve", "mcp", "chat", "stats"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   string
		flags []string
	}{
		{"ingest", []string{"recursive", "json"}},
		{"query", []string{"top-k", "min-similarity", "json", "raw"}},
		{"serve", []string{"addr"}},
		{"mcp", []string{"port"}},
		{"stats", []string{"json"}},
	}
	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.cmd})
			require.NoError(t, err)
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "missing flag --%s", f)
			}
		})
	}
}

func TestQueryRequiresQuestion(t *testing.T) {
	cfgFile, _, _ := setupWorkspace(t)
	_, err := run(t, "query", "--config", cfgFile)
	assert.Error(t, err)
}

func TestIngestQueryStats(t *testing.T) {
	cfgFile, docsDir, storePath := setupWorkspace(t)

	out, err := run(t, "ingest", docsDir, "--config", cfgFile, "--json")
	require.NoError(t, err)

	var report service.IngestReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 2, report.Embedded)
	assert.FileExists(t, storePath)

	out, err = run(t, "query", "--config", cfgFile, "--json", "--top-k", "1",
		"Rust is a systems language focused on memory safety without garbage collection.")
	require.NoError(t, err)
	var resp domain.RagResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.RetrievedCount)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "rust.txt", filepath.Base(resp.Sources[0].Source))
	assert.InDelta(t, 1.0, resp.Sources[0].Similarity, 1e-9)

	out, err = run(t, "query", "--config", cfgFile, "--json", "--raw", "goroutines")
	require.NoError(t, err)
	var hits []service.Hit
	require.NoError(t, json.Unmarshal([]byte(out), &hits))
	assert.LessOrEqual(t, len(hits), 2)

	out, err = run(t, "stats", "--config", cfgFile, "--json")
	require.NoError(t, err)
	var st service.StoreStats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 2, st.Chunks)
	assert.Equal(t, 2, st.Sources)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, "simple-hash-embedding", st.Snapshot.EmbeddingModel)
}

func TestIngestMissingDirectory(t *testing.T) {
	cfgFile, docsDir, _ := setupWorkspace(t)

	out, err := run(t, "ingest", filepath.Join(docsDir, "nope"), "--config", cfgFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoDocumentsFound)
	assert.Contains(t, out, "ingestion failed")
}

func TestStatsEmptyStore(t *testing.T) {
	cfgFile, _, _ := setupWorkspace(t)

	out, err := run(t, "stats", "--config", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshot found")
}

func TestQueryTextOutput(t *testing.T) {
	cfgFile, docsDir, _ := setupWorkspace(t)
	_, err := run(t, "ingest", docsDir, "--config", cfgFile)
	require.NoError(t, err)

	out, err := run(t, "query", "--config", cfgFile, "what", "is", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "what is go")
	assert.Contains(t, out, "Answer:")
	assert.Contains(t, out, "chunks retrieved")
}

func TestQueryWarnsOnEmbedderChange(t *testing.T) {
	cfgFile, docsDir, _ := setupWorkspace(t)
	_, err := run(t, "ingest", docsDir, "--config", cfgFile)
	require.NoError(t, err)

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	data = bytes.ReplaceAll(data, []byte("dimension: 64"), []byte("dimension: 16"))
	data = bytes.ReplaceAll(data, []byte("level: error"), []byte("level: warn"))
	smaller := filepath.Join(filepath.Dir(cfgFile), "smaller.yaml")
	require.NoError(t, os.WriteFile(smaller, data, 0o644))

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	out, err := run(t, "query", "--config", smaller, "--json", "goroutines")
	require.NoError(t, err)
	var resp domain.RagResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, domain.NoRelevantInformation, resp.Answer)
	assert.Contains(t, logs.String(), "different embedder")
}

func TestFollowSnapshotEmbedder(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.EmbedderConfig
		model     string
		wantType  string
		wantModel string
	}{
		{"auto follows hash", config.EmbedderConfig{Type: "auto"}, "simple-hash-embedding", "hash", ""},
		{"auto follows ollama model", config.EmbedderConfig{Type: "auto", Ollama: &config.OllamaConfig{Model: "embeddinggemma"}},
			"ollama:nomic-embed-text", "ollama", "nomic-embed-text"},
		{"explicit type wins", config.EmbedderConfig{Type: "hash"}, "ollama:nomic-embed-text", "hash", ""},
		{"unknown model keeps auto", config.EmbedderConfig{Type: "auto"}, "text-embedding-3-small", "auto", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			followSnapshotEmbedder(&cfg, domain.SnapshotMetadata{EmbeddingModel: tt.model})
			assert.Equal(t, tt.wantType, cfg.Type)
			if tt.wantModel != "" {
				require.NotNil(t, cfg.Ollama)
				assert.Equal(t, tt.wantModel, cfg.Ollama.Model)
			}
		})
	}
}
