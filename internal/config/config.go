package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// HashEmbedderConfig configures the deterministic offline embedder.
type HashEmbedderConfig struct {
	Dimension int `yaml:"dimension" toml:"dimension"`
}

// OllamaConfig configures a local Ollama server, used for both embeddings and generation.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url" toml:"base_url"`
	Model       string `yaml:"model" toml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" toml:"max_retries"`
}

// OpenAIConfig holds configuration for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL     string  `yaml:"base_url" toml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env" toml:"api_key_env"`
	Model       string  `yaml:"model" toml:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" toml:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" toml:"max_retries"`
	Temperature float64 `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
}

// GeminiConfig holds configuration for the Google Generative AI API.
type GeminiConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env" toml:"api_key_env"`
	Model       string  `yaml:"model" toml:"model"`
	Temperature float64 `yaml:"temperature,omitempty" toml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
}

// EmbedderConfig selects and configures the embedding provider.
// Type is one of auto, hash, ollama, openai, gemini.
type EmbedderConfig struct {
	Type         string              `yaml:"type" toml:"type"`
	BatchSize    int                 `yaml:"batch_size" toml:"batch_size"`
	BatchDelayMS int                 `yaml:"batch_delay_ms" toml:"batch_delay_ms"`
	Hash         *HashEmbedderConfig `yaml:"hash,omitempty" toml:"hash,omitempty"`
	Ollama       *OllamaConfig       `yaml:"ollama,omitempty" toml:"ollama,omitempty"`
	OpenAI       *OpenAIConfig       `yaml:"openai,omitempty" toml:"openai,omitempty"`
	Gemini       *GeminiConfig       `yaml:"gemini,omitempty" toml:"gemini,omitempty"`
}

// GeneratorConfig selects and configures the answer generator.
// Type is one of extractive, ollama, openai, gemini.
type GeneratorConfig struct {
	Type         string        `yaml:"type" toml:"type"`
	MaxSentences int           `yaml:"max_sentences" toml:"max_sentences"`
	Ollama       *OllamaConfig `yaml:"ollama,omitempty" toml:"ollama,omitempty"`
	OpenAI       *OpenAIConfig `yaml:"openai,omitempty" toml:"openai,omitempty"`
	Gemini       *GeminiConfig `yaml:"gemini,omitempty" toml:"gemini,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
// An OverlapSize of zero selects the default; a negative value disables overlap.
type ChunkerConfig struct {
	ChunkSize   int `yaml:"chunk_size" toml:"chunk_size"`
	OverlapSize int `yaml:"overlap_size" toml:"overlap_size"`
}

// VectorStoreConfig locates the snapshot file.
type VectorStoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// IngestConfig controls document discovery.
type IngestConfig struct {
	DocumentsDir string   `yaml:"documents_dir" toml:"documents_dir"`
	Recursive    bool     `yaml:"recursive" toml:"recursive"`
	Exclude      []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	TopK          int     `yaml:"top_k" toml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity" toml:"min_similarity"`
}

// ServerConfig configures the HTTP and MCP-over-HTTP listeners.
type ServerConfig struct {
	Addr        string   `yaml:"addr" toml:"addr"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string  `yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	ServiceName string  `yaml:"service_name" toml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator" toml:"generator"`
	Chunker     ChunkerConfig     `yaml:"chunker" toml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Ingest      IngestConfig      `yaml:"ingest" toml:"ingest"`
	Query       QueryConfig       `yaml:"query" toml:"query"`
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" toml:"telemetry"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if isTOML(path) {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml, ./config.toml, then ~/.config/ragmcp/config.yaml.
// If none exists, it writes defaults to ~/.config/ragmcp/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, p := range []string{"config.yaml", "config.toml"} {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragmcp", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "auto"},
		Generator:   GeneratorConfig{Type: "extractive"},
		VectorStore: VectorStoreConfig{Path: "vector_store.json"},
		Ingest:      IngestConfig{DocumentsDir: "documents"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "auto"
	}
	if cfg.Embedder.BatchSize <= 0 {
		cfg.Embedder.BatchSize = 20
	}
	if cfg.Embedder.BatchDelayMS == 0 {
		cfg.Embedder.BatchDelayMS = 100
	}
	switch cfg.Embedder.Type {
	case "hash", "auto":
		if cfg.Embedder.Hash == nil {
			cfg.Embedder.Hash = &HashEmbedderConfig{}
		}
		if cfg.Embedder.Hash.Dimension == 0 {
			cfg.Embedder.Hash.Dimension = 384
		}
	}
	switch cfg.Embedder.Type {
	case "ollama", "auto":
		cfg.Embedder.Ollama = ollamaDefaults(cfg.Embedder.Ollama, "embeddinggemma", 60)
	case "openai":
		cfg.Embedder.OpenAI = openAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small")
	case "gemini":
		cfg.Embedder.Gemini = geminiDefaults(cfg.Embedder.Gemini, "text-embedding-004")
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "extractive"
	}
	if cfg.Generator.MaxSentences <= 0 {
		cfg.Generator.MaxSentences = 3
	}
	switch cfg.Generator.Type {
	case "ollama":
		cfg.Generator.Ollama = ollamaDefaults(cfg.Generator.Ollama, "llama3.2", 120)
	case "openai":
		cfg.Generator.OpenAI = openAIDefaults(cfg.Generator.OpenAI, "gpt-4o-mini")
		if cfg.Generator.OpenAI.Temperature == 0 {
			cfg.Generator.OpenAI.Temperature = 0.7
		}
		if cfg.Generator.OpenAI.MaxTokens == 0 {
			cfg.Generator.OpenAI.MaxTokens = 500
		}
	case "gemini":
		cfg.Generator.Gemini = geminiDefaults(cfg.Generator.Gemini, "gemini-2.0-flash")
		if cfg.Generator.Gemini.Temperature == 0 {
			cfg.Generator.Gemini.Temperature = 0.7
		}
		if cfg.Generator.Gemini.MaxTokens == 0 {
			cfg.Generator.Gemini.MaxTokens = 500
		}
	}

	if cfg.Chunker.ChunkSize <= 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.OverlapSize == 0 {
		cfg.Chunker.OverlapSize = 100
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = "vector_store.json"
	}
	if cfg.Ingest.DocumentsDir == "" {
		cfg.Ingest.DocumentsDir = "documents"
	}
	if cfg.Query.TopK <= 0 {
		cfg.Query.TopK = 5
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ragmcp"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1
	}
}

func ollamaDefaults(c *OllamaConfig, model string, timeoutSecs int) *OllamaConfig {
	if c == nil {
		c = &OllamaConfig{}
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeoutSecs
	}
	return c
}

func openAIDefaults(c *OpenAIConfig, model string) *OpenAIConfig {
	if c == nil {
		c = &OpenAIConfig{}
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	return c
}

func geminiDefaults(c *GeminiConfig, model string) *GeminiConfig {
	if c == nil {
		c = &GeminiConfig{}
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	return c
}
