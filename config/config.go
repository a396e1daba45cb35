package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the agent service.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Router     RouterConfig     `yaml:"router"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// IngestConfig holds document processing configuration. Chunk sizes are
// measured in runes of the normalized text stream.
type IngestConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	Concurrency  int      `yaml:"concurrency"`
}

// RetrieveConfig holds hybrid retrieval configuration.
type RetrieveConfig struct {
	TopK                int     `yaml:"top_k"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"` // N = multiplier * k
	SemanticWeight      float64 `yaml:"semantic_weight"`      // alpha in the score blend
	RerankEnabled       bool    `yaml:"rerank_enabled"`
}

// RouterConfig holds agent routing configuration.
type RouterConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold"`
	TieEpsilon      float64 `yaml:"tie_epsilon"`
}

// EmbeddingConfig holds embedding service configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "local", "openai", "ollama"
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	BaseURL        string `yaml:"base_url"`
	Dimension      int    `yaml:"dimension"`
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CompletionConfig holds completion service configuration.
type CompletionConfig struct {
	Provider       string `yaml:"provider"` // "template", "openai", "ollama"
	Model          string `yaml:"model"`
	APIKeyEnv      string `yaml:"api_key_env"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: ".agentrag",
		},
		Ingest: IngestConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Includes:     []string{"**/*.txt", "**/*.md", "**/*.csv"},
			Excludes:     []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"},
			Concurrency:  4,
		},
		Retrieve: RetrieveConfig{
			TopK:                5,
			CandidateMultiplier: 4,
			SemanticWeight:      0.7,
			RerankEnabled:       false,
		},
		Router: RouterConfig{
			AcceptThreshold: 0.5,
			TieEpsilon:      0.01,
		},
		Embedding: EmbeddingConfig{
			Provider:       "local",
			Model:          "hash-features",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      384,
			BatchSize:      100,
			TimeoutSeconds: 30,
		},
		Completion: CompletionConfig{
			Provider:       "template",
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, layered over defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for agentrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "agentrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".agentrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath returns the path to the document/conversation database.
func (c *Config) StorePath() string {
	return filepath.Join(c.Storage.DataDir, "store.db")
}

// IndexPath returns the path to the vector index database.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Storage.DataDir, "vectors.db")
}

// EnsureDataDir ensures the data directory exists.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.Storage.DataDir, 0755)
}
