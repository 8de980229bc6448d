// Package config provides configuration loading and structs for regvec.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for unsupported settings.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "regvec.yaml"

// Config holds all configuration for the application.
type Config struct {
	Debug      bool            `yaml:"debug"`
	Collection string          `yaml:"collection"`
	Timeout    time.Duration   `yaml:"timeout"`
	Qdrant     QdrantConfig    `yaml:"qdrant"`
	Storage    StorageConfig   `yaml:"storage"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	Server     ServerConfig    `yaml:"server"`
	Watch      WatchConfig     `yaml:"watch"`
}

// QdrantConfig holds the gRPC connection target for Qdrant.
type QdrantConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	APIKey   string `yaml:"api_key"`
	UseTLS   bool   `yaml:"use_tls"`
	Distance string `yaml:"distance"`
}

// Addr returns host:port.
func (q *QdrantConfig) Addr() string {
	return fmt.Sprintf("%s:%d", q.Host, q.Port)
}

// StorageConfig selects the vector store backend.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig selects and configures the embedder.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"`
	ModelPath   string        `yaml:"model_path"`
	VocabPath   string        `yaml:"vocab_path"`
	RuntimePath string        `yaml:"runtime_path"` // onnxruntime shared library; empty uses the loader default
	OutputName  string        `yaml:"output_name"`
	Dimensions  int           `yaml:"dimensions"`
	MaxTokens   int           `yaml:"max_tokens"`
	CacheSize   int           `yaml:"cache_size"`
	OpenAI      *OpenAIConfig `yaml:"openai,omitempty"`
}

// OpenAIConfig configures the OpenAI-compatible embeddings provider.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds file watch settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// A missing file is not an error; defaults are returned with paths relative to the
// working directory.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	ApplyDefaults(&cfg)

	if abs, err := filepath.Abs(configDir); err == nil {
		configDir = abs
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.VocabPath = expandPath(cfg.Embedding.VocabPath, configDir)
	cfg.Embedding.RuntimePath = expandPath(cfg.Embedding.RuntimePath, configDir)

	return &cfg, nil
}

// LoadDefault loads the config used when no --config flag is given: ./regvec.yaml if present,
// then ~/.config/regvec/config.yaml, then built-in defaults.
// Returns the config and the path that was actually loaded (empty for built-in defaults).
func LoadDefault() (*Config, string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		cfg, err := Load(DefaultFileName)
		return cfg, DefaultFileName, err
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".config", "regvec", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			cfg, err := Load(userPath)
			return cfg, userPath, err
		}
	}
	cfg, err := Load(DefaultFileName)
	return cfg, "", err
}

// ApplyEnv overrides Qdrant settings from QDRANT_HOST, QDRANT_PORT and QDRANT_API_KEY.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("QDRANT_HOST"); v != "" {
		cfg.Qdrant.Host = v
	}
	if v := getenv("QDRANT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: QDRANT_PORT %q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Qdrant.Port = port
	}
	if v := getenv("QDRANT_API_KEY"); v != "" {
		cfg.Qdrant.APIKey = v
	}
	return nil
}

// Validate checks backend, provider and collection values. The distance is checked by
// vectorstore.NewStore, which owns the supported set.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "qdrant", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: unknown storage backend %q (supported: qdrant, sqlite, memory)", ErrInvalidConfig, c.Storage.Backend)
	}
	switch c.Embedding.Provider {
	case "onnx", "openai", "hash":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q (supported: onnx, openai, hash)", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Collection == "" {
		return fmt.Errorf("%w: collection name is empty", ErrInvalidConfig)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", ErrInvalidConfig)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
