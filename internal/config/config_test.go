package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regvec.yaml")
	content := `
collection: notes
qdrant:
  host: "qdrant.internal"
  port: 7334
storage:
  backend: sqlite
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Qdrant.Host != "qdrant.internal" || cfg.Qdrant.Port != 7334 {
		t.Errorf("unexpected qdrant config: %+v", cfg.Qdrant)
	}
	if cfg.Collection != "notes" {
		t.Errorf("collection = %q", cfg.Collection)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
	if !filepath.IsAbs(cfg.Storage.DatabasePath) {
		t.Errorf("database_path should be absolute, got %s", cfg.Storage.DatabasePath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	if cfg.Collection != DefaultCollection {
		t.Errorf("collection = %q, want %q", cfg.Collection, DefaultCollection)
	}
	if cfg.Qdrant.Addr() != "localhost:6334" {
		t.Errorf("qdrant addr = %s", cfg.Qdrant.Addr())
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regvec.yaml")
	if err := os.WriteFile(path, []byte("qdrant: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regvec.yaml")
	content := `
storage:
  database_path: "./data/db/regvec.db"
embedding:
  model_path: "./models/model.onnx"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "regvec.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantModel := filepath.Join(dir, "models", "model.onnx")
	if cfg.Embedding.ModelPath != wantModel {
		t.Errorf("model_path = %s, want %s", cfg.Embedding.ModelPath, wantModel)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Collection != "reg_collection" {
		t.Errorf("default collection: got %s", cfg.Collection)
	}
	if cfg.Qdrant.Port != 6334 {
		t.Errorf("default qdrant port: got %d", cfg.Qdrant.Port)
	}
	if cfg.Storage.Backend != "qdrant" {
		t.Errorf("default backend: got %s", cfg.Storage.Backend)
	}
	if cfg.Embedding.Provider != "onnx" || cfg.Embedding.Dimensions != 384 {
		t.Errorf("default embedding: %+v", cfg.Embedding)
	}
	if cfg.Embedding.OpenAI != nil {
		t.Error("openai config should stay nil for onnx provider")
	}
	if cfg.Watch.Debounce != 400*time.Millisecond {
		t.Errorf("default debounce: got %s", cfg.Watch.Debounce)
	}
}

func TestApplyDefaults_openAIProvider(t *testing.T) {
	cfg := &Config{Embedding: EmbeddingConfig{Provider: "openai"}}
	ApplyDefaults(cfg)
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("openai dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.OpenAI == nil || cfg.Embedding.OpenAI.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("openai defaults not applied: %+v", cfg.Embedding.OpenAI)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"QDRANT_HOST":    "db",
		"QDRANT_PORT":    "9334",
		"QDRANT_API_KEY": "secret",
	}
	cfg := &Config{}
	ApplyDefaults(cfg)
	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if cfg.Qdrant.Addr() != "db:9334" || cfg.Qdrant.APIKey != "secret" {
		t.Errorf("env not applied: %+v", cfg.Qdrant)
	}

	env["QDRANT_PORT"] = "not-a-port"
	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"sqlite backend", func(c *Config) { c.Storage.Backend = "sqlite" }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "faiss" }, true},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "bert" }, true},
		{"empty collection", func(c *Config) { c.Collection = "" }, true},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error should wrap ErrInvalidConfig: %v", err)
			}
		})
	}
}
