package config

import "time"

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "reg_collection"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Qdrant.Host == "" {
		cfg.Qdrant.Host = "localhost"
	}
	if cfg.Qdrant.Port == 0 {
		cfg.Qdrant.Port = 6334
	}
	if cfg.Qdrant.Distance == "" {
		cfg.Qdrant.Distance = "cosine"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "qdrant"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/regvec.db"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.VocabPath == "" {
		cfg.Embedding.VocabPath = "./models/vocab.txt"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Embedding.Dimensions == 0 {
		if cfg.Embedding.Provider == "openai" {
			cfg.Embedding.Dimensions = 1536
		} else {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Provider == "openai" {
		if cfg.Embedding.OpenAI == nil {
			cfg.Embedding.OpenAI = &OpenAIConfig{}
		}
		if cfg.Embedding.OpenAI.APIKeyEnv == "" {
			cfg.Embedding.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedding.OpenAI.Model == "" {
			cfg.Embedding.OpenAI.Model = "text-embedding-3-small"
		}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}
