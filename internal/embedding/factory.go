package embedding

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/config"
)

// New creates the embedder selected by cfg.Provider. A model that fails to load is an error;
// there is no fallback to another provider.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "onnx", "":
		e, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:   cfg.ModelPath,
			VocabPath:   cfg.VocabPath,
			RuntimePath: cfg.RuntimePath,
			OutputName:  cfg.OutputName,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
			CacheSize:   cfg.CacheSize,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load onnx model: %w", err)
		}
		return e, nil
	case "openai":
		oc := cfg.OpenAI
		if oc == nil {
			oc = &config.OpenAIConfig{APIKeyEnv: "OPENAI_API_KEY"}
		}
		key := os.Getenv(oc.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("openai provider: environment variable %s is not set", oc.APIKeyEnv)
		}
		return NewOpenAIEmbedder(OpenAIOptions{
			APIKey:     key,
			BaseURL:    oc.BaseURL,
			Model:      oc.Model,
			Dimensions: cfg.Dimensions,
			CacheSize:  cfg.CacheSize,
			Logger:     logger,
		})
	case "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
