package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	cache      *EmbeddingCache
	logger     *zap.Logger
}

// OpenAIOptions configures NewOpenAIEmbedder.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string // empty uses the OpenAI default
	Model      string
	Dimensions int
	CacheSize  int
	Logger     *zap.Logger
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	if opts.Model == "" {
		opts.Model = string(openai.SmallEmbedding3)
	}
	if opts.Dimensions <= 0 {
		return nil, fmt.Errorf("openai embedder: invalid dimensions %d", opts.Dimensions)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(opts.Model),
		dimensions: opts.Dimensions,
		cache:      NewEmbeddingCache(opts.CacheSize),
		logger:     opts.Logger,
	}, nil
}

// emptyInput stands in for "", which the embeddings endpoint rejects.
const emptyInput = " "

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	input := text
	if input == "" {
		input = emptyInput
	}
	out, err := e.request(ctx, []string{input})
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, out[0])
	return out[0], nil
}

// EmbedBatch calls Embed for each text, one request per text.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

func (e *OpenAIEmbedder) request(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("openai embeddings: got dimension %d, configured %d", len(d.Embedding), e.dimensions)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("openai embeddings: missing vector for input %d", i)
		}
	}
	e.logger.Debug("openai embeddings", zap.Int("inputs", len(texts)), zap.Int("prompt_tokens", resp.Usage.PromptTokens))
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
