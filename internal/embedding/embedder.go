// Package embedding provides sentence embedding via ONNX, OpenAI-compatible APIs, and caching.
package embedding

import (
	"context"
	"errors"
	"unicode/utf8"
)

// ErrInvalidText is returned for input that is not valid UTF-8.
var ErrInvalidText = errors.New("text is not valid UTF-8")

// Embedder produces vector embeddings for text. Implementations are deterministic
// for a fixed model and input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

func checkText(text string) error {
	if !utf8.ValidString(text) {
		return ErrInvalidText
	}
	return nil
}
