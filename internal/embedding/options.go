package embedding

import "go.uber.org/zap"

// ONNXOptions configures NewONNXEmbedder.
type ONNXOptions struct {
	ModelPath   string
	VocabPath   string
	RuntimePath string
	OutputName  string
	Dimensions  int
	MaxTokens   int
	CacheSize   int
	Logger      *zap.Logger
}

func (o *ONNXOptions) applyDefaults() {
	if o.OutputName == "" {
		o.OutputName = "last_hidden_state"
	}
	if o.Dimensions <= 0 {
		o.Dimensions = 384
	}
	if o.MaxTokens < 2 {
		o.MaxTokens = 256
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
