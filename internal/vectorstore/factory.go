package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/config"
)

// Backend names accepted in storage.backend.
const (
	BackendQdrant = "qdrant"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// NewStore creates the store selected by cfg.Storage.Backend.
// The configured distance must be one ParseDistance accepts.
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	if _, err := ParseDistance(cfg.Qdrant.Distance); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	switch cfg.Storage.Backend {
	case BackendQdrant, "":
		return NewQdrantStore(cfg.Qdrant, WithLogger(logger))
	case BackendSQLite:
		return NewSQLiteStore(cfg.Storage.DatabasePath, WithLogger(logger))
	case BackendMemory:
		return NewMemoryStore(WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: qdrant, sqlite, memory)", cfg.Storage.Backend)
	}
}
