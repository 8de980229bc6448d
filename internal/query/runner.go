// Package query answers a text query with the nearest stored chunk.
package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/embedding"
	"github.com/hyperjump/regvec/internal/models"
	"github.com/hyperjump/regvec/internal/vectorstore"
)

// Runner embeds queries and searches a collection.
type Runner struct {
	store      vectorstore.Store
	embedder   embedding.Embedder
	collection string
	logger     *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a logger for query timing.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a runner that searches collection by default.
func New(store vectorstore.Store, embedder embedding.Embedder, collection string, opts ...Option) *Runner {
	r := &Runner{
		store:      store,
		embedder:   embedder,
		collection: collection,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Query returns the single nearest chunk in the default collection, or nil if it is empty.
func (r *Runner) Query(ctx context.Context, text string) (*models.Hit, error) {
	return r.QueryCollection(ctx, r.collection, text)
}

// QueryCollection returns the single nearest chunk in collection, or nil if it is empty.
// A missing collection is an error.
func (r *Runner) QueryCollection(ctx context.Context, collection, text string) (*models.Hit, error) {
	hits, err := r.Search(ctx, collection, text, 1)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0], nil
}

// Search returns up to limit nearest chunks in collection.
func (r *Runner) Search(ctx context.Context, collection, text string, limit int) ([]models.Hit, error) {
	if collection == "" {
		collection = r.collection
	}
	start := time.Now()
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := r.store.Search(ctx, collection, vec, limit)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("query",
		zap.String("collection", collection),
		zap.Int("hits", len(hits)),
		zap.Duration("took", time.Since(start)))
	return hits, nil
}
