// Package loader loads a text file into a vector store collection: one point per
// blank-line-delimited chunk.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/embedding"
	"github.com/hyperjump/regvec/internal/extract"
	"github.com/hyperjump/regvec/internal/models"
	"github.com/hyperjump/regvec/internal/vectorstore"
)

// Payload keys written with every chunk besides vectorstore.PayloadText.
const (
	PayloadLoadID = "load_id"
	PayloadSource = "source"
)

// LoadResult summarizes a completed load.
type LoadResult struct {
	Collection  string   `json:"collection"`
	Source      string   `json:"source"`
	LoadID      string   `json:"load_id"`
	Chunks      int      `json:"chunks"`
	Dimensions  int      `json:"dimensions"`
	Collections []string `json:"collections"`
}

// Loader splits files into chunks, embeds them and replaces a collection with the result.
// Loads through the same Loader are serialized, so a collection is never recreated by two
// loads at once.
type Loader struct {
	mu         sync.Mutex
	store      vectorstore.Store
	embedder   embedding.Embedder
	extractor  *extract.Extractor
	collection string
	logger     *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for load steps.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithExtractor sets the extractor used to read files. Without one, files are read as plain text.
func WithExtractor(e *extract.Extractor) Option {
	return func(ld *Loader) { ld.extractor = e }
}

// New creates a loader that writes to collection by default.
func New(store vectorstore.Store, embedder embedding.Embedder, collection string, opts ...Option) *Loader {
	ld := &Loader{
		store:      store,
		embedder:   embedder,
		collection: collection,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.extractor == nil {
		ld.extractor = extract.NewExtractor()
	}
	if ld.logger == nil {
		ld.logger = zap.NewNop()
	}
	return ld
}

// Collection returns the default destination collection.
func (l *Loader) Collection() string {
	return l.collection
}

// Load replaces the default collection with the chunks of the file at path.
func (l *Loader) Load(ctx context.Context, path string) (*LoadResult, error) {
	return l.LoadInto(ctx, l.collection, path)
}

// LoadInto replaces collection with the chunks of the file at path.
func (l *Loader) LoadInto(ctx context.Context, collection, path string) (*LoadResult, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	text, err := l.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.LoadText(ctx, collection, path, text)
}

// LoadText replaces collection with the chunks of text. source is recorded in each payload.
func (l *Loader) LoadText(ctx context.Context, collection, source, text string) (*LoadResult, error) {
	if collection == "" {
		collection = l.collection
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	chunks := Split(text)
	loadID := uuid.New().String()
	log := l.logger.With(zap.String("collection", collection), zap.String("load_id", loadID))
	log.Debug("file split", zap.String("source", source), zap.Int("chunks", len(chunks)))

	vectors, err := l.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	dims := l.embedder.Dimensions()
	records := make([]models.ChunkRecord, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) != dims {
			return nil, fmt.Errorf("chunk %d: embedding has %d dimensions, expected %d: %w",
				i, len(vectors[i]), dims, vectorstore.ErrDimensionMismatch)
		}
		records[i] = models.ChunkRecord{
			ID:     i,
			Vector: vectors[i],
			Text:   chunk,
			Payload: map[string]string{
				PayloadLoadID: loadID,
				PayloadSource: source,
			},
		}
	}

	exists, err := l.store.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := l.store.DeleteCollection(ctx, collection); err != nil {
			return nil, err
		}
		log.Info("collection deleted")
	}

	names, err := l.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("collections listed", zap.Strings("collections", names))

	if err := l.store.CreateCollection(ctx, collection, dims, vectorstore.Cosine); err != nil {
		return nil, err
	}
	log.Info("collection created", zap.Int("dimensions", dims))

	if err := l.store.Upsert(ctx, collection, records); err != nil {
		return nil, err
	}
	log.Info("points uploaded", zap.Int("points", len(records)))

	return &LoadResult{
		Collection:  collection,
		Source:      source,
		LoadID:      loadID,
		Chunks:      len(records),
		Dimensions:  dims,
		Collections: names,
	}, nil
}
