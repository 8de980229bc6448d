// Package vectorstore stores chunk embeddings in named collections and runs nearest-neighbour
// queries against them. Qdrant is the default backend; sqlite and memory run locally with
// brute-force cosine search.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/models"
)

var (
	// ErrCollectionNotFound is returned when an operation targets a collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionExists is returned by CreateCollection when the name is taken.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrDimensionMismatch is returned when a vector length differs from the collection size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Distance is the similarity metric of a collection.
type Distance string

// Cosine is the only supported distance.
const Cosine Distance = "cosine"

// ParseDistance converts a config value to a Distance.
func ParseDistance(s string) (Distance, error) {
	if strings.EqualFold(s, string(Cosine)) {
		return Cosine, nil
	}
	return "", fmt.Errorf("unsupported distance %q", s)
}

// Store is a vector database holding one set of points per named collection.
type Store interface {
	ListCollections(ctx context.Context) ([]string, error)
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error
	// DeleteCollection removes a collection and its points. Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, records []models.ChunkRecord) error
	// Search returns up to limit hits ordered by descending score.
	Search(ctx context.Context, name string, vector []float32, limit int) ([]models.Hit, error)
	Count(ctx context.Context, name string) (int64, error)
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// PayloadText is the payload key holding the chunk text.
const PayloadText = "text"

// payloadOf returns the stored payload for a record: its extra keys plus the text.
func payloadOf(rec models.ChunkRecord) map[string]string {
	p := make(map[string]string, len(rec.Payload)+1)
	for k, v := range rec.Payload {
		p[k] = v
	}
	p[PayloadText] = rec.Text
	return p
}

// infoStore is implemented by stores that keep collection metadata locally.
type infoStore interface {
	Info(ctx context.Context, name string) (*models.CollectionInfo, error)
}

// Describe lists every collection with its point count. Stores that implement Info
// also report the vector dimension.
func Describe(ctx context.Context, s Store) ([]models.CollectionInfo, error) {
	names, err := s.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]models.CollectionInfo, 0, len(names))
	for _, name := range names {
		if is, ok := s.(infoStore); ok {
			info, err := is.Info(ctx, name)
			if err != nil {
				return nil, err
			}
			infos = append(infos, *info)
			continue
		}
		n, err := s.Count(ctx, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, models.CollectionInfo{Name: name, Distance: string(Cosine), Points: n})
	}
	return infos, nil
}
