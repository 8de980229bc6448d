package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/models"
)

type memCollection struct {
	dimensions int
	distance   Distance
	points     map[int]candidate
}

// MemoryStore is an in-process Store. Contents are lost on Close.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	logger      *zap.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		collections: make(map[string]*memCollection),
		logger:      o.logger,
	}
}

func (m *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *MemoryStore) CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error {
	if dimensions <= 0 {
		return fmt.Errorf("create collection %s: dimensions must be positive", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("create collection %s: %w", name, ErrCollectionExists)
	}
	m.collections[name] = &memCollection{
		dimensions: dimensions,
		distance:   distance,
		points:     make(map[int]candidate),
	}
	m.logger.Debug("collection created", zap.String("collection", name), zap.Int("dimensions", dimensions))
	return nil
}

func (m *MemoryStore) DeleteCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, name string, records []models.ChunkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("upsert %s: %w", name, ErrCollectionNotFound)
	}
	for _, rec := range records {
		if len(rec.Vector) != c.dimensions {
			return fmt.Errorf("upsert %s: point %d has %d dimensions, collection has %d: %w",
				name, rec.ID, len(rec.Vector), c.dimensions, ErrDimensionMismatch)
		}
	}
	for _, rec := range records {
		vec := make([]float32, len(rec.Vector))
		copy(vec, rec.Vector)
		c.points[rec.ID] = candidate{id: rec.ID, vector: vec, text: rec.Text, payload: payloadOf(rec)}
	}
	return nil
}

func (m *MemoryStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]models.Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("search %s: %w", name, ErrCollectionNotFound)
	}
	if len(vector) != c.dimensions {
		return nil, fmt.Errorf("search %s: query has %d dimensions, collection has %d: %w",
			name, len(vector), c.dimensions, ErrDimensionMismatch)
	}
	cands := make([]candidate, 0, len(c.points))
	for _, p := range c.points {
		cands = append(cands, p)
	}
	return topK(vector, cands, limit), nil
}

func (m *MemoryStore) Count(ctx context.Context, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return 0, fmt.Errorf("count %s: %w", name, ErrCollectionNotFound)
	}
	return int64(len(c.points)), nil
}

// Close drops all collections.
// Info returns the dimension, distance and point count of a collection.
func (m *MemoryStore) Info(ctx context.Context, name string) (*models.CollectionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("info %s: %w", name, ErrCollectionNotFound)
	}
	return &models.CollectionInfo{
		Name:       name,
		Dimensions: c.dimensions,
		Distance:   string(c.distance),
		Points:     int64(len(c.points)),
	}, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]*memCollection)
	return nil
}
