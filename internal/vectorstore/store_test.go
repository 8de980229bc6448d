package vectorstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/regvec/internal/models"
)

func sampleRecords() []models.ChunkRecord {
	return []models.ChunkRecord{
		{ID: 0, Vector: []float32{1, 0, 0}, Text: "alpha beta", Payload: map[string]string{"source": "a.txt"}},
		{ID: 1, Vector: []float32{0, 1, 0}, Text: "gamma delta", Payload: map[string]string{"source": "a.txt"}},
		{ID: 2, Vector: []float32{0.7, 0.7, 0}, Text: "mixed", Payload: map[string]string{"source": "a.txt"}},
	}
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	exists, err := s.CollectionExists(ctx, "docs")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("collection should not exist yet")
	}

	if _, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 1); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("search on missing collection: want ErrCollectionNotFound, got %v", err)
	}

	if err := s.CreateCollection(ctx, "docs", 3, Cosine); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCollection(ctx, "docs", 3, Cosine); !errors.Is(err, ErrCollectionExists) {
		t.Errorf("duplicate create: want ErrCollectionExists, got %v", err)
	}

	hits, err := s.Search(ctx, "docs", []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("empty collection returned %d hits", len(hits))
	}

	if err := s.Upsert(ctx, "docs", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	n, err := s.Count(ctx, "docs")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}

	hits, err = s.Search(ctx, "docs", []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ID != 0 || hits[0].Text != "alpha beta" {
		t.Errorf("top hit = %+v", hits[0])
	}
	if hits[0].Payload[PayloadText] != "alpha beta" || hits[0].Payload["source"] != "a.txt" {
		t.Errorf("payload = %v", hits[0].Payload)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("score = %v, want ~1", hits[0].Score)
	}

	hits, err = s.Search(ctx, "docs", []float32{0, 1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].ID != 1 || hits[1].ID != 2 {
		t.Errorf("ordering: got %+v", hits)
	}

	bad := []models.ChunkRecord{{ID: 9, Vector: []float32{1, 0}, Text: "short"}}
	if err := s.Upsert(ctx, "docs", bad); err == nil {
		t.Error("upsert with wrong dimension should fail")
	}

	names, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "docs" {
		t.Errorf("ListCollections = %v", names)
	}

	// Drop and recreate keeps the count stable.
	if err := s.DeleteCollection(ctx, "docs"); err != nil {
		t.Fatal(err)
	}
	if exists, _ := s.CollectionExists(ctx, "docs"); exists {
		t.Error("collection should be gone after delete")
	}
	if err := s.CreateCollection(ctx, "docs", 3, Cosine); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "docs", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Count(ctx, "docs"); n != 3 {
		t.Errorf("Count after reload = %d, want 3", n)
	}

	if err := s.DeleteCollection(ctx, "never-created"); err != nil {
		t.Errorf("deleting a missing collection should not fail: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	runStoreContract(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "regvec.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestLocalStores_DimensionMismatchSentinel(t *testing.T) {
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "regvec.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer sq.Close()

	for name, s := range map[string]Store{"memory": NewMemoryStore(), "sqlite": sq} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.CreateCollection(ctx, "c", 2, Cosine); err != nil {
				t.Fatal(err)
			}
			err := s.Upsert(ctx, "c", []models.ChunkRecord{{ID: 0, Vector: []float32{1, 2, 3}}})
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("upsert: want ErrDimensionMismatch, got %v", err)
			}
			_, err = s.Search(ctx, "c", []float32{1}, 1)
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("search: want ErrDimensionMismatch, got %v", err)
			}
			if _, err := s.Count(ctx, "missing"); !errors.Is(err, ErrCollectionNotFound) {
				t.Errorf("count: want ErrCollectionNotFound, got %v", err)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regvec.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateCollection(ctx, "docs", 3, Cosine); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, "docs", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	info, err := s.Info(ctx, "docs")
	if err != nil {
		t.Fatal(err)
	}
	if info.Dimensions != 3 || info.Points != 3 || info.Distance != string(Cosine) {
		t.Errorf("info = %+v", info)
	}
}

func TestMemoryStore_SearchReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.CreateCollection(ctx, "c", 3, Cosine)
	_ = s.Upsert(ctx, "c", sampleRecords())

	hits, _ := s.Search(ctx, "c", []float32{1, 0, 0}, 1)
	hits[0].Payload["source"] = "mutated"
	hits, _ = s.Search(ctx, "c", []float32{1, 0, 0}, 1)
	if hits[0].Payload["source"] != "a.txt" {
		t.Error("mutating a hit payload changed stored data")
	}
}

func TestParseDistance(t *testing.T) {
	if d, err := ParseDistance("COSINE"); err != nil || d != Cosine {
		t.Errorf("ParseDistance(COSINE) = %q, %v", d, err)
	}
	if _, err := ParseDistance("dot"); err == nil {
		t.Error("expected error for dot")
	}
}

func TestEncodeDecodeVector(t *testing.T) {
	in := []float32{0, -1.5, 3.25, 1e-7}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: got %v want %v", i, out[i], in[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.CreateCollection(ctx, "b", 3, Cosine)
	_ = s.CreateCollection(ctx, "a", 3, Cosine)
	_ = s.Upsert(ctx, "b", sampleRecords())

	infos, err := Describe(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[0].Points != 0 || infos[1].Points != 3 {
		t.Errorf("infos = %+v", infos)
	}
	if infos[1].Dimensions != 3 || infos[1].Distance != string(Cosine) {
		t.Errorf("metadata missing: %+v", infos[1])
	}
}

func TestDescribe_SQLite(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "describe.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	_ = s.CreateCollection(ctx, "docs", 3, Cosine)
	_ = s.Upsert(ctx, "docs", sampleRecords())

	infos, err := Describe(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Dimensions != 3 || infos[0].Points != 3 {
		t.Errorf("infos = %+v", infos)
	}
}
