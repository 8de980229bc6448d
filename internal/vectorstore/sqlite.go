package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/regvec/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	o.logger.Debug("sqlite store opened", zap.String("path", dbPath))
	return &SQLiteStore{db: db, logger: o.logger}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		dimensions INTEGER NOT NULL,
		distance TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS points (
		collection TEXT NOT NULL,
		id INTEGER NOT NULL,
		vector BLOB NOT NULL,
		text TEXT NOT NULL,
		payload TEXT,
		PRIMARY KEY (collection, id),
		FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.dimensions(ctx, s.db, name)
	if errors.Is(err, ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStore) CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error {
	if dimensions <= 0 {
		return fmt.Errorf("create collection %s: dimensions must be positive", name)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimensions, distance) VALUES (?, ?, ?)`,
		name, dimensions, string(distance),
	)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("create collection %s: %w", name, ErrCollectionExists)
	}
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("delete points of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	return tx.Commit()
}

// Upsert writes all records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, name string, records []models.ChunkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	dims, err := s.dimensions(ctx, tx, name)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO points (collection, id, vector, text, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if len(rec.Vector) != dims {
			return fmt.Errorf("upsert %s: point %d has %d dimensions, collection has %d: %w",
				name, rec.ID, len(rec.Vector), dims, ErrDimensionMismatch)
		}
		payloadJSON, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, name, rec.ID, encodeVector(rec.Vector), rec.Text, string(payloadJSON)); err != nil {
			return fmt.Errorf("upsert %s point %d: %w", name, rec.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]models.Hit, error) {
	dims, err := s.dimensions(ctx, s.db, name)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("search %s: query has %d dimensions, collection has %d: %w",
			name, len(vector), dims, ErrDimensionMismatch)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vector, text, payload FROM points WHERE collection = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", name, err)
	}
	defer rows.Close()

	var cands []candidate
	for rows.Next() {
		var (
			rec         models.ChunkRecord
			blob        []byte
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&rec.ID, &blob, &rec.Text, &payloadJSON); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", rec.ID, err)
		}
		if payloadJSON.Valid && payloadJSON.String != "" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &rec.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}
		cands = append(cands, candidate{id: rec.ID, vector: vec, text: rec.Text, payload: payloadOf(rec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(vector, cands, limit), nil
}

func (s *SQLiteStore) Count(ctx context.Context, name string) (int64, error) {
	if _, err := s.dimensions(ctx, s.db, name); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE collection = ?`, name).Scan(&n)
	return n, err
}

// Info returns the stored metadata of a collection.
func (s *SQLiteStore) Info(ctx context.Context, name string) (*models.CollectionInfo, error) {
	info := models.CollectionInfo{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions, distance FROM collections WHERE name = ?`, name,
	).Scan(&info.Dimensions, &info.Distance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", name, ErrCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if info.Points, err = s.Count(ctx, name); err != nil {
		return nil, err
	}
	return &info, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) dimensions(ctx context.Context, q queryRower, name string) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx, `SELECT dimensions FROM collections WHERE name = ?`, name).Scan(&dims)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%s: %w", name, ErrCollectionNotFound)
	}
	return dims, err
}
