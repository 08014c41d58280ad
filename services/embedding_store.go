package services

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// EmbeddingStore is a durable fingerprint -> vector byte store. It needs no
// guarantees beyond single-key atomicity; losing it degrades the cache to
// empty, it never fails ingestion correctness.
type EmbeddingStore interface {
	Get(ctx context.Context, fingerprint string) ([]float32, bool, error)
	Put(ctx context.Context, fingerprint string, model string, vector []float32) error
	Close() error
}

// SQLiteEmbeddingStore persists cached embeddings in a single SQLite table.
type SQLiteEmbeddingStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteEmbeddingStore opens (creating if needed) the embedding cache
// database at the given path.
func NewSQLiteEmbeddingStore(path string) (*SQLiteEmbeddingStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	// WAL mode for concurrent readers during ingestion.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS embeddings (
			fingerprint TEXT PRIMARY KEY,
			model       TEXT NOT NULL,
			vector      BLOB NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating embeddings table: %w", err)
	}

	return &SQLiteEmbeddingStore{db: db, path: path}, nil
}

// Get returns the cached vector for a fingerprint, if present.
func (s *SQLiteEmbeddingStore) Get(ctx context.Context, fingerprint string) ([]float32, bool, error) {
	var blob []byte
	row := s.db.QueryRowContext(ctx, "SELECT vector FROM embeddings WHERE fingerprint = ?", fingerprint)
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cached embedding: %w", err)
	}
	return bytesToFloat32Slice(blob), true, nil
}

// Put stores a vector under its fingerprint. Identical content by fingerprint
// construction makes last-write-wins safe for concurrent writers.
func (s *SQLiteEmbeddingStore) Put(ctx context.Context, fingerprint string, model string, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO embeddings (fingerprint, model, vector) VALUES (?, ?, ?)",
		fingerprint, model, float32SliceToBytes(vector),
	)
	if err != nil {
		return fmt.Errorf("writing cached embedding: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteEmbeddingStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteEmbeddingStore) Path() string {
	return s.path
}

func float32SliceToBytes(floats []float32) []byte {
	data := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	return data
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
