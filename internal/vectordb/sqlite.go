package vectordb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists documents in a SQLite table with embeddings stored as
// little-endian float32 blobs. Ranking is the same in-memory linear scan as
// the file-backed store; SQLite only contributes durable storage.
type SQLiteStore struct {
	db         *sql.DB
	path       string
	dimensions int
}

// NewSQLiteStore opens (or creates) a SQLite-backed store at path.
func NewSQLiteStore(path string, dimensions int) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		metadata TEXT,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path, dimensions: dimensions}, nil
}

// Add inserts the document in a single synchronous write.
func (s *SQLiteStore) Add(ctx context.Context, content string, metadata map[string]interface{}, vector []float32) (string, error) {
	if len(vector) != s.dimensions {
		return "", fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vector), s.dimensions)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, content, metadata, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, content, string(metaJSON), encodeVector(vector), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// Search loads all rows and ranks them by cosine similarity in memory.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, topK int) ([]*models.SearchResult, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vector), s.dimensions)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata, embedding, created_at FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	var vecs [][]float32
	for rows.Next() {
		var doc models.Document
		var metaJSON string
		var blob []byte
		if err := rows.Scan(&doc.ID, &doc.Content, &metaJSON, &blob, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
				doc.Metadata = nil
			}
		}
		docs = append(docs, &doc)
		vecs = append(vecs, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return rankByCosine(vector, docs, vecs, topK), nil
}

// Count returns the number of stored documents.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Clear removes all rows.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	return nil
}

// Available always reports true for the SQLite-backed store.
func (s *SQLiteStore) Available() bool { return true }

// Location returns the database file path.
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// encodeVector packs a float32 slice as little-endian bytes.
func encodeVector(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(x))
	}
	return out
}

// decodeVector unpacks little-endian bytes into a float32 slice.
func decodeVector(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
