// Package vectordb provides document storage with vector similarity search.
//
// Three interchangeable backends implement the Store interface: a JSON
// file-backed in-memory store, a SQLite-backed store, and a remote Milvus
// collection. Backends deal purely in vectors; computing embeddings is the
// caller's concern.
package vectordb

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotAvailable is returned by a remote-backed store whose connection could
// not be established. The store stays in this degraded state for its lifetime.
var ErrNotAvailable = errors.New("vectordb: store not available")

// ErrDimensionMismatch is returned when a vector does not match the store's
// configured dimension.
var ErrDimensionMismatch = errors.New("vectordb: vector dimension mismatch")

// Store is the document store capability: add, search by vector, count,
// clear-all. There is no single-document delete; removal is all-or-nothing.
type Store interface {
	// Add persists a document with its embedding and returns the assigned ID.
	Add(ctx context.Context, content string, metadata map[string]interface{}, vector []float32) (string, error)
	// Search returns up to topK results ordered by descending similarity.
	Search(ctx context.Context, vector []float32, topK int) ([]*models.SearchResult, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int64, error)
	// Clear removes all documents.
	Clear(ctx context.Context) error
	// Available reports whether the backend is usable. Local backends always
	// return true; the remote backend returns false after a failed connect.
	Available() bool
	// Location identifies the backend (file path or remote host).
	Location() string
	Close() error
}
