// Package keyword provides a Bleve-backed keyword index used as the degraded
// retrieval path when embeddings cannot be computed.
package keyword

import "context"

// Result is a single keyword search hit. Content and metadata are read back
// from the index's stored fields so degraded retrieval does not need the
// vector store.
type Result struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	Score    float64
}

// Index defines keyword indexing and search operations.
type Index interface {
	Index(ctx context.Context, id, content string, metadata map[string]interface{}) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	// Clear removes every indexed document.
	Clear(ctx context.Context) error
	Close() error
}
