// Package models defines core data structures for documents, search results, and chat.
package models

import "time"

// Document is a stored piece of retrievable context.
//
// IDs are opaque strings everywhere: the local and sqlite backends assign
// UUIDs, the Milvus backend formats the server-generated int64 primary key.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float32              `json:"-"`
	CreatedAt time.Time              `json:"created_at,omitempty"`
}

// DocumentInput is the input for adding a document.
type DocumentInput struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// StoreStatus describes the availability of a document store backend.
type StoreStatus string

const (
	StatusConnected    StoreStatus = "connected"
	StatusNotConnected StoreStatus = "not_connected"
	StatusError        StoreStatus = "error"
)

// Stats describes a document store: availability, size, and embedding settings.
type Stats struct {
	Status              StoreStatus `json:"status"`
	Documents           int64       `json:"documents"`
	EmbeddingModel      string      `json:"embedding_model"`
	EmbeddingDimensions int         `json:"embedding_dimensions"`
	// Location identifies the backend: a file path for local backends,
	// the Milvus host for the remote backend.
	Location string `json:"location,omitempty"`
	Error    string `json:"error,omitempty"`
}
