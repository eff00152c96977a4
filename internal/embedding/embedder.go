// Package embedding provides text embedding via an OpenAI-compatible API,
// with caching and a deterministic mock for tests.
package embedding

import "context"

// Embedder produces vector embeddings for text.
//
// Embed returns an error on failure; callers that need to degrade (rather
// than propagate) own that policy themselves.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}
