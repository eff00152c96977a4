package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kotae/internal/models"
)

// LocalStore keeps documents and embeddings in memory, persisted as a single
// JSON file holding two positionally aligned lists. The whole file is
// rewritten on every add; a single mutex serializes the read-modify-write
// cycle so concurrent requests cannot corrupt it.
type LocalStore struct {
	path       string
	dimensions int

	mu        sync.Mutex
	documents []*models.Document
	vectors   [][]float32
}

// localState is the on-disk layout: documents and embeddings grow in
// lock-step, aligned by index.
type localState struct {
	Documents  []*models.Document `json:"documents"`
	Embeddings [][]float32        `json:"embeddings"`
}

// NewLocalStore opens (or creates) a file-backed store at path with the given
// embedding dimension. Existing state is loaded fully into memory.
func NewLocalStore(path string, dimensions int) (*LocalStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	s := &LocalStore{path: path, dimensions: dimensions}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}
	var state localState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parse store file: %w", err)
	}
	if len(state.Documents) != len(state.Embeddings) {
		return fmt.Errorf("corrupt store file: %d documents but %d embeddings",
			len(state.Documents), len(state.Embeddings))
	}
	for i, emb := range state.Embeddings {
		if len(emb) != s.dimensions {
			return fmt.Errorf("corrupt store file: embedding %d has dimension %d, expected %d",
				i, len(emb), s.dimensions)
		}
	}
	s.documents = state.Documents
	s.vectors = state.Embeddings
	return nil
}

// save rewrites the entire backing file. Caller must hold s.mu.
func (s *LocalStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := json.Marshal(localState{Documents: s.documents, Embeddings: s.vectors})
	if err != nil {
		return fmt.Errorf("marshal store state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

// Add appends the document and immediately persists the whole store.
func (s *LocalStore) Add(ctx context.Context, content string, metadata map[string]interface{}, vector []float32) (string, error) {
	if len(vector) != s.dimensions {
		return "", fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vector), s.dimensions)
	}
	doc := &models.Document{
		ID:        uuid.NewString(),
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	vec := make([]float32, s.dimensions)
	copy(vec, vector)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, doc)
	s.vectors = append(s.vectors, vec)
	if err := s.save(); err != nil {
		// Roll back the in-memory append so memory and disk stay aligned.
		s.documents = s.documents[:len(s.documents)-1]
		s.vectors = s.vectors[:len(s.vectors)-1]
		return "", err
	}
	return doc.ID, nil
}

// Search scans all stored vectors and returns the topK by cosine similarity.
// O(n*d) per query; fine at the scale a single JSON file can hold.
func (s *LocalStore) Search(ctx context.Context, vector []float32, topK int) ([]*models.SearchResult, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vector), s.dimensions)
	}
	s.mu.Lock()
	docs := s.documents
	vecs := s.vectors
	s.mu.Unlock()
	return rankByCosine(vector, docs, vecs, topK), nil
}

// Count returns the number of stored documents.
func (s *LocalStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.documents)), nil
}

// Clear deletes the backing file and empties the in-memory lists.
func (s *LocalStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove store file: %w", err)
	}
	s.documents = nil
	s.vectors = nil
	return nil
}

// Available always reports true for the file-backed store.
func (s *LocalStore) Available() bool { return true }

// Location returns the backing file path.
func (s *LocalStore) Location() string { return s.path }

// Close is a no-op; state is persisted on every Add.
func (s *LocalStore) Close() error { return nil }
