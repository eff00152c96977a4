package retrieval

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/vectordb"
)

// failingEmbedder simulates an unreachable embedding provider.
type failingEmbedder struct{}

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("provider unreachable")
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("provider unreachable")
}

func (f *failingEmbedder) Dimensions() int   { return 4 }
func (f *failingEmbedder) ModelName() string { return "failing" }
func (f *failingEmbedder) Close() error      { return nil }

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := vectordb.NewLocalStore(filepath.Join(t.TempDir(), "store.json"), 8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(embedding.NewMockEmbedder(8), store)
}

func TestAddDocumentThenSearchSameContent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	content := "Python is a programming language"
	if !svc.AddDocument(ctx, content, map[string]interface{}{"topic": "python"}) {
		t.Fatal("AddDocument returned false")
	}

	results := svc.Search(ctx, content, 1)
	if len(results) != 1 {
		t.Fatalf("results: got %d, want 1", len(results))
	}
	if results[0].Document.Content != content {
		t.Errorf("content: got %q", results[0].Document.Content)
	}
	if got := results[0].Document.Metadata["topic"]; got != "python" {
		t.Errorf("metadata topic: got %v", got)
	}
	// Identical content means identical embedding: maximum similarity.
	if results[0].Score < 0.999 {
		t.Errorf("score for identical content: got %f, want ~1.0", results[0].Score)
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, content := range []string{"alpha doc", "beta doc", "gamma doc", "delta doc"} {
		if !svc.AddDocument(ctx, content, nil) {
			t.Fatal("AddDocument returned false")
		}
	}
	results := svc.Search(ctx, "alpha doc", 2)
	if len(results) > 2 {
		t.Fatalf("results: got %d, want <= 2", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not sorted descending by score")
		}
	}
}

func TestClearThenStatsAndSearch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.AddDocument(ctx, "doc one", nil)
	svc.AddDocument(ctx, "doc two", nil)

	if !svc.Clear(ctx) {
		t.Fatal("Clear returned false")
	}
	stats := svc.Stats(ctx)
	if stats.Documents != 0 {
		t.Errorf("documents after clear: got %d, want 0", stats.Documents)
	}
	if results := svc.Search(ctx, "doc one", 5); len(results) != 0 {
		t.Errorf("search after clear: got %d results, want 0", len(results))
	}
}

func TestStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.AddDocument(ctx, "a document", nil)

	stats := svc.Stats(ctx)
	if stats.Status != "connected" {
		t.Errorf("status: got %s", stats.Status)
	}
	if stats.Documents != 1 {
		t.Errorf("documents: got %d, want 1", stats.Documents)
	}
	if stats.EmbeddingModel != "mock" {
		t.Errorf("model: got %s", stats.EmbeddingModel)
	}
	if stats.EmbeddingDimensions != 8 {
		t.Errorf("dimensions: got %d, want 8", stats.EmbeddingDimensions)
	}
}

func TestAddDocumentEmbeddingFailure(t *testing.T) {
	store, err := vectordb.NewLocalStore(filepath.Join(t.TempDir(), "store.json"), 4)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	svc := NewService(&failingEmbedder{}, store)

	if svc.AddDocument(context.Background(), "doc", nil) {
		t.Error("AddDocument succeeded despite embedding failure")
	}
	if results := svc.Search(context.Background(), "doc", 3); len(results) != 0 {
		t.Errorf("search without keyword fallback: got %d results, want 0", len(results))
	}
}

func TestSearchKeywordFallback(t *testing.T) {
	dir := t.TempDir()
	store, err := vectordb.NewLocalStore(filepath.Join(dir, "store.json"), 8)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	kwIdx, err := keyword.NewBleveIndex(filepath.Join(dir, "keyword"))
	if err != nil {
		t.Fatal(err)
	}
	defer kwIdx.Close()

	ctx := context.Background()

	// Index while the embedder works.
	good := NewService(embedding.NewMockEmbedder(8), store, WithKeywordIndex(kwIdx))
	if !good.AddDocument(ctx, "Milvus is an open-source vector database",
		map[string]interface{}{"topic": "vector_database"}) {
		t.Fatal("AddDocument returned false")
	}

	// Same store and keyword index, but the embedder is now down.
	degraded := NewService(&failingEmbedder{}, store, WithKeywordIndex(kwIdx))
	results := degraded.Search(ctx, "vector database", 3)
	if len(results) == 0 {
		t.Fatal("keyword fallback returned no results")
	}
	if results[0].Document.Content == "" {
		t.Error("fallback hit has no content")
	}
	if got := results[0].Document.Metadata["topic"]; got != "vector_database" {
		t.Errorf("fallback metadata: got %v", got)
	}
}

func TestMilvusNotAvailableDegradesToEmpty(t *testing.T) {
	// An unreachable Milvus endpoint yields a not-available store; every
	// facade operation must degrade, not error.
	connectCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	store, err := vectordb.NewMilvusStore(connectCtx, vectordb.MilvusConfig{
		Host:       "localhost:1",
		Token:      "invalid",
		Collection: "test_collection",
	}, 8, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if store.Available() {
		t.Skip("unexpected live milvus at localhost:1")
	}

	svc := NewService(embedding.NewMockEmbedder(8), store)
	ctx := context.Background()
	if svc.AddDocument(ctx, "doc", nil) {
		t.Error("AddDocument succeeded on unavailable store")
	}
	if results := svc.Search(ctx, "doc", 3); len(results) != 0 {
		t.Errorf("search on unavailable store: got %d results", len(results))
	}
	stats := svc.Stats(ctx)
	if stats.Status != "not_connected" {
		t.Errorf("status: got %s, want not_connected", stats.Status)
	}
	if svc.Clear(ctx) {
		t.Error("Clear succeeded on unavailable store")
	}
}
