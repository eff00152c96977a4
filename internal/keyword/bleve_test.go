package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBleveIndexSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.Index(ctx, "doc-1", "Milvus is an open-source vector database",
		map[string]interface{}{"topic": "vector_database"}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(ctx, "doc-2", "Docker is a container platform", nil); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "vector database", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results for matching query")
	}
	if results[0].ID != "doc-1" {
		t.Errorf("top hit: got %s, want doc-1", results[0].ID)
	}
	if results[0].Content == "" {
		t.Error("stored content not returned")
	}
	if got := results[0].Metadata["topic"]; got != "vector_database" {
		t.Errorf("metadata: got %v", got)
	}
}

func TestBleveIndexMetadataNotSearchable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.Index(ctx, "doc-1", "container platform basics",
		map[string]interface{}{"topic": "zebra"}); err != nil {
		t.Fatal(err)
	}

	// Metadata is stored for display but excluded from the index.
	results, err := idx.Search(ctx, "zebra", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("hits on metadata-only term: got %d, want 0", len(results))
	}
}

func TestBleveIndexClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	ctx := context.Background()
	if err := idx.Index(ctx, "doc-1", "some indexed text", nil); err != nil {
		t.Fatal(err)
	}
	if err := idx.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "indexed", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results after clear: got %d, want 0", len(results))
	}
	// Index still usable after clear.
	if err := idx.Index(ctx, "doc-2", "fresh text", nil); err != nil {
		t.Errorf("index after clear: %v", err)
	}
}

func TestBleveIndexReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := idx.Index(ctx, "doc-1", "persistent entry", nil); err != nil {
		t.Fatal(err)
	}
	idx.Close()

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	results, err := reopened.Search(ctx, "persistent", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results after reopen: got %d, want 1", len(results))
	}
}
