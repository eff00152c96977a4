package vectordb

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.Add(ctx, "Python is a programming language",
		map[string]interface{}{"topic": "python"}, []float32{0.5, 0.5, 0})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("empty document ID")
	}
	s.Close()

	reopened, err := NewSQLiteStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count after reopen: got %d, want 1", n)
	}
	results, err := reopened.Search(ctx, []float32{0.5, 0.5, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results: got %d, want 1", len(results))
	}
	if results[0].Document.Content != "Python is a programming language" {
		t.Errorf("content: got %q", results[0].Document.Content)
	}
	if got := results[0].Document.Metadata["topic"]; got != "python" {
		t.Errorf("metadata topic: got %v", got)
	}
	if results[0].Score < 0.999 {
		t.Errorf("identical vector score: got %f", results[0].Score)
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	ctx := context.Background()
	s, err := NewSQLiteStore(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if _, err := s.Add(ctx, "doc", nil, []float32{1, 0}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Errorf("count after clear: got %d, want 0", n)
	}
}

func TestSQLiteStoreDimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.db")
	s, err := NewSQLiteStore(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Add(context.Background(), "doc", nil, []float32{1}); err == nil {
		t.Error("expected dimension mismatch on Add")
	}
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.14159, 0, 1e-7}
	out := decodeVector(encodeVector(in))
	if len(out) != len(in) {
		t.Fatalf("length: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Float32bits(in[i]) != math.Float32bits(out[i]) {
			t.Errorf("value %d: got %v, want %v", i, out[i], in[i])
		}
	}
}
