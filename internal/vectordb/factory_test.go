package vectordb

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	tests := []struct {
		backend string
		path    string
	}{
		{BackendLocal, filepath.Join(dir, "store.json")},
		{"", filepath.Join(dir, "default.json")},
		{BackendSQLite, filepath.Join(dir, "documents.db")},
	}
	for _, tt := range tests {
		s, err := New(ctx, Options{Backend: tt.backend, Path: tt.path, Dimensions: 4})
		if err != nil {
			t.Fatalf("backend %q: %v", tt.backend, err)
		}
		if !s.Available() {
			t.Errorf("backend %q: not available", tt.backend)
		}
		s.Close()
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), Options{Backend: "chroma", Dimensions: 4}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewRejectsZeroDimensions(t *testing.T) {
	if _, err := New(context.Background(), Options{Backend: BackendLocal, Path: "x.json"}); err == nil {
		t.Fatal("expected error for zero dimensions")
	}
}
