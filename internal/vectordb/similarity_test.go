package vectordb

import (
	"math"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"scaled", []float32{2, 0}, []float32{5, 0}, 1.0},
		{"mismatched length", []float32{1, 0}, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"empty", nil, nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRankByCosine(t *testing.T) {
	docs := []*models.Document{
		{ID: "1", Content: "east"},
		{ID: "2", Content: "north"},
		{ID: "3", Content: "northeast"},
		{ID: "4", Content: "west"},
	}
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
		{-1, 0},
	}
	query := []float32{1, 0}

	results := rankByCosine(query, docs, vectors, 10)
	// "west" has similarity -1 and must be excluded.
	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}
	if results[0].Document.ID != "1" {
		t.Errorf("top result: got %s, want 1", results[0].Document.ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestRankByCosineTopK(t *testing.T) {
	docs := []*models.Document{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0.8, 0.2}}
	results := rankByCosine([]float32{1, 0}, docs, vectors, 2)
	if len(results) != 2 {
		t.Errorf("topK not applied: got %d results", len(results))
	}
	if results := rankByCosine([]float32{1, 0}, docs, vectors, 0); results != nil {
		t.Errorf("topK=0: got %v, want nil", results)
	}
}
