package vectordb

import (
	"math"
	"sort"

	"github.com/hyperjump/kotae/internal/models"
)

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
// Zero-length or mismatched vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankByCosine scores every candidate against query and returns the topK by
// descending similarity. Candidates with non-positive similarity are dropped.
// docs and vectors are positionally aligned.
func rankByCosine(query []float32, docs []*models.Document, vectors [][]float32, topK int) []*models.SearchResult {
	if topK <= 0 || len(docs) == 0 {
		return nil
	}
	results := make([]*models.SearchResult, 0, len(docs))
	for i, doc := range docs {
		score := CosineSimilarity(query, vectors[i])
		if score <= 0 {
			continue
		}
		results = append(results, &models.SearchResult{Document: doc, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results
}
