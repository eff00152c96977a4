// Package retrieval composes the embedder and document store behind the four
// operations the rest of the service uses: add, search, stats, clear.
//
// No method returns an error. Every failure is logged and degrades to a false
// return or an empty result set; callers above this boundary never see
// provider errors.
package retrieval

import (
	"context"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/keyword"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/vectordb"
	"go.uber.org/zap"
)

const defaultTopK = 5

// Service is the retrieval facade over an embedder and a document store.
type Service struct {
	embedder embedding.Embedder
	store    vectordb.Store
	keyword  keyword.Index
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithKeywordIndex enables keyword retrieval as the degraded path when the
// embedding call fails.
func WithKeywordIndex(idx keyword.Index) Option {
	return func(s *Service) { s.keyword = idx }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates the facade. The service owns neither component's
// lifecycle; the caller closes them.
func NewService(embedder embedding.Embedder, store vectordb.Store, opts ...Option) *Service {
	s := &Service{embedder: embedder, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddDocument embeds content and persists it. Returns false on any failure.
func (s *Service) AddDocument(ctx context.Context, content string, metadata map[string]interface{}) bool {
	vector, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.logger.Error("add document: embedding failed", zap.Error(err))
		return false
	}
	id, err := s.store.Add(ctx, content, metadata, vector)
	if err != nil {
		s.logger.Error("add document: store insert failed", zap.Error(err))
		return false
	}
	if s.keyword != nil {
		if err := s.keyword.Index(ctx, id, content, metadata); err != nil {
			// Keyword indexing is best-effort; the document is stored.
			s.logger.Warn("add document: keyword index failed", zap.String("id", id), zap.Error(err))
		}
	}
	s.logger.Debug("document added", zap.String("id", id), zap.Int("embedding_dim", len(vector)))
	return true
}

// Search embeds the query and returns up to topK similar documents, ordered
// by descending score. When the embedding call fails and a keyword index is
// configured, keyword hits are returned instead; otherwise the result is
// empty. topK <= 0 uses a default of 5.
func (s *Service) Search(ctx context.Context, query string, topK int) []*models.SearchResult {
	if topK <= 0 {
		topK = defaultTopK
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("search: embedding failed", zap.Error(err))
		return s.keywordSearch(ctx, query, topK)
	}
	results, err := s.store.Search(ctx, vector, topK)
	if err != nil {
		s.logger.Warn("search: store query failed", zap.Error(err))
		return nil
	}
	return results
}

// keywordSearch is the degraded retrieval path.
func (s *Service) keywordSearch(ctx context.Context, query string, topK int) []*models.SearchResult {
	if s.keyword == nil {
		return nil
	}
	hits, err := s.keyword.Search(ctx, query, topK)
	if err != nil {
		s.logger.Warn("search: keyword fallback failed", zap.Error(err))
		return nil
	}
	results := make([]*models.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = &models.SearchResult{
			Document: &models.Document{ID: hit.ID, Content: hit.Content, Metadata: hit.Metadata},
			Score:    hit.Score,
		}
	}
	return results
}

// Stats reports the store's availability, size, and embedding configuration.
func (s *Service) Stats(ctx context.Context) *models.Stats {
	stats := &models.Stats{
		EmbeddingModel:      s.embedder.ModelName(),
		EmbeddingDimensions: s.embedder.Dimensions(),
		Location:            s.store.Location(),
	}
	if !s.store.Available() {
		stats.Status = models.StatusNotConnected
		return stats
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Error("stats: count failed", zap.Error(err))
		stats.Status = models.StatusError
		stats.Error = err.Error()
		return stats
	}
	stats.Status = models.StatusConnected
	stats.Documents = n
	return stats
}

// Clear removes all documents. Returns false if the store could not be cleared.
func (s *Service) Clear(ctx context.Context) bool {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("clear failed", zap.Error(err))
		return false
	}
	if s.keyword != nil {
		if err := s.keyword.Clear(ctx); err != nil {
			s.logger.Warn("clear: keyword index failed", zap.Error(err))
		}
	}
	return true
}
