package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

const (
	milvusFieldID        = "primary_key"
	milvusFieldContent   = "content"
	milvusFieldMetadata  = "metadata"
	milvusFieldEmbedding = "embedding"
	milvusMaxTextLength  = 65535
)

// MilvusConfig holds connection and index tuning parameters for the remote store.
type MilvusConfig struct {
	// Host is the Milvus/Zilliz endpoint without scheme.
	Host       string
	Token      string
	Collection string
	NList      int
	NProbe     int
}

// MilvusStore delegates storage and similarity search to a remote Milvus
// collection. When the initial connection or collection setup fails the store
// enters a permanent not-available state: every operation then returns
// ErrNotAvailable instead of attempting the remote call. This is the intended
// degraded mode, not an error to propagate to users.
type MilvusStore struct {
	client     client.Client
	cfg        MilvusConfig
	dimensions int
	logger     *zap.Logger
	available  bool
}

// NewMilvusStore connects to the configured Milvus endpoint and ensures the
// collection and its index exist. Connection failures do not fail
// construction; the returned store is simply not available.
func NewMilvusStore(ctx context.Context, cfg MilvusConfig, dimensions int, logger *zap.Logger) (*MilvusStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("milvus collection name is empty")
	}
	if cfg.NList <= 0 {
		cfg.NList = 128
	}
	if cfg.NProbe <= 0 {
		cfg.NProbe = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MilvusStore{cfg: cfg, dimensions: dimensions, logger: logger}

	address := cfg.Host
	if !strings.Contains(address, "://") {
		address = "https://" + address
	}
	c, err := client.NewClient(ctx, client.Config{Address: address, APIKey: cfg.Token})
	if err != nil {
		logger.Warn("milvus connect failed, store not available",
			zap.String("host", cfg.Host), zap.Error(err))
		return s, nil
	}
	s.client = c
	if err := s.ensureCollection(ctx); err != nil {
		logger.Warn("milvus collection setup failed, store not available",
			zap.String("collection", cfg.Collection), zap.Error(err))
		return s, nil
	}
	s.available = true
	logger.Info("milvus store connected",
		zap.String("host", cfg.Host), zap.String("collection", cfg.Collection))
	return s, nil
}

// ensureCollection creates the collection and its index if absent, then loads
// it. The has/create check is not guarded against races between multiple
// process instances; Milvus rejects the duplicate create.
func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := s.client.HasCollection(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if !has {
		schema := entity.NewSchema().
			WithName(s.cfg.Collection).
			WithDescription("chat documents collection").
			WithField(entity.NewField().WithName(milvusFieldID).
				WithDataType(entity.FieldTypeInt64).WithIsPrimaryKey(true).WithIsAutoID(true)).
			WithField(entity.NewField().WithName(milvusFieldContent).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusMaxTextLength)).
			WithField(entity.NewField().WithName(milvusFieldMetadata).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(milvusMaxTextLength)).
			WithField(entity.NewField().WithName(milvusFieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dimensions)))
		if err := s.client.CreateCollection(ctx, schema, 1); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		idx, err := entity.NewIndexIvfFlat(entity.COSINE, s.cfg.NList)
		if err != nil {
			return fmt.Errorf("build index params: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.cfg.Collection, milvusFieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	if err := s.client.LoadCollection(ctx, s.cfg.Collection, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

// Add inserts one row; the server assigns the int64 primary key, returned
// here as its decimal string form.
func (s *MilvusStore) Add(ctx context.Context, content string, metadata map[string]interface{}, vector []float32) (string, error) {
	if !s.available {
		return "", ErrNotAvailable
	}
	if len(vector) != s.dimensions {
		return "", fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vector), s.dimensions)
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	ids, err := s.client.Insert(ctx, s.cfg.Collection, "",
		entity.NewColumnVarChar(milvusFieldContent, []string{content}),
		entity.NewColumnVarChar(milvusFieldMetadata, []string{string(metaJSON)}),
		entity.NewColumnFloatVector(milvusFieldEmbedding, s.dimensions, [][]float32{vector}),
	)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	idCol, ok := ids.(*entity.ColumnInt64)
	if !ok || idCol.Len() == 0 {
		return "", fmt.Errorf("insert returned no primary key")
	}
	pk, err := idCol.ValueByIdx(0)
	if err != nil {
		return "", fmt.Errorf("read primary key: %w", err)
	}
	return strconv.FormatInt(pk, 10), nil
}

// Search runs a cosine similarity search against the remote index and shapes
// the hits into search results. Hits are returned in the service's ranking
// order; no local score filtering is applied.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int) ([]*models.SearchResult, error) {
	if !s.available {
		return nil, ErrNotAvailable
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vector), s.dimensions)
	}
	if topK <= 0 {
		return nil, nil
	}
	sp, err := entity.NewIndexIvfFlatSearchParam(s.cfg.NProbe)
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}
	results, err := s.client.Search(ctx, s.cfg.Collection, nil, "",
		[]string{milvusFieldContent, milvusFieldMetadata},
		[]entity.Vector{entity.FloatVector(vector)},
		milvusFieldEmbedding, entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var out []*models.SearchResult
	for _, rs := range results {
		ids, _ := rs.IDs.(*entity.ColumnInt64)
		contentCol, _ := rs.Fields.GetColumn(milvusFieldContent).(*entity.ColumnVarChar)
		metadataCol, _ := rs.Fields.GetColumn(milvusFieldMetadata).(*entity.ColumnVarChar)
		for i := 0; i < rs.ResultCount; i++ {
			doc := &models.Document{}
			if ids != nil {
				if pk, err := ids.ValueByIdx(i); err == nil {
					doc.ID = strconv.FormatInt(pk, 10)
				}
			}
			if contentCol != nil {
				if v, err := contentCol.ValueByIdx(i); err == nil {
					doc.Content = v
				}
			}
			if metadataCol != nil {
				if v, err := metadataCol.ValueByIdx(i); err == nil && v != "" {
					// Malformed metadata is tolerated; the document is
					// returned without it.
					_ = json.Unmarshal([]byte(v), &doc.Metadata)
				}
			}
			out = append(out, &models.SearchResult{Document: doc, Score: float64(rs.Scores[i])})
		}
	}
	return out, nil
}

// Count reads the collection's row count statistic.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	if !s.available {
		return 0, ErrNotAvailable
	}
	stats, err := s.client.GetCollectionStatistics(ctx, s.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("collection statistics: %w", err)
	}
	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse row count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

// Clear drops the collection and recreates it empty so later adds still work.
func (s *MilvusStore) Clear(ctx context.Context) error {
	if !s.available {
		return ErrNotAvailable
	}
	if err := s.client.DropCollection(ctx, s.cfg.Collection); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	if err := s.ensureCollection(ctx); err != nil {
		s.available = false
		return fmt.Errorf("recreate collection: %w", err)
	}
	return nil
}

// Available reports whether the connection and collection setup succeeded.
func (s *MilvusStore) Available() bool { return s.available }

// Location returns the configured Milvus host.
func (s *MilvusStore) Location() string { return s.cfg.Host }

// Close closes the client connection if one was established.
func (s *MilvusStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
