package keyword

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// bleveDoc is what we index: content for matching, metadata carried along as
// a stored JSON string.
type bleveDoc struct {
	Content  string `json:"content"`
	Metadata string `json:"metadata"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	mu    sync.Mutex
	path  string
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused; remove the directory to force a rebuild after mapping changes.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open keyword index: %w", openErr)
		}
		return &BleveIndex{path: path, index: index}, nil
	}
	index, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &BleveIndex{path: path, index: index}, nil
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so query terms
	// match the exact words users typed.
	contentField.Analyzer = standard.Name
	contentField.Store = true
	docMapping.AddFieldMappingsAt("content", contentField)

	metadataField := bleve.NewTextFieldMapping()
	metadataField.Store = true
	metadataField.Index = false
	docMapping.AddFieldMappingsAt("metadata", metadataField)

	im.DefaultMapping = docMapping
	return im
}

// Index adds or replaces the document under id.
func (b *BleveIndex) Index(ctx context.Context, id, content string, metadata map[string]interface{}) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Index(id, bleveDoc{Content: content, Metadata: string(metaJSON)})
}

// Search runs a match query over content and returns up to limit hits with
// their stored fields.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"content", "metadata"}

	b.mu.Lock()
	index := b.index
	b.mu.Unlock()
	results, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	out := make([]*Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		r := &Result{ID: hit.ID, Score: hit.Score}
		if content, ok := hit.Fields["content"].(string); ok {
			r.Content = content
		}
		if metaJSON, ok := hit.Fields["metadata"].(string); ok && metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &r.Metadata)
		}
		out = append(out, r)
	}
	return out, nil
}

// Clear drops the index directory and recreates an empty index.
func (b *BleveIndex) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("close keyword index: %w", err)
	}
	if err := os.RemoveAll(b.path); err != nil {
		return fmt.Errorf("remove keyword index: %w", err)
	}
	index, err := bleve.New(b.path, buildMapping())
	if err != nil {
		return fmt.Errorf("recreate keyword index: %w", err)
	}
	b.index = index
	return nil
}

// Close closes the underlying index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}
