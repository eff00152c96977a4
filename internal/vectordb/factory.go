package vectordb

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Backend identifiers accepted by New.
const (
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
	BackendMilvus = "milvus"
)

// Options selects and configures a store backend.
type Options struct {
	// Backend is one of local, sqlite, milvus. Empty defaults to local.
	Backend    string
	Path       string
	Dimensions int
	Milvus     MilvusConfig
	Logger     *zap.Logger
}

// New creates the configured store backend.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendLocal, "":
		return NewLocalStore(opts.Path, opts.Dimensions)
	case BackendSQLite:
		return NewSQLiteStore(opts.Path, opts.Dimensions)
	case BackendMilvus:
		return NewMilvusStore(ctx, opts.Milvus, opts.Dimensions, opts.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
