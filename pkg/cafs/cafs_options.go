package cafs

import (
	"github.com/oneconcern/casfs/pkg/storage"
	"go.uber.org/zap"
)

// Option to configure content addressable FS components
type Option func(*defaultFs)

// LeafSize specifies the size limit of a single block. Larger content is split in parts.
func LeafSize(sz int64) Option {
	return func(w *defaultFs) {
		w.leafSize = sz
	}
}

// Backend specifies the backend store
func Backend(store storage.Store) Option {
	return func(w *defaultFs) {
		w.store = store
	}
}

// Logger sets a logger for this store
func Logger(l *zap.Logger) Option {
	return func(w *defaultFs) {
		if l != nil {
			w.l = l
		}
	}
}

// WithMetrics enables metrics collection
func WithMetrics(enabled bool) Option {
	return func(w *defaultFs) {
		w.EnableMetrics(enabled)
	}
}
