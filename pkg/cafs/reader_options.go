package cafs

import "go.uber.org/zap"

// ReaderOption is a functor to provide the reader with options
type ReaderOption func(*fsReader)

// ReaderLogger injects a logger in the reader
func ReaderLogger(l *zap.Logger) ReaderOption {
	return func(r *fsReader) {
		if l != nil {
			r.l = l
		}
	}
}

// ReaderWithMetrics enables metrics collection on this reader
func ReaderWithMetrics(enabled bool) ReaderOption {
	return func(r *fsReader) {
		r.EnableMetrics(enabled)
	}
}
