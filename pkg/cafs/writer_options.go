package cafs

import "go.uber.org/zap"

// WriterOption is a functor to provide the writer with options
type WriterOption func(writer *fsWriter)

// WriterLeafSize sets the size limit of a single block. Larger content is split in parts.
func WriterLeafSize(size int64) WriterOption {
	return func(writer *fsWriter) {
		if size > 0 {
			writer.leafSize = size
		}
	}
}

// WriterLogger injects a logger in the writer
func WriterLogger(l *zap.Logger) WriterOption {
	return func(writer *fsWriter) {
		if l != nil {
			writer.l = l
		}
	}
}

// WriterWithMetrics enables metrics collection on this writer
func WriterWithMetrics(enabled bool) WriterOption {
	return func(writer *fsWriter) {
		writer.EnableMetrics(enabled)
	}
}
