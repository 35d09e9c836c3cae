package localfs

import "go.uber.org/zap"

// Option is a functor to pass optional parameters to the local store
type Option func(*localFS)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(l *localFS) {
		if logger != nil {
			l.l = logger
		}
	}
}

// StagingDir names the directory, relative to the store root, holding temporary files.
//
// The default is ".tmp".
func StagingDir(name string) Option {
	return func(l *localFS) {
		if name != "" {
			l.staging = name
		}
	}
}
