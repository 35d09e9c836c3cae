package gcs

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Option is a functor to pass optional parameters to the gcs store
type Option func(*gcs)

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(g *gcs) {
		if logger != nil {
			g.l = logger
		}
	}
}

// CredentialsFile specifies a service account key file.
// When not set, application default credentials apply.
func CredentialsFile(file string) Option {
	return func(g *gcs) {
		if file != "" {
			g.clientOpts = append(g.clientOpts, option.WithCredentialsFile(file))
		}
	}
}

// ClientOptions passes extra options to the google storage client
func ClientOptions(opts ...option.ClientOption) Option {
	return func(g *gcs) {
		g.clientOpts = append(g.clientOpts, opts...)
	}
}

// StagingFs specifies where parts are spooled before upload
func StagingFs(fs afero.Fs, dir string) Option {
	return func(g *gcs) {
		g.stagingFs = fs
		g.stagingDir = dir
	}
}
