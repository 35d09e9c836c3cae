package fuse

import (
	"github.com/hanwen/go-fuse/v2/fs"
	"go.uber.org/zap"
)

// Option for the file system
type Option func(*FS)

// Logger for this file system
func Logger(l *zap.Logger) Option {
	return func(f *FS) {
		if l != nil {
			f.l = l
		}
	}
}

// Owner sets the owner reported for all entries
func Owner(uid, gid uint32) Option {
	return func(f *FS) {
		f.uid = uid
		f.gid = gid
	}
}

// WithMetrics toggles metrics on the fuse package
func WithMetrics(enabled bool) Option {
	return func(f *FS) {
		f.EnableMetrics(enabled)
	}
}

// MountOption enables options when mounting the file system
type MountOption func(*fs.Options)

// AllowOther lets other users access the mount. This requires user_allow_other in /etc/fuse.conf.
func AllowOther(enabled bool) MountOption {
	return func(o *fs.Options) {
		o.MountOptions.AllowOther = enabled
	}
}

// FsName sets the name of the mounted device, as shown by mount(8)
func FsName(name string) MountOption {
	return func(o *fs.Options) {
		if name != "" {
			o.MountOptions.FsName = name
		}
	}
}

// Debug traces all fuse requests
func Debug(enabled bool) MountOption {
	return func(o *fs.Options) {
		o.MountOptions.Debug = enabled
	}
}
