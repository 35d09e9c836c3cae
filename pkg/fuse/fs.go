package fuse

import (
	"context"
	"os"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/oneconcern/casfs/pkg/casfs"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/fuse/status"
	"github.com/oneconcern/casfs/pkg/metrics"
	"go.uber.org/zap"
)

const (
	// Cache duration for entries and attributes
	attrTimeout         = time.Second
	negativeTimeout     = 100 * time.Millisecond
	dirLinkCount uint32 = 2
	fileLinkCount       = uint32(1)
	blockSize           = 4096
	nameMax             = 255
	dirDefaultMode      = 0o755
)

// FS serves a casfs core as a fuse file system
type FS struct {
	core *casfs.Core
	l    *zap.Logger
	uid  uint32
	gid  uint32

	metrics.Enable
	m *M
}

// New builds a file system backed by a casfs core
func New(core *casfs.Core, opts ...Option) (*FS, error) {
	if core == nil {
		return nil, status.ErrNoCore
	}
	fsys := &FS{
		core: core,
		l:    dlogger.MustGetLogger(dlogger.LogLevelInfo),
		uid:  uint32(os.Getuid()),
		gid:  uint32(os.Getgid()),
	}
	for _, apply := range opts {
		apply(fsys)
	}
	if fsys.MetricsEnabled() {
		fsys.m = fsys.EnsureMetrics("fuse", newM()).(*M)
	}
	return fsys, nil
}

// Root node of the file system
func (f *FS) Root() fs.InodeEmbedder {
	return &node{fsys: f}
}

// MountedFS is a file system served at some mount point
type MountedFS struct {
	mountpoint string
	server     *fuse.Server
	fsys       *FS
}

// Mount the file system. The mount point is created if it does not exist.
func (f *FS) Mount(mountpoint string, opts ...MountOption) (*MountedFS, error) {
	if err := os.MkdirAll(mountpoint, dirDefaultMode); err != nil {
		return nil, status.ErrMountpoint.Wrap(err)
	}

	entryTTL, attrTTL, negativeTTL := attrTimeout, attrTimeout, negativeTimeout
	options := &fs.Options{
		EntryTimeout:    &entryTTL,
		AttrTimeout:     &attrTTL,
		NegativeTimeout: &negativeTTL,
		MountOptions: fuse.MountOptions{
			FsName: "casfs",
			Name:   "casfs",
		},
		UID: f.uid,
		GID: f.gid,
	}
	if f.core.ReadOnly() {
		options.MountOptions.Options = append(options.MountOptions.Options, "ro")
	}
	for _, apply := range opts {
		apply(options)
	}

	server, err := fs.Mount(mountpoint, f.Root(), options)
	if err != nil {
		return nil, status.ErrMount.Wrap(err)
	}
	f.l.Info("mounted",
		zap.String("mountpoint", mountpoint),
		zap.Bool("read-only", f.core.ReadOnly()),
		zap.Bool("allow-other", options.MountOptions.AllowOther),
	)
	return &MountedFS{mountpoint: mountpoint, server: server, fsys: f}, nil
}

// Unmount the file system, then release all handles left open
func (m *MountedFS) Unmount(ctx context.Context) error {
	m.fsys.l.Info("unmounting", zap.String("mountpoint", m.mountpoint))
	if err := m.server.Unmount(); err != nil {
		return err
	}
	return m.fsys.core.Shutdown(ctx)
}

// Wait blocks until the file system is unmounted
func (m *MountedFS) Wait() {
	m.server.Wait()
}

// Mountpoint where the file system is served
func (m *MountedFS) Mountpoint() string {
	return m.mountpoint
}
