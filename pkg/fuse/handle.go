package fuse

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/oneconcern/casfs/pkg/casfs"
	"go.uber.org/zap"
)

// fileHandle is an open file, bound to a handle of the casfs core
type fileHandle struct {
	fsys *FS
	path string
	id   casfs.HandleID
}

var (
	_ fs.FileReader   = (*fileHandle)(nil)
	_ fs.FileWriter   = (*fileHandle)(nil)
	_ fs.FileFlusher  = (*fileHandle)(nil)
	_ fs.FileReleaser = (*fileHandle)(nil)
)

func (f *FS) newHandle(p string, id casfs.HandleID) *fileHandle {
	return &fileHandle{fsys: f, path: p, id: id}
}

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	t0 := h.fsys.opStart("read", h.path, zap.Uint64("handle", uint64(h.id)), zap.Int64("offset", off))

	n, err := h.fsys.core.Read(ctx, h.id, dest, off)
	if errno := h.fsys.opEnd(t0, "read", h.path, err); errno != 0 {
		return nil, errno
	}
	if h.fsys.MetricsEnabled() {
		h.fsys.m.IO.WithLabelValues("read").Add(float64(n))
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *fileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	t0 := h.fsys.opStart("write", h.path, zap.Uint64("handle", uint64(h.id)), zap.Int64("offset", off))

	n, err := h.fsys.core.Write(ctx, h.id, data, off)
	if errno := h.fsys.opEnd(t0, "write", h.path, err); errno != 0 {
		return 0, errno
	}
	if h.fsys.MetricsEnabled() {
		h.fsys.m.IO.WithLabelValues("write").Add(float64(n))
	}
	return uint32(n), 0
}

// Flush does nothing: content is committed when the handle is released
func (h *fileHandle) Flush(context.Context) syscall.Errno {
	return 0
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	t0 := h.fsys.opStart("release", h.path, zap.Uint64("handle", uint64(h.id)))
	return h.fsys.opEnd(t0, "release", h.path, h.fsys.core.Release(ctx, h.id))
}
