package casfs

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oneconcern/casfs/pkg/cafs"
	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/oneconcern/casfs/pkg/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// HandleID identifies an open file
type HandleID uint64

// handles are numbered after this value
const lastReservedHandle HandleID = 10

const accessModeMask = os.O_RDONLY | os.O_WRONLY | os.O_RDWR

// handle is an open file: exactly one of reader or writer is set
type handle struct {
	mx     sync.Mutex
	entry  inodes.Entry
	reader cafs.Reader
	writer cafs.Writer

	// path follows renames of the entry. It is guarded by Core.mx, and empty
	// once the entry is removed or replaced.
	path string
}

// Core holds the open file handles
type Core struct {
	inodes   inodes.Store
	fs       cafs.Fs
	readOnly bool
	now      func() time.Time
	l        *zap.Logger

	mx      sync.Mutex
	handles map[HandleID]*handle
	last    HandleID

	metrics.Enable
	m *M
}

// New builds a core on an inode store and a content-addressable store
func New(store inodes.Store, fs cafs.Fs, opts ...Option) (*Core, error) {
	if store == nil || fs == nil {
		return nil, status.ErrConfig.WrapMessage("an inode store and a content store are required")
	}
	c := &Core{
		inodes:  store,
		fs:      fs,
		now:     time.Now,
		l:       dlogger.MustGetLogger(dlogger.LogLevelInfo),
		handles: make(map[HandleID]*handle),
		last:    lastReservedHandle,
	}
	for _, apply := range opts {
		apply(c)
	}
	if c.MetricsEnabled() {
		c.m = c.EnsureMetrics("casfs", newM()).(*M)
	}
	return c, nil
}

// ReadOnly tells if the core rejects mutations
func (c *Core) ReadOnly() bool {
	return c.readOnly
}

// Inodes returns the inode store
func (c *Core) Inodes() inodes.Store {
	return c.inodes
}

// Handles returns the number of open handles
func (c *Core) Handles() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return len(c.handles)
}

// Open a file for reading or for writing.
//
// Opening for reading and writing at the same time is not supported.
// Opening for writing starts new content: the previous content remains
// visible until the handle is released.
func (c *Core) Open(ctx context.Context, p string, flags int) (id HandleID, err error) {
	t0 := c.opStart("open", zap.String("path", p), zap.Int("flags", flags))
	defer func() { c.opEnd(t0, "open", err, zap.String("path", p), zap.Uint64("handle", uint64(id))) }()

	access := flags & accessModeMask
	if access == os.O_RDWR {
		return 0, status.ErrUnsupportedMode.WrapMessage("%s", p)
	}

	entry, err := c.inodes.Resolve(ctx, p)
	if err != nil {
		return 0, metadataError(err)
	}
	if entry.IsDir() {
		return 0, status.ErrIsDir.WrapMessage("%s", entry.Path)
	}

	h := &handle{entry: entry, path: entry.Path}
	if access == os.O_WRONLY {
		if c.readOnly {
			return 0, status.ErrReadOnly.WrapMessage("%s", entry.Path)
		}
		if h.writer, err = c.fs.NewWriter(ctx); err != nil {
			return 0, contentError(err)
		}
	} else {
		if h.reader, err = c.newReader(ctx, entry); err != nil {
			return 0, err
		}
	}
	return c.register(h), nil
}

func (c *Core) newReader(ctx context.Context, entry inodes.Entry) (cafs.Reader, error) {
	if entry.BlockHash == "" {
		return cafs.EmptyReader(), nil
	}
	key, err := cafs.KeyFromString(entry.BlockHash)
	if err != nil {
		return nil, status.ErrBadEntry.Wrap(err)
	}
	r, err := c.fs.NewReader(ctx, key)
	if err != nil {
		return nil, contentError(err)
	}
	return r, nil
}

// Create a file, then open it for writing
func (c *Core) Create(ctx context.Context, p string, mode os.FileMode) (id HandleID, err error) {
	t0 := c.opStart("create", zap.String("path", p), zap.Stringer("mode", mode))
	defer func() { c.opEnd(t0, "create", err, zap.String("path", p), zap.Uint64("handle", uint64(id))) }()

	if c.readOnly {
		return 0, status.ErrReadOnly.WrapMessage("%s", p)
	}
	if _, err = c.inodes.Create(ctx, p, mode); err != nil {
		return 0, metadataError(err)
	}
	return c.Open(ctx, p, os.O_WRONLY)
}

func (c *Core) register(h *handle) HandleID {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.last++
	c.handles[c.last] = h
	if c.MetricsEnabled() {
		c.m.Handles.Inc()
	}
	return c.last
}

func (c *Core) lookup(id HandleID) (*handle, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	h, ok := c.handles[id]
	if !ok {
		return nil, status.ErrInvalidHandle.WrapMessage("%d", id)
	}
	return h, nil
}

func (c *Core) unregister(id HandleID) (*handle, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	h, ok := c.handles[id]
	if !ok {
		return nil, status.ErrInvalidHandle.WrapMessage("%d", id)
	}
	delete(c.handles, id)
	if c.MetricsEnabled() {
		c.m.Handles.Dec()
	}
	return h, nil
}

// relocate points the handles open on from, or below it, to their new path.
// Handles open on a replaced destination are detached.
func (c *Core) relocate(from, to string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	for _, h := range c.handles {
		switch {
		case h.path == from || inodes.IsBelow(h.path, from):
			h.path = to + strings.TrimPrefix(h.path, from)
		case h.path == to:
			h.path = ""
		}
	}
}

// detach marks the handles open on a removed file
func (c *Core) detach(p string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	for _, h := range c.handles {
		if h.path == p {
			h.path = ""
		}
	}
}

// Read from a handle opened for reading.
//
// Reading past the end of the file returns 0 bytes and no error.
func (c *Core) Read(ctx context.Context, id HandleID, p []byte, off int64) (n int, err error) {
	t0 := c.opStart("read", zap.Uint64("handle", uint64(id)), zap.Int("buffer", len(p)), zap.Int64("offset", off))
	defer func() { c.opEnd(t0, "read", err, zap.Uint64("handle", uint64(id)), zap.Int("read", n)) }()

	h, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	h.mx.Lock()
	defer h.mx.Unlock()

	if h.reader == nil {
		return 0, status.ErrWrongMode.WrapMessage("handle %d is write-only", id)
	}
	n, err = h.reader.ReadAt(ctx, p, off)
	return n, contentError(err)
}

// Write to a handle opened for writing. Writes must be sequential.
func (c *Core) Write(ctx context.Context, id HandleID, p []byte, off int64) (n int, err error) {
	t0 := c.opStart("write", zap.Uint64("handle", uint64(id)), zap.Int("buffer", len(p)), zap.Int64("offset", off))
	defer func() { c.opEnd(t0, "write", err, zap.Uint64("handle", uint64(id)), zap.Int("written", n)) }()

	h, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	h.mx.Lock()
	defer h.mx.Unlock()

	if h.writer == nil {
		return 0, status.ErrWrongMode.WrapMessage("handle %d is read-only", id)
	}
	n, err = h.writer.WriteAt(ctx, p, off)
	return n, contentError(err)
}

// Release a handle.
//
// For a handle opened for writing, the new content is committed and the entry is
// updated with its key, size and the current time. Nothing is updated when no byte was written.
func (c *Core) Release(ctx context.Context, id HandleID) (err error) {
	t0 := c.opStart("release", zap.Uint64("handle", uint64(id)))
	defer func() { c.opEnd(t0, "release", err, zap.Uint64("handle", uint64(id))) }()

	h, err := c.unregister(id)
	if err != nil {
		return err
	}
	return c.release(ctx, h)
}

func (c *Core) release(ctx context.Context, h *handle) error {
	h.mx.Lock()
	defer h.mx.Unlock()

	if h.reader != nil {
		return contentError(h.reader.Close())
	}

	res, err := h.writer.Close(ctx)
	if err != nil {
		return contentError(err)
	}
	if res == nil {
		c.l.Debug("released without writes", zap.String("path", h.entry.Path))
		return nil
	}
	if h.path == "" {
		return status.ErrNotFound.WrapMessage("%s was removed while open, content %s is not linked", h.entry.Path, res.Key)
	}

	err = c.inodes.Update(ctx, h.path, inodes.Update{
		BlockHash: res.Key.String(),
		Size:      res.Written,
		Mtime:     c.now(),
		Mask:      inodes.UpdateContent | inodes.UpdateMtime,
	})
	if err != nil {
		return metadataError(err)
	}
	c.l.Debug("content committed",
		zap.String("path", h.path),
		zap.Stringer("key", res.Key),
		zap.Int64("size", res.Written),
		zap.Int("parts", len(res.Parts)),
	)
	return nil
}

// Shutdown releases all open handles
func (c *Core) Shutdown(ctx context.Context) error {
	c.mx.Lock()
	pending := c.handles
	c.handles = make(map[HandleID]*handle)
	c.mx.Unlock()

	if len(pending) > 0 {
		c.l.Info("releasing open handles", zap.Int("count", len(pending)))
	}
	var err error
	for id, h := range pending {
		if c.MetricsEnabled() {
			c.m.Handles.Dec()
		}
		if rerr := c.release(ctx, h); rerr != nil {
			c.l.Error("release failed", zap.Uint64("handle", uint64(id)), zap.Error(rerr))
			err = multierr.Append(err, rerr)
		}
	}
	return err
}

func (c *Core) opStart(op string, fields ...zap.Field) time.Time {
	if ce := c.l.Check(zap.DebugLevel, "Start"); ce != nil {
		ce.Write(append(fields, zap.String("op", op))...)
	}
	return time.Now()
}

func (c *Core) opEnd(t0 time.Time, op string, err error, fields ...zap.Field) {
	if c.MetricsEnabled() {
		c.m.record(op, err)
	}
	fields = append(fields, zap.String("op", op), zap.Duration("elapsed", time.Since(t0)))
	if err != nil {
		c.l.Debug("End", append(fields, zap.Error(err))...)
		return
	}
	if ce := c.l.Check(zap.DebugLevel, "End"); ce != nil {
		ce.Write(fields...)
	}
}
