package cafs

import (
	"context"
	"io"

	"github.com/oneconcern/casfs/pkg/cafs/status"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/oneconcern/casfs/pkg/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Reader reads content at any offset.
//
// The layout of the content (single block or manifest) is resolved on first use.
// Parts are opened when a read first touches them, and kept open until Close.
type Reader interface {
	// ReadAt reads up to len(p) bytes at offset off.
	//
	// Reading at or past the end of the content returns 0 and no error.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size of the content
	Size(ctx context.Context) (int64, error)

	// Close releases all opened parts
	Close() error
}

type readerPart struct {
	key  Key
	size int64
	obj  storage.Object
}

type fsReader struct {
	store storage.Store
	key   Key
	l     *zap.Logger

	parts    []*readerPart
	size     int64
	resolved bool
	closed   bool

	metrics.Enable
	m *M
}

func newReader(store storage.Store, key Key, opts ...ReaderOption) *fsReader {
	r := &fsReader{
		store: store,
		key:   key,
		l:     dlogger.MustGetLogger(dlogger.LogLevelInfo),
	}
	for _, apply := range opts {
		apply(r)
	}
	if r.MetricsEnabled() {
		r.m = r.EnsureMetrics("cafs", newM()).(*M)
	}
	return r
}

// resolve finds how the content is stored: a single block, or a manifest of parts
func (r *fsReader) resolve(ctx context.Context) error {
	if r.resolved {
		return nil
	}

	obj, err := r.store.Open(ctx, BlockPath(r.key))
	switch {
	case err == nil:
		r.parts = []*readerPart{{key: r.key, size: obj.Size(), obj: obj}}
		r.size = obj.Size()
		r.resolved = true
		return nil
	case !storage.IsNotExist(err):
		return status.ErrStorage.Wrap(err)
	}

	rdr, err := r.store.Get(ctx, ManifestPath(r.key))
	if err != nil {
		if storage.IsNotExist(err) {
			return status.ErrNotFound.WrapMessage("no block nor manifest for %v", r.key)
		}
		return status.ErrStorage.Wrap(err)
	}
	doc, err := io.ReadAll(rdr)
	_ = rdr.Close()
	if err != nil {
		return status.ErrStorage.Wrap(err)
	}

	manifest, err := DecodeManifest(doc)
	if err != nil {
		return err
	}
	r.parts = make([]*readerPart, 0, len(manifest))
	for _, part := range manifest {
		k, _ := part.Key()
		r.parts = append(r.parts, &readerPart{key: k, size: part.Bytes})
	}
	r.size = manifest.Size()
	r.resolved = true
	r.l.Debug("cafs manifest resolved", zap.Stringer("key", r.key), zap.Int("parts", len(r.parts)), zap.Int64("size", r.size))
	return nil
}

func (r *fsReader) Size(ctx context.Context) (int64, error) {
	if r.closed {
		return 0, status.ErrClosed
	}
	if err := r.resolve(ctx); err != nil {
		return 0, err
	}
	return r.size, nil
}

// locate finds the part covering an offset and the offset within that part
func (r *fsReader) locate(off int64) (int, int64) {
	var start int64
	for i, part := range r.parts {
		if off < start+part.size {
			return i, off - start
		}
		start += part.size
	}
	return len(r.parts), 0
}

func (r *fsReader) open(ctx context.Context, part *readerPart) error {
	if part.obj != nil {
		return nil
	}
	obj, err := r.store.Open(ctx, BlockPath(part.key))
	if err != nil {
		if storage.IsNotExist(err) {
			return status.ErrNotFound.WrapMessage("missing part %v of %v", part.key, r.key)
		}
		return status.ErrStorage.Wrap(err)
	}
	part.obj = obj
	return nil
}

func (r *fsReader) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if r.closed {
		return 0, status.ErrClosed
	}
	if off < 0 {
		return 0, status.ErrInvalidOffset.WrapMessage("%d", off)
	}
	if err := r.resolve(ctx); err != nil {
		return 0, r.fail(err)
	}
	if off >= r.size || len(p) == 0 {
		return 0, nil
	}

	total := 0
	idx, local := r.locate(off)
	for len(p) > 0 && idx < len(r.parts) {
		part := r.parts[idx]
		if local >= part.size {
			idx++
			local = 0
			continue
		}
		if err := r.open(ctx, part); err != nil {
			return total, r.fail(err)
		}

		n := int64(len(p))
		if remaining := part.size - local; n > remaining {
			n = remaining
		}
		got, err := part.obj.ReadAt(p[:n], local)
		total += got
		if int64(got) < n {
			if err == nil || err == io.EOF {
				err = status.ErrShortRead.WrapMessage("part %v: got %d bytes at %d, expected %d", part.key, got, local, n)
			} else {
				err = status.ErrStorage.Wrap(err)
			}
			return total, r.fail(err)
		}

		p = p[n:]
		idx++
		local = 0
	}

	if r.MetricsEnabled() {
		r.m.BytesRead.Add(float64(total))
	}
	return total, nil
}

func (r *fsReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	for _, part := range r.parts {
		if part.obj != nil {
			err = multierr.Append(err, part.obj.Close())
			part.obj = nil
		}
	}
	return err
}

func (r *fsReader) fail(err error) error {
	if r.MetricsEnabled() {
		r.m.Errors.WithLabelValues("read").Inc()
	}
	r.l.Error("cafs read failed", zap.Stringer("key", r.key), zap.Error(err))
	return err
}

// emptyReader serves content of size zero
type emptyReader struct {
	closed bool
}

func (e *emptyReader) ReadAt(_ context.Context, _ []byte, off int64) (int, error) {
	if e.closed {
		return 0, status.ErrClosed
	}
	if off < 0 {
		return 0, status.ErrInvalidOffset.WrapMessage("%d", off)
	}
	return 0, nil
}

func (e *emptyReader) Size(context.Context) (int64, error) {
	return 0, nil
}

func (e *emptyReader) Close() error {
	e.closed = true
	return nil
}

// EmptyReader returns a reader over empty content
func EmptyReader() Reader {
	return &emptyReader{}
}
