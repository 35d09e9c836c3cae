package cafs

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec
	"hash"

	"github.com/oneconcern/casfs/pkg/cafs/status"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/oneconcern/casfs/pkg/storage"
	"go.uber.org/zap"
)

// Writer stores content written sequentially, in a single pass.
//
// The key of the content is only known after Close.
type Writer interface {
	// WriteAt appends p to the content. off must be the number of bytes written so far.
	WriteAt(ctx context.Context, p []byte, off int64) (int, error)

	// Written returns the number of bytes accepted so far
	Written() int64

	// Close commits the last part and, for content split in several parts, the manifest.
	//
	// When nothing was ever written, Close returns a nil result and stores nothing.
	Close(ctx context.Context) (*PutRes, error)

	// Abort discards the part being staged
	Abort() error
}

// PutRes holds the result of writing some content
type PutRes struct {
	Key     Key      // the key of the whole content
	Written int64    // bytes written
	Parts   Manifest // the parts of the content, in order
}

type stagedPart struct {
	staged  storage.Staged
	hash    hash.Hash
	written int64
}

type fsWriter struct {
	store    storage.Store
	leafSize int64
	l        *zap.Logger

	hash    hash.Hash
	parts   Manifest
	current *stagedPart
	offset  int64
	err     error
	closed  bool

	metrics.Enable
	m *M
}

func newWriter(store storage.Store, opts ...WriterOption) *fsWriter {
	w := &fsWriter{
		store:    store,
		leafSize: DefaultLeafSize,
		l:        dlogger.MustGetLogger(dlogger.LogLevelInfo),
		hash:     md5.New(), // #nosec
	}
	for _, apply := range opts {
		apply(w)
	}
	if w.MetricsEnabled() {
		w.m = w.EnsureMetrics("cafs", newM()).(*M)
	}
	return w
}

func (w *fsWriter) Written() int64 {
	return w.offset
}

func (w *fsWriter) WriteAt(ctx context.Context, p []byte, off int64) (int, error) {
	if w.closed {
		return 0, status.ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	if off != w.offset {
		return 0, status.ErrInvalidSeek.WrapMessage("write at offset %d, expected %d", off, w.offset)
	}

	written := 0
	for len(p) > 0 {
		// a full part is committed only when more bytes arrive
		if w.current != nil && w.current.written == w.leafSize {
			if err := w.commitPart(ctx); err != nil {
				return written, w.fail(err)
			}
		}
		if w.current == nil {
			if err := w.stagePart(ctx); err != nil {
				return written, w.fail(err)
			}
		}

		n := int64(len(p))
		if room := w.leafSize - w.current.written; n > room {
			n = room
		}
		chunk := p[:n]
		if _, err := w.current.staged.Write(chunk); err != nil {
			return written, w.fail(status.ErrStorage.Wrap(err))
		}
		_, _ = w.hash.Write(chunk)
		_, _ = w.current.hash.Write(chunk)
		w.current.written += n
		w.offset += n
		written += int(n)
		p = p[n:]
	}

	if w.MetricsEnabled() {
		w.m.BytesWritten.Add(float64(written))
	}
	return written, nil
}

func (w *fsWriter) Close(ctx context.Context) (*PutRes, error) {
	if w.closed {
		return nil, status.ErrClosed
	}
	w.closed = true

	if w.err != nil {
		_ = w.abortPart()
		return nil, w.err
	}
	if w.current == nil {
		return nil, nil
	}
	if err := w.commitPart(ctx); err != nil {
		return nil, w.fail(err)
	}

	var key Key
	copy(key[:], w.hash.Sum(nil))
	lg := w.l.With(zap.Stringer("key", key), zap.Int64("size", w.offset), zap.Int("parts", len(w.parts)))

	if len(w.parts) > 1 {
		doc, err := w.parts.Encode()
		if err != nil {
			return nil, w.fail(status.ErrBadManifest.Wrap(err))
		}
		if err = storage.StageAndCommit(ctx, w.store, ManifestPath(key), bytes.NewReader(doc)); err != nil {
			return nil, w.fail(status.ErrStorage.Wrap(err))
		}
		if w.MetricsEnabled() {
			w.m.Manifests.Inc()
		}
		lg.Debug("cafs manifest committed")
	} else {
		lg.Debug("cafs block committed")
	}

	return &PutRes{
		Key:     key,
		Written: w.offset,
		Parts:   w.parts,
	}, nil
}

func (w *fsWriter) Abort() error {
	w.closed = true
	return w.abortPart()
}

func (w *fsWriter) stagePart(ctx context.Context) error {
	staged, err := w.store.Stage(ctx)
	if err != nil {
		return status.ErrStorage.Wrap(err)
	}
	w.current = &stagedPart{
		staged: staged,
		hash:   md5.New(), // #nosec
	}
	w.l.Debug("cafs part staged", zap.String("staging", staged.Name()), zap.Int("part", len(w.parts)))
	return nil
}

// commitPart publishes the current part under its own key
func (w *fsWriter) commitPart(ctx context.Context) error {
	part := w.current
	w.current = nil

	var key Key
	copy(key[:], part.hash.Sum(nil))
	if err := part.staged.Commit(ctx, BlockPath(key)); err != nil {
		return status.ErrStorage.Wrap(err)
	}
	w.parts = append(w.parts, Part{Hash: key.String(), Bytes: part.written})

	if w.MetricsEnabled() {
		w.m.Parts.Inc()
	}
	w.l.Debug("cafs part committed", zap.Stringer("part", key), zap.Int64("size", part.written))
	return nil
}

func (w *fsWriter) abortPart() error {
	if w.current == nil {
		return nil
	}
	part := w.current
	w.current = nil
	return part.staged.Abort()
}

// fail makes an error sticky: the writer is unusable afterwards
func (w *fsWriter) fail(err error) error {
	w.err = err
	if w.MetricsEnabled() {
		w.m.Errors.WithLabelValues("write").Inc()
	}
	w.l.Error("cafs write failed", zap.Error(err), zap.Int64("offset", w.offset))
	return err
}
