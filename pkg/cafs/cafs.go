package cafs

import (
	"context"
	"io"

	"github.com/docker/go-units"
	"github.com/oneconcern/casfs/pkg/cafs/status"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/oneconcern/casfs/pkg/storage"
	"go.uber.org/zap"
)

const (
	// DefaultLeafSize is the default size limit of a single block (5 GiB)
	DefaultLeafSize int64 = 5 * units.GiB

	// putBufferSize is the size of the chunks copied by Put
	putBufferSize = units.MiB
)

// Fs implementations provide content-addressable filesystem operations
type Fs interface {
	String() string

	// NewReader builds a reader for the content stored under some key.
	// Nothing is fetched until the first read.
	NewReader(context.Context, Key) (Reader, error)

	// NewWriter builds a writer for new content
	NewWriter(context.Context) (Writer, error)

	Put(context.Context, io.Reader) (*PutRes, error)
	Get(context.Context, Key) (io.ReadCloser, error)
	Has(context.Context, Key) (bool, error)
}

var _ Fs = &defaultFs{}

type defaultFs struct {
	store    storage.Store
	leafSize int64
	l        *zap.Logger

	metrics.Enable
	m *M
}

func defaultsForFs() *defaultFs {
	return &defaultFs{
		leafSize: DefaultLeafSize,
		l:        dlogger.MustGetLogger(dlogger.LogLevelInfo),
	}
}

// New creates a new instance of a content-addressable file system
func New(opts ...Option) (Fs, error) {
	f := defaultsForFs()
	for _, apply := range opts {
		apply(f)
	}

	if f.store == nil {
		return nil, status.ErrNoBackend
	}
	if f.leafSize <= 0 {
		return nil, status.ErrLeafSize.WrapMessage("%d", f.leafSize)
	}
	if f.MetricsEnabled() {
		f.m = f.EnsureMetrics("cafs", newM()).(*M)
	}
	f.l.Debug("cafs ready", zap.Stringer("backend", f), zap.String("leaf_size", units.BytesSize(float64(f.leafSize))))
	return f, nil
}

func (d *defaultFs) String() string {
	return "cafs@" + d.store.String()
}

func (d *defaultFs) NewReader(_ context.Context, key Key) (Reader, error) {
	if key == EmptyKey {
		return EmptyReader(), nil
	}
	return newReader(d.store, key,
		ReaderLogger(d.l),
		ReaderWithMetrics(d.MetricsEnabled()),
	), nil
}

func (d *defaultFs) NewWriter(_ context.Context) (Writer, error) {
	return newWriter(d.store,
		WriterLeafSize(d.leafSize),
		WriterLogger(d.l),
		WriterWithMetrics(d.MetricsEnabled()),
	), nil
}

// Put writes all the content from a reader
func (d *defaultFs) Put(ctx context.Context, src io.Reader) (*PutRes, error) {
	w, err := d.NewWriter(ctx)
	if err != nil {
		return nil, err
	}

	d.l.Debug("Start cafs Put")
	buf := make([]byte, putBufferSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err = w.WriteAt(ctx, buf[:n], w.Written()); err != nil {
				_ = w.Abort()
				return nil, err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = w.Abort()
			return nil, rerr
		}
	}

	res, err := w.Close(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &PutRes{Key: EmptyKey}
	}
	d.l.Debug("End cafs Put", zap.Stringer("key", res.Key), zap.Int64("size", res.Written))
	return res, nil
}

// Get returns a sequential reader on some content
func (d *defaultFs) Get(ctx context.Context, key Key) (io.ReadCloser, error) {
	r, err := d.NewReader(ctx, key)
	if err != nil {
		return nil, err
	}
	size, err := r.Size(ctx)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return &sequentialReader{ctx: ctx, r: r, size: size}, nil
}

// Has tells if content exists, either as a single block or as a manifest
func (d *defaultFs) Has(ctx context.Context, key Key) (bool, error) {
	if key == EmptyKey {
		return true, nil
	}
	found, err := d.store.Has(ctx, BlockPath(key))
	if err != nil || found {
		return found, err
	}
	return d.store.Has(ctx, ManifestPath(key))
}

type sequentialReader struct {
	ctx    context.Context
	r      Reader
	offset int64
	size   int64
}

func (s *sequentialReader) Read(p []byte) (int, error) {
	if s.offset >= s.size {
		return 0, io.EOF
	}
	n, err := s.r.ReadAt(s.ctx, p, s.offset)
	s.offset += int64(n)
	return n, err
}

func (s *sequentialReader) Close() error {
	return s.r.Close()
}
