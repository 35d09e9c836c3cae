// Copyright © 2018 One Concern

// Package gcs binds the storage interface to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ storage.Store = &gcs{}

type gcs struct {
	client     *gcsStorage.Client
	bucket     string
	clientOpts []option.ClientOption
	spool      *storage.Spool
	stagingFs  afero.Fs
	stagingDir string
	l          *zap.Logger
}

// New builds a store on a GCS bucket
func New(ctx context.Context, bucket string, opts ...Option) (storage.Store, error) {
	if bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("a bucket name is required")
	}
	googleStore := &gcs{
		bucket:     bucket,
		clientOpts: []option.ClientOption{option.WithScopes(gcsStorage.ScopeReadWrite)},
		l:          dlogger.MustGetLogger(dlogger.LogLevelInfo),
	}
	for _, apply := range opts {
		apply(googleStore)
	}

	var err error
	googleStore.client, err = gcsStorage.NewClient(ctx, googleStore.clientOpts...)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	googleStore.spool, err = storage.NewSpool(googleStore.stagingFs, googleStore.stagingDir)
	if err != nil {
		return nil, err
	}
	return googleStore, nil
}

func (g *gcs) String() string {
	return "gcs://" + g.bucket
}

func (g *gcs) object(key string) *gcsStorage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(key)
}

func (g *gcs) Has(ctx context.Context, key string) (bool, error) {
	_, err := g.object(key).Attrs(ctx)
	if err != nil {
		err = toSentinelErrors(err)
		if storage.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *gcs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectReader, err := g.object(key).NewReader(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return objectReader, nil
}

func (g *gcs) Put(ctx context.Context, key string, reader io.Reader) error {
	writer := g.object(key).NewWriter(ctx)
	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		return toSentinelErrors(err)
	}
	return toSentinelErrors(writer.Close())
}

func (g *gcs) Open(ctx context.Context, key string) (storage.Object, error) {
	attrs, err := g.object(key).Attrs(ctx)
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return &object{
		ctx:    context.WithoutCancel(ctx),
		handle: g.object(key),
		size:   attrs.Size,
	}, nil
}

func (g *gcs) Stage(_ context.Context) (storage.Staged, error) {
	return g.spool.Stage(func(ctx context.Context, key string, content io.ReadSeeker, size int64) error {
		g.l.Debug("uploading staged object", zap.String("bucket", g.bucket), zap.String("key", key), zap.Int64("size", size))
		return g.Put(ctx, key, content)
	})
}

func (g *gcs) Delete(ctx context.Context, key string) error {
	err := toSentinelErrors(g.object(key).Delete(ctx))
	if storage.IsNotExist(err) {
		return nil
	}
	return err
}

func (g *gcs) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	objectsIterator := g.client.Bucket(g.bucket).Objects(ctx, nil)
	for {
		attrs, err := objectsIterator.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, toSentinelErrors(err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

// object reads byte ranges of a GCS object
type object struct {
	ctx    context.Context
	handle *gcsStorage.ObjectHandle
	size   int64
}

func (o *object) Size() int64 {
	return o.size
}

func (o *object) Close() error {
	return nil
}

func (o *object) ReadAt(p []byte, off int64) (int, error) {
	if off >= o.size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	length := int64(len(p))
	if off+length > o.size {
		length = o.size - off
	}
	rdr, err := o.handle.NewRangeReader(o.ctx, off, length)
	if err != nil {
		return 0, toSentinelErrors(err)
	}
	defer rdr.Close()

	n, err := io.ReadFull(rdr, p[:length])
	if err != nil {
		return n, err
	}
	if length < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
