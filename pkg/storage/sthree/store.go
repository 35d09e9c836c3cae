// Package sthree binds the storage interface to an AWS S3 bucket.
package sthree

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// PageSize is the number of keys fetched per listing request
const PageSize = 1000

var _ storage.Store = &s3FS{}

// Option is a functor to pass optional parameters to the S3 store
type Option func(*s3FS)

// AWSConfig overrides the default AWS configuration (region, endpoint, credentials)
func AWSConfig(cfg *aws.Config) Option {
	return func(fs *s3FS) {
		fs.awsConfig = cfg
	}
}

// Logger specifies a logger for this store
func Logger(logger *zap.Logger) Option {
	return func(fs *s3FS) {
		if logger != nil {
			fs.l = logger
		}
	}
}

// StagingFs specifies where parts are spooled before upload
func StagingFs(fs afero.Fs, dir string) Option {
	return func(s *s3FS) {
		s.stagingFs = fs
		s.stagingDir = dir
	}
}

// New builds a store on an S3 bucket
func New(bucket string, opts ...Option) (storage.Store, error) {
	if bucket == "" {
		return nil, status.ErrInvalidResource.WrapMessage("a bucket name is required")
	}
	fs := &s3FS{
		bucket:    bucket,
		awsConfig: aws.NewConfig(),
		l:         dlogger.MustGetLogger(dlogger.LogLevelInfo),
	}
	for _, apply := range opts {
		apply(fs)
	}

	sess, err := session.NewSession(fs.awsConfig)
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	fs.s3 = s3.New(sess)
	fs.uploader = s3manager.NewUploaderWithClient(fs.s3)

	fs.spool, err = storage.NewSpool(fs.stagingFs, fs.stagingDir)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

type s3FS struct {
	bucket     string
	awsConfig  *aws.Config
	s3         *s3.S3
	uploader   *s3manager.Uploader
	spool      *storage.Spool
	stagingFs  afero.Fs
	stagingDir string
	l          *zap.Logger
}

func (s *s3FS) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	out, err := s.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return out, toSentinelErrors(err)
}

func (s *s3FS) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.head(ctx, key)
	if err != nil {
		if storage.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *s3FS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, toSentinelErrors(err)
	}
	return obj.Body, nil
}

func (s *s3FS) Put(ctx context.Context, key string, rdr io.Reader) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   rdr,
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Open(ctx context.Context, key string) (storage.Object, error) {
	out, err := s.head(ctx, key)
	if err != nil {
		return nil, err
	}
	return &object{
		ctx:  context.WithoutCancel(ctx),
		fs:   s,
		key:  key,
		size: aws.Int64Value(out.ContentLength),
	}, nil
}

func (s *s3FS) Stage(_ context.Context) (storage.Staged, error) {
	return s.spool.Stage(func(ctx context.Context, key string, content io.ReadSeeker, size int64) error {
		s.l.Debug("uploading staged object", zap.String("bucket", s.bucket), zap.String("key", key), zap.Int64("size", size))
		return s.Put(ctx, key, content)
	})
}

func (s *s3FS) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return toSentinelErrors(err)
}

func (s *s3FS) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	eachPage := func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key != "" {
				keys = append(keys, key)
			}
		}
		return true
	}
	params := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int64(PageSize),
	}

	if err := s.s3.ListObjectsV2PagesWithContext(ctx, params, eachPage); err != nil {
		return nil, toSentinelErrors(err)
	}
	return keys, nil
}

func (s *s3FS) String() string {
	return "s3@" + s.bucket
}

// object reads byte ranges of an S3 object
type object struct {
	ctx  context.Context
	fs   *s3FS
	key  string
	size int64
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
	end := off + int64(len(p))
	if end > o.size {
		end = o.size
	}
	out, err := o.fs.s3.GetObjectWithContext(o.ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.fs.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end-1)),
	})
	if err != nil {
		return 0, toSentinelErrors(err)
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, p[:end-off])
	if err != nil {
		return n, err
	}
	if end-off < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}
