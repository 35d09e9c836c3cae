package storage

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/oneconcern/casfs/pkg/storage/status"
	"github.com/spf13/afero"
)

// UploadFunc publishes the content of a staged object under a key
type UploadFunc func(ctx context.Context, key string, content io.ReadSeeker, size int64) error

// Spool stages objects in temporary files on a local file system.
//
// Remote stores use a spool to implement Stage: the content is uploaded on Commit.
type Spool struct {
	fs  afero.Fs
	dir string
}

// NewSpool builds a spool writing temporary files in dir, on fs.
// When fs is nil, the OS file system is used.
func NewSpool(fs afero.Fs, dir string) (*Spool, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return nil, status.ErrStaging.Wrap(err)
	}
	return &Spool{fs: fs, dir: dir}, nil
}

// Stage creates a new temporary file, committed with upload
func (s *Spool) Stage(upload UploadFunc) (Staged, error) {
	f, err := afero.TempFile(s.fs, s.dir, "casfs-part-")
	if err != nil {
		return nil, status.ErrStaging.Wrap(err)
	}
	return &spooled{fs: s.fs, file: f, upload: upload}, nil
}

type spooled struct {
	fs     afero.Fs
	file   afero.File
	upload UploadFunc
	size   int64
	done   bool
	mx     sync.Mutex
}

func (s *spooled) Name() string {
	return s.file.Name()
}

func (s *spooled) Write(p []byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.done {
		return 0, status.ErrStaged
	}
	n, err := s.file.Write(p)
	s.size += int64(n)
	return n, err
}

func (s *spooled) Commit(ctx context.Context, key string) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.done {
		return status.ErrStaged
	}
	s.done = true
	defer s.discard()

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return status.ErrStaging.Wrap(err)
	}
	return s.upload(ctx, key, s.file, s.size)
}

func (s *spooled) Abort() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	s.discard()
	return nil
}

func (s *spooled) discard() {
	_ = s.file.Close()
	_ = s.fs.Remove(s.file.Name())
}
