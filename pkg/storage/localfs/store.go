// Copyright © 2018 One Concern

// Package localfs binds the storage interface to a local directory tree.
//
// Objects are staged under a temporary directory inside the root, then renamed into place.
// Rename is atomic as long as the staging area and the objects live on the same file system.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	defaultStagingDir = ".tmp"
	dirMode           = 0o755
	fileMode          = 0o644
)

var _ storage.Store = &localFS{}

type localFS struct {
	fs      afero.Fs
	staging string
	l       *zap.Logger
}

// New creates a new local file system backed store.
//
// The staging directory is created if missing, and any file left there by a previous run is removed.
func New(fs afero.Fs, opts ...Option) (storage.Store, error) {
	if fs == nil {
		return nil, status.ErrInvalidResource.WrapMessage("a file system is required")
	}
	l := &localFS{
		fs:      fs,
		staging: defaultStagingDir,
		l:       dlogger.MustGetLogger(dlogger.LogLevelInfo),
	}
	for _, apply := range opts {
		apply(l)
	}

	if err := l.fs.MkdirAll(l.staging, dirMode); err != nil {
		return nil, status.ErrStaging.Wrap(fmt.Errorf("ensuring staging directory %q: %w", l.staging, err))
	}
	removed, err := l.sweep()
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		l.l.Info("removed stale temporary files", zap.String("store", l.String()), zap.Int("count", removed))
	}
	return l, nil
}

// NewOS creates a local store rooted at a directory of the OS file system
func NewOS(root string, opts ...Option) (storage.Store, error) {
	if err := os.MkdirAll(root, dirMode); err != nil {
		return nil, status.ErrInvalidResource.Wrap(err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), opts...)
}

// sweep deletes every leftover file from the staging area
func (l *localFS) sweep() (int, error) {
	entries, err := afero.ReadDir(l.fs, l.staging)
	if err != nil {
		return 0, status.ErrStaging.Wrap(err)
	}
	removed := 0
	for _, entry := range entries {
		p := path.Join(l.staging, entry.Name())
		if err := l.fs.RemoveAll(p); err != nil {
			return removed, status.ErrStaging.Wrap(fmt.Errorf("removing stale %q: %w", p, err))
		}
		removed++
	}
	return removed, nil
}

func (l *localFS) checkKey(key string) error {
	if key == "" {
		return status.ErrInvalidResource.WrapMessage("empty key")
	}
	first := strings.SplitN(strings.TrimLeft(filepath.ToSlash(key), "/"), "/", 2)[0]
	if first == l.staging {
		return status.ErrInvalidResource.WrapMessage("key %q conflicts with staging area %q", key, l.staging)
	}
	return nil
}

func (l *localFS) Has(_ context.Context, key string) (bool, error) {
	if err := l.checkKey(key); err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(key)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

func (l *localFS) Get(_ context.Context, key string) (io.ReadCloser, error) {
	obj, err := l.open(key)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader) error {
	return storage.StageAndCommit(ctx, l, key, source)
}

func (l *localFS) Open(_ context.Context, key string) (storage.Object, error) {
	obj, err := l.open(key)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (l *localFS) open(key string) (*object, error) {
	if err := l.checkKey(key); err != nil {
		return nil, err
	}
	f, err := l.fs.Open(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotExists.Wrap(err)
		}
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, status.ErrNotExists.WrapMessage("%q is a directory", key)
	}
	return &object{File: f, size: fi.Size()}, nil
}

func (l *localFS) Stage(_ context.Context) (storage.Staged, error) {
	name := path.Join(l.staging, uuid.New().String())
	f, err := l.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, status.ErrStaging.Wrap(err)
	}
	return &staged{store: l, file: f, name: name}, nil
}

func (l *localFS) Delete(_ context.Context, key string) error {
	if err := l.checkKey(key); err != nil {
		return err
	}
	if err := l.fs.Remove(key); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %w", key, err)
	}
	return nil
}

func (l *localFS) Keys(_ context.Context) ([]string, error) {
	const root = "."
	var res []string
	err := afero.Walk(l.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if info.IsDir() {
			if filepath.ToSlash(p) == l.staging {
				return filepath.SkipDir
			}
			return nil
		}
		res = append(res, filepath.ToSlash(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}

type object struct {
	afero.File
	size int64
}

func (o *object) Size() int64 {
	return o.size
}

// staged is a temporary file with a unique name in the staging area
type staged struct {
	store *localFS
	file  afero.File
	name  string
	done  bool
	mx    sync.Mutex
}

func (s *staged) Name() string {
	return s.name
}

func (s *staged) Write(p []byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.done {
		return 0, status.ErrStaged
	}
	return s.file.Write(p)
}

// Commit closes the temporary file and renames it under key, creating directories as needed
func (s *staged) Commit(_ context.Context, key string) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.done {
		return status.ErrStaged
	}
	s.done = true

	if err := s.store.checkKey(key); err != nil {
		_ = s.discard()
		return err
	}
	if err := s.file.Close(); err != nil {
		_ = s.store.fs.Remove(s.name)
		return status.ErrStaging.Wrap(err)
	}
	if dir := path.Dir(key); dir != "." {
		if err := s.store.fs.MkdirAll(dir, dirMode); err != nil {
			_ = s.store.fs.Remove(s.name)
			return status.ErrStaging.Wrap(fmt.Errorf("ensuring directories for %q: %w", key, err))
		}
	}
	if err := s.store.fs.Rename(s.name, key); err != nil {
		_ = s.store.fs.Remove(s.name)
		return status.ErrStaging.Wrap(fmt.Errorf("committing %q: %w", key, err))
	}
	return nil
}

func (s *staged) Abort() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.done {
		return nil
	}
	s.done = true
	return s.discard()
}

func (s *staged) discard() error {
	_ = s.file.Close()
	if err := s.store.fs.Remove(s.name); err != nil && !os.IsNotExist(err) {
		return status.ErrStaging.Wrap(err)
	}
	return nil
}
