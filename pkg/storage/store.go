// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"

	"github.com/oneconcern/casfs/pkg/errors"
	"github.com/oneconcern/casfs/pkg/storage/status"
)

// Store implementations know how to stage, commit and read back objects addressed by key.
//
// Typically this is something file system-like. Examples are S3, GCS, local FS.
//
// Keys are slash-separated relative paths. Writes are never done in place:
// content is first staged, then committed under its key in one step.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader) error
	Open(context.Context, string) (Object, error)
	Stage(context.Context) (Staged, error)
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
}

// Object is a committed object opened for random access
type Object interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// Staged is an object being written to a temporary location.
//
// Exactly one of Commit or Abort is expected to be called. Commit publishes the content under
// a key, Abort discards it.
type Staged interface {
	io.Writer
	Name() string
	Commit(context.Context, string) error
	Abort() error
}

// IsNotExist tells if an error reports a missing object
func IsNotExist(err error) bool {
	return errors.Is(err, status.ErrNotExists) || errors.Is(err, status.ErrNotFound)
}

// StageAndCommit stages the content of a reader then commits it under a key
func StageAndCommit(ctx context.Context, s Store, key string, source io.Reader) error {
	staged, err := s.Stage(ctx)
	if err != nil {
		return err
	}
	if _, err = io.Copy(staged, source); err != nil {
		_ = staged.Abort()
		return err
	}
	return staged.Commit(ctx, key)
}
