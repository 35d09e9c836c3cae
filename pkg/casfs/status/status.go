// Package status exports errors produced by the casfs core.
package status

import (
	"github.com/oneconcern/casfs/pkg/errors"
)

var (
	// ErrNotFound indicates that no entry exists at the requested path, or that its content is missing
	ErrNotFound = errors.New("no such file or directory")

	// ErrReadOnly indicates a mutation attempted on a read-only file system
	ErrReadOnly = errors.New("read-only file system")

	// ErrUnsupportedMode indicates an open for reading and writing at the same time
	ErrUnsupportedMode = errors.New("read-write access is not implemented")

	// ErrInvalidHandle indicates an unknown or already released handle
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrWrongMode indicates a read on a write-only handle, or a write on a read-only handle
	ErrWrongMode = errors.New("operation not permitted by the handle access mode")

	// ErrInvalidSeek indicates a non-sequential write
	ErrInvalidSeek = errors.New("illegal seek")

	// ErrStorage indicates a failure of the content storage backend
	ErrStorage = errors.New("storage I/O error")

	// ErrExists indicates that an entry already exists at the requested path
	ErrExists = errors.New("file exists")

	// ErrNotDir indicates that a path component is not a directory
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir indicates a file operation on a directory
	ErrIsDir = errors.New("is a directory")

	// ErrNotEmpty indicates an attempt to remove or replace a non-empty directory
	ErrNotEmpty = errors.New("directory not empty")

	// ErrInvalidPath indicates an operation not permitted on this path
	ErrInvalidPath = errors.New("invalid path")

	// ErrMetadata indicates a failure of the inode store
	ErrMetadata = errors.New("inode store error")

	// ErrBadEntry indicates an entry holding an invalid content key
	ErrBadEntry = errors.New("invalid block hash in entry")

	// ErrConfig indicates that the core is missing a collaborator
	ErrConfig = errors.New("invalid configuration")
)
