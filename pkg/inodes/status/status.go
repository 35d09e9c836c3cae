// Package status declares error constants returned by inode stores.
package status

import "github.com/oneconcern/casfs/pkg/errors"

var (
	// ErrNotFound is returned when no entry exists at a path
	ErrNotFound = errors.New("no such file or directory")

	// ErrExists is returned when creating an entry at a path already in use
	ErrExists = errors.New("file exists")

	// ErrNotDir is returned when a path component is not a directory
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir is returned when a file operation targets a directory
	ErrIsDir = errors.New("is a directory")

	// ErrNotEmpty is returned when removing a directory which has children
	ErrNotEmpty = errors.New("directory not empty")

	// ErrInvalidPath is returned for operations on the root, or when moving a directory below itself
	ErrInvalidPath = errors.New("invalid path")

	// ErrIndex is returned when a seed index cannot be decoded
	ErrIndex = errors.New("invalid index")

	// ErrStore wraps errors from the underlying database
	ErrStore = errors.New("inode store error")
)
