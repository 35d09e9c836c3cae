// Package status declares error constants returned by the content-addressable file system.
package status

import "github.com/oneconcern/casfs/pkg/errors"

var (
	// ErrInvalidSeek is returned when a write does not start at the current end of the content
	ErrInvalidSeek = errors.New("illegal seek: writes must be sequential")

	// ErrInvalidOffset is returned when reading at a negative offset
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrNotFound is returned when neither a block nor a manifest exists for a key
	ErrNotFound = errors.New("content not found")

	// ErrStorage wraps any error returned by the storage backend
	ErrStorage = errors.New("storage I/O error")

	// ErrShortRead is returned when a stored part is shorter than declared by its manifest
	ErrShortRead = errors.New("short read from stored part")

	// ErrClosed is returned when using a reader or writer after it has been closed
	ErrClosed = errors.New("reader or writer already closed")

	// ErrBadKey is returned when a string does not represent a valid content key
	ErrBadKey = errors.New("invalid content key")

	// ErrBadManifest is returned when a manifest cannot be decoded
	ErrBadManifest = errors.New("invalid manifest")

	// ErrNoBackend is returned when building a file system without a storage backend
	ErrNoBackend = errors.New("a storage backend is required")

	// ErrLeafSize is returned when configuring a non-positive block size limit
	ErrLeafSize = errors.New("block size limit must be positive")
)
