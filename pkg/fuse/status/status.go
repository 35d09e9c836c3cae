// Package status exports errors produced by the fuse package.
package status

import (
	"github.com/oneconcern/casfs/pkg/errors"
)

var (
	// ErrNoCore indicates a file system built without a casfs core
	ErrNoCore = errors.New("a casfs core is required to serve a file system")

	// ErrMountpoint indicates that the mount point could not be prepared
	ErrMountpoint = errors.New("invalid mount point")

	// ErrMount is an error returned by the fuse server when mounting
	ErrMount = errors.New("failed to mount file system")
)
