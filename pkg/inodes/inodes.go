package inodes

import (
	"context"
	"os"
	"path"
	"strings"
	"time"
)

// Root is the path of the root directory. It always exists.
const Root = "/"

// Entry describes a path known to an inode store
type Entry struct {
	Path      string      `json:"file_path"`
	BlockHash string      `json:"block_hash,omitempty"`
	Size      int64       `json:"file_size"`
	Mtime     int64       `json:"file_mtime"`
	Mode      os.FileMode `json:"mode"`
}

// IsDir tells if the entry is a directory
func (e Entry) IsDir() bool {
	return e.Mode.IsDir()
}

// Name is the last element of the path
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// ModTime returns the modification time
func (e Entry) ModTime() time.Time {
	return time.Unix(e.Mtime, 0)
}

// UpdateMask selects the fields applied by Update
type UpdateMask uint8

const (
	// UpdateContent sets the block hash and file size
	UpdateContent UpdateMask = 1 << iota

	// UpdateMtime sets the modification time
	UpdateMtime
)

// Update carries new values for an entry
type Update struct {
	BlockHash string
	Size      int64
	Mtime     time.Time
	Mask      UpdateMask
}

// Apply the update to an entry
func (u Update) Apply(e *Entry) {
	if u.Mask&UpdateContent != 0 {
		e.BlockHash = u.BlockHash
		e.Size = u.Size
	}
	if u.Mask&UpdateMtime != 0 {
		e.Mtime = u.Mtime.Unix()
	}
}

// Store is the inode store.
//
// Implementations are safe for concurrent use. Each call is atomic.
// Paths are cleaned with Clean before use.
type Store interface {
	// Resolve the entry at a path
	Resolve(ctx context.Context, p string) (Entry, error)

	// Create an empty file. The parent must be an existing directory.
	Create(ctx context.Context, p string, mode os.FileMode) (Entry, error)

	// Mkdir creates a directory. The parent must be an existing directory.
	Mkdir(ctx context.Context, p string, mode os.FileMode) (Entry, error)

	// Update fields of an existing entry
	Update(ctx context.Context, p string, u Update) error

	// List the direct children of a directory, ordered by path
	List(ctx context.Context, dir string) ([]Entry, error)

	// Remove a file, or an empty directory
	Remove(ctx context.Context, p string) error

	// Rename an entry, with all its descendants. An existing file at the destination is replaced.
	Rename(ctx context.Context, from, to string) error

	Close() error
}

// Clean normalizes a path: rooted, without trailing slash
func Clean(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// Parent of a cleaned path
func Parent(p string) string {
	return path.Dir(p)
}

// IsBelow tells if p is a strict descendant of dir
func IsBelow(p, dir string) bool {
	if dir == Root {
		return p != Root
	}
	return strings.HasPrefix(p, dir+"/")
}

// RootEntry describes the root directory
func RootEntry(now time.Time) Entry {
	return Entry{
		Path:  Root,
		Mode:  os.ModeDir | 0o755,
		Mtime: now.Unix(),
	}
}
