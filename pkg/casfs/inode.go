package casfs

import (
	"context"
	"os"
	"time"

	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/inodes"
	"go.uber.org/zap"
)

// Stat resolves the entry at a path
func (c *Core) Stat(ctx context.Context, p string) (entry inodes.Entry, err error) {
	t0 := c.opStart("stat", zap.String("path", p))
	defer func() { c.opEnd(t0, "stat", err, zap.String("path", p)) }()

	entry, err = c.inodes.Resolve(ctx, p)
	return entry, metadataError(err)
}

// List the children of a directory
func (c *Core) List(ctx context.Context, dir string) (entries []inodes.Entry, err error) {
	t0 := c.opStart("list", zap.String("path", dir))
	defer func() { c.opEnd(t0, "list", err, zap.String("path", dir), zap.Int("entries", len(entries))) }()

	entries, err = c.inodes.List(ctx, dir)
	return entries, metadataError(err)
}

// Mkdir creates a directory
func (c *Core) Mkdir(ctx context.Context, p string, mode os.FileMode) (entry inodes.Entry, err error) {
	t0 := c.opStart("mkdir", zap.String("path", p))
	defer func() { c.opEnd(t0, "mkdir", err, zap.String("path", p)) }()

	if c.readOnly {
		return inodes.Entry{}, status.ErrReadOnly.WrapMessage("%s", p)
	}
	entry, err = c.inodes.Mkdir(ctx, p, mode)
	return entry, metadataError(err)
}

// Unlink removes a file. Handles already open on the file remain usable, but
// content written through them is no longer linked to any path on release.
func (c *Core) Unlink(ctx context.Context, p string) (err error) {
	t0 := c.opStart("unlink", zap.String("path", p))
	defer func() { c.opEnd(t0, "unlink", err, zap.String("path", p)) }()

	if err = c.remove(ctx, p, false); err != nil {
		return err
	}
	c.detach(inodes.Clean(p))
	return nil
}

// Rmdir removes an empty directory
func (c *Core) Rmdir(ctx context.Context, p string) (err error) {
	t0 := c.opStart("rmdir", zap.String("path", p))
	defer func() { c.opEnd(t0, "rmdir", err, zap.String("path", p)) }()

	return c.remove(ctx, p, true)
}

func (c *Core) remove(ctx context.Context, p string, dir bool) error {
	if c.readOnly {
		return status.ErrReadOnly.WrapMessage("%s", p)
	}
	entry, err := c.inodes.Resolve(ctx, p)
	if err != nil {
		return metadataError(err)
	}
	switch {
	case dir && !entry.IsDir():
		return status.ErrNotDir.WrapMessage("%s", entry.Path)
	case !dir && entry.IsDir():
		return status.ErrIsDir.WrapMessage("%s", entry.Path)
	}
	return metadataError(c.inodes.Remove(ctx, p))
}

// Rename moves an entry, and all its descendants. Open handles follow the entry.
func (c *Core) Rename(ctx context.Context, from, to string) (err error) {
	t0 := c.opStart("rename", zap.String("from", from), zap.String("to", to))
	defer func() { c.opEnd(t0, "rename", err, zap.String("from", from), zap.String("to", to)) }()

	if c.readOnly {
		return status.ErrReadOnly.WrapMessage("%s", from)
	}
	if err = c.inodes.Rename(ctx, from, to); err != nil {
		return metadataError(err)
	}
	c.relocate(inodes.Clean(from), inodes.Clean(to))
	return nil
}

// Utimens sets the modification time of an entry
func (c *Core) Utimens(ctx context.Context, p string, mtime time.Time) (err error) {
	t0 := c.opStart("utimens", zap.String("path", p), zap.Time("mtime", mtime))
	defer func() { c.opEnd(t0, "utimens", err, zap.String("path", p)) }()

	if c.readOnly {
		return status.ErrReadOnly.WrapMessage("%s", p)
	}
	return metadataError(c.inodes.Update(ctx, p, inodes.Update{Mtime: mtime, Mask: inodes.UpdateMtime}))
}

// Truncate accepts any size change without altering the content.
// Content is only ever replaced as a whole, by writing from offset 0.
func (c *Core) Truncate(ctx context.Context, p string, size int64) (err error) {
	t0 := c.opStart("truncate", zap.String("path", p), zap.Int64("size", size))
	defer func() { c.opEnd(t0, "truncate", err, zap.String("path", p)) }()

	if c.readOnly {
		return status.ErrReadOnly.WrapMessage("%s", p)
	}
	_, err = c.inodes.Resolve(ctx, p)
	return metadataError(err)
}
