package fuse

import (
	"context"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/oneconcern/casfs/pkg/inodes"
	"go.uber.org/zap"
)

// node is a file or a directory. Its path is found from its position in the inode tree.
type node struct {
	fs.Inode
	fsys *FS
}

var (
	_ fs.InodeEmbedder = (*node)(nil)
	_ fs.NodeLookuper  = (*node)(nil)
	_ fs.NodeGetattrer = (*node)(nil)
	_ fs.NodeSetattrer = (*node)(nil)
	_ fs.NodeReaddirer = (*node)(nil)
	_ fs.NodeOpener    = (*node)(nil)
	_ fs.NodeCreater   = (*node)(nil)
	_ fs.NodeMkdirer   = (*node)(nil)
	_ fs.NodeRmdirer   = (*node)(nil)
	_ fs.NodeUnlinker  = (*node)(nil)
	_ fs.NodeRenamer   = (*node)(nil)
	_ fs.NodeStatfser  = (*node)(nil)
)

func (n *node) path() string {
	return inodes.Clean(n.Path(nil))
}

func (n *node) child(name string) string {
	return path.Join(n.path(), name)
}

func (n *node) newChild(ctx context.Context, entry inodes.Entry) *fs.Inode {
	mode := uint32(syscall.S_IFREG)
	if entry.IsDir() {
		mode = syscall.S_IFDIR
	}
	return n.NewInode(ctx, &node{fsys: n.fsys}, fs.StableAttr{Mode: mode})
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.child(name)
	t0 := n.fsys.opStart("lookup", p)

	entry, err := n.fsys.core.Stat(ctx, p)
	errno := n.fsys.opEnd(t0, "lookup", p, err)
	if errno != 0 {
		return nil, errno
	}
	n.fsys.fillAttr(entry, &out.Attr)
	return n.newChild(ctx, entry), 0
}

func (n *node) Getattr(ctx context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	p := n.path()
	t0 := n.fsys.opStart("getattr", p)

	entry, err := n.fsys.core.Stat(ctx, p)
	if errno := n.fsys.opEnd(t0, "getattr", p, err); errno != 0 {
		return errno
	}
	n.fsys.fillAttr(entry, &out.Attr)
	return 0
}

// Setattr applies modification times. Size changes are accepted and ignored, as is any
// change of ownership or permissions.
func (n *node) Setattr(ctx context.Context, _ fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	p := n.path()
	t0 := n.fsys.opStart("setattr", p)

	var err error
	if mtime, ok := in.GetMTime(); ok {
		err = n.fsys.core.Utimens(ctx, p, mtime)
	}
	if size, ok := in.GetSize(); ok && err == nil {
		err = n.fsys.core.Truncate(ctx, p, int64(size))
	}
	var entry inodes.Entry
	if err == nil {
		entry, err = n.fsys.core.Stat(ctx, p)
	}
	if errno := n.fsys.opEnd(t0, "setattr", p, err); errno != 0 {
		return errno
	}
	n.fsys.fillAttr(entry, &out.Attr)
	return 0
}

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	p := n.path()
	t0 := n.fsys.opStart("readdir", p)

	entries, err := n.fsys.core.List(ctx, p)
	if errno := n.fsys.opEnd(t0, "readdir", p, err); errno != 0 {
		return nil, errno
	}
	return fs.NewListDirStream(dirEntries(entries)), 0
}

func dirEntries(entries []inodes.Entry) []fuse.DirEntry {
	list := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := uint32(syscall.S_IFREG)
		if e.IsDir() {
			mode = syscall.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Name: e.Name(), Mode: mode})
	}
	return list
}

func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	p := n.path()
	t0 := n.fsys.opStart("open", p)

	id, err := n.fsys.core.Open(ctx, p, int(flags&syscall.O_ACCMODE))
	if errno := n.fsys.opEnd(t0, "open", p, err); errno != 0 {
		return nil, 0, errno
	}
	return n.fsys.newHandle(p, id), fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Create(ctx context.Context, name string, _ uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	p := n.child(name)
	t0 := n.fsys.opStart("create", p)

	id, err := n.fsys.core.Create(ctx, p, inodes.FromUnixMode(mode|syscall.S_IFREG))
	var entry inodes.Entry
	if err == nil {
		entry, err = n.fsys.core.Stat(ctx, p)
	}
	if errno := n.fsys.opEnd(t0, "create", p, err); errno != 0 {
		if id != 0 {
			_ = n.fsys.core.Release(ctx, id)
		}
		return nil, nil, 0, errno
	}
	n.fsys.fillAttr(entry, &out.Attr)
	return n.newChild(ctx, entry), n.fsys.newHandle(p, id), fuse.FOPEN_DIRECT_IO, 0
}

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := n.child(name)
	t0 := n.fsys.opStart("mkdir", p)

	entry, err := n.fsys.core.Mkdir(ctx, p, os.FileMode(mode).Perm())
	if errno := n.fsys.opEnd(t0, "mkdir", p, err); errno != 0 {
		return nil, errno
	}
	n.fsys.fillAttr(entry, &out.Attr)
	return n.newChild(ctx, entry), 0
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	p := n.child(name)
	t0 := n.fsys.opStart("rmdir", p)
	return n.fsys.opEnd(t0, "rmdir", p, n.fsys.core.Rmdir(ctx, p))
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	p := n.child(name)
	t0 := n.fsys.opStart("unlink", p)
	return n.fsys.opEnd(t0, "unlink", p, n.fsys.core.Unlink(ctx, p))
}

func (n *node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	from := n.child(name)
	to := path.Join(inodes.Clean(newParent.EmbeddedInode().Path(nil)), newName)
	t0 := n.fsys.opStart("rename", from, zap.String("to", to))

	if flags != 0 {
		// RENAME_EXCHANGE and RENAME_NOREPLACE
		return n.fsys.opEnd(t0, "rename", from, syscall.ENOSYS)
	}
	return n.fsys.opEnd(t0, "rename", from, n.fsys.core.Rename(ctx, from, to))
}

func (n *node) Statfs(_ context.Context, out *fuse.StatfsOut) syscall.Errno {
	n.fsys.statfs(out)
	return 0
}

// fillAttr describes an entry to the kernel
func (f *FS) fillAttr(entry inodes.Entry, out *fuse.Attr) {
	mtime := entry.ModTime()
	out.Mode = inodes.UnixMode(entry.Mode)
	out.Size = uint64(entry.Size)
	out.Blocks = (out.Size + 511) / 512
	out.Blksize = blockSize
	out.SetTimes(&mtime, &mtime, &mtime)
	out.Owner = fuse.Owner{Uid: f.uid, Gid: f.gid}
	if entry.IsDir() {
		out.Nlink = dirLinkCount
		out.Size = blockSize
	} else {
		out.Nlink = fileLinkCount
	}
}

// statfs reports a large, mostly free, file system. The content store has no fixed capacity.
func (f *FS) statfs(out *fuse.StatfsOut) {
	const blocks = 1 << 40 / blockSize
	out.Bsize = blockSize
	out.Frsize = blockSize
	out.Blocks = blocks
	out.Bfree = blocks
	out.Bavail = blocks
	out.Files = 1 << 20
	out.Ffree = 1 << 20
	out.NameLen = nameMax
}

func (f *FS) opStart(op, p string, fields ...zap.Field) time.Time {
	if ce := f.l.Check(zap.DebugLevel, "Start"); ce != nil {
		ce.Write(append(fields, zap.String("request", op), zap.String("path", p))...)
	}
	return time.Now()
}

// opEnd logs the end of a request and returns the errno for its outcome
func (f *FS) opEnd(t0 time.Time, op, p string, err error) syscall.Errno {
	var errno syscall.Errno
	if e, ok := err.(syscall.Errno); ok {
		errno = e
	} else {
		errno = toErrno(err)
	}
	if f.MetricsEnabled() {
		f.m.Latency.WithLabelValues(op).Observe(time.Since(t0).Seconds())
		if errno != 0 {
			f.m.Errors.WithLabelValues(op, errno.Error()).Inc()
		}
	}
	switch {
	case errno == syscall.EIO:
		f.l.Error("End", zap.String("request", op), zap.String("path", p), zap.Error(err))
	case errno != 0:
		f.l.Debug("End", zap.String("request", op), zap.String("path", p), zap.Error(err))
	default:
		if ce := f.l.Check(zap.DebugLevel, "End"); ce != nil {
			ce.Write(zap.String("request", op), zap.String("path", p), zap.Duration("elapsed", time.Since(t0)))
		}
	}
	return errno
}
