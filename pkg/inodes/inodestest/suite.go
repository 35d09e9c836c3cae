// Package inodestest holds the behavior tests shared by all inode store implementations.
package inodestest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/oneconcern/casfs/pkg/inodes/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Now is the fixed time reported by the clock given to stores under test
var Now = time.Unix(1600000000, 0)

// Factory builds an empty store, stamping entries with Now
type Factory func(t *testing.T) inodes.Store

// Run all store tests
func Run(t *testing.T, factory Factory) {
	for _, toPin := range []struct {
		name string
		test func(*testing.T, inodes.Store)
	}{
		{name: "root", test: testRoot},
		{name: "create", test: testCreate},
		{name: "update", test: testUpdate},
		{name: "list", test: testList},
		{name: "remove", test: testRemove},
		{name: "rename file", test: testRenameFile},
		{name: "rename tree", test: testRenameTree},
		{name: "seed", test: testSeed},
	} {
		fixture := toPin
		t.Run(fixture.name, func(t *testing.T) {
			s := factory(t)
			defer func() { require.NoError(t, s.Close()) }()
			fixture.test(t, s)
		})
	}
}

func testRoot(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	root, err := s.Resolve(ctx, "/")
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	assert.Equal(t, inodes.Root, root.Path)

	root, err = s.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, inodes.Root, root.Path)

	_, err = s.Mkdir(ctx, "/", 0o755)
	require.ErrorIs(t, err, status.ErrExists)
	require.ErrorIs(t, s.Remove(ctx, "/"), status.ErrInvalidPath)
}

func testCreate(t *testing.T, s inodes.Store) {
	ctx := context.Background()

	e, err := s.Create(ctx, "/file", 0o640)
	require.NoError(t, err)
	assert.Equal(t, inodes.Entry{Path: "/file", Mode: 0o640, Mtime: Now.Unix()}, e)

	got, err := s.Resolve(ctx, "file/")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = s.Create(ctx, "/file", 0o640)
	require.ErrorIs(t, err, status.ErrExists)

	_, err = s.Create(ctx, "/missing/file", 0o640)
	require.ErrorIs(t, err, status.ErrNotFound)

	_, err = s.Create(ctx, "/file/below", 0o640)
	require.ErrorIs(t, err, status.ErrNotDir)

	d, err := s.Mkdir(ctx, "/dir", 0o750)
	require.NoError(t, err)
	assert.True(t, d.IsDir())
	assert.Equal(t, os.ModeDir|0o750, d.Mode)

	_, err = s.Create(ctx, "/dir/file", 0o600)
	require.NoError(t, err)

	_, err = s.Resolve(ctx, "/nowhere")
	require.ErrorIs(t, err, status.ErrNotFound)
}

func testUpdate(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, "/file", 0o644)
	require.NoError(t, err)

	later := Now.Add(time.Hour)
	require.NoError(t, s.Update(ctx, "/file", inodes.Update{
		BlockHash: "781e5e245d69b566979b86e28d23f2c7",
		Size:      10,
		Mtime:     later,
		Mask:      inodes.UpdateContent | inodes.UpdateMtime,
	}))
	e, err := s.Resolve(ctx, "/file")
	require.NoError(t, err)
	assert.Equal(t, "781e5e245d69b566979b86e28d23f2c7", e.BlockHash)
	assert.Equal(t, int64(10), e.Size)
	assert.Equal(t, later.Unix(), e.Mtime)

	require.NoError(t, s.Update(ctx, "/file", inodes.Update{Mtime: Now, Mask: inodes.UpdateMtime}))
	e, err = s.Resolve(ctx, "/file")
	require.NoError(t, err)
	assert.Equal(t, "781e5e245d69b566979b86e28d23f2c7", e.BlockHash, "content is kept on mtime updates")
	assert.Equal(t, Now.Unix(), e.Mtime)

	err = s.Update(ctx, "/missing", inodes.Update{Mask: inodes.UpdateMtime})
	require.ErrorIs(t, err, status.ErrNotFound)

	err = s.Update(ctx, "/", inodes.Update{Mask: inodes.UpdateContent})
	require.ErrorIs(t, err, status.ErrIsDir)
}

func testList(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	_, err := s.Mkdir(ctx, "/a", 0o755)
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, "/a-b", 0o755)
	require.NoError(t, err)
	for _, p := range []string{"/a/z", "/a/b", "/a-b/c", "/top"} {
		_, err = s.Create(ctx, p, 0o644)
		require.NoError(t, err)
	}
	_, err = s.Mkdir(ctx, "/a/sub", 0o755)
	require.NoError(t, err)
	_, err = s.Create(ctx, "/a/sub/deep", 0o644)
	require.NoError(t, err)

	names := func(entries []inodes.Entry) []string {
		res := make([]string, 0, len(entries))
		for _, e := range entries {
			res = append(res, e.Path)
		}
		return res
	}

	children, err := s.List(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/a-b", "/top"}, names(children))

	children, err = s.List(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/b", "/a/sub", "/a/z"}, names(children))

	children, err = s.List(ctx, "/a/sub")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/sub/deep"}, names(children))

	_, err = s.List(ctx, "/top")
	require.ErrorIs(t, err, status.ErrNotDir)

	_, err = s.List(ctx, "/none")
	require.ErrorIs(t, err, status.ErrNotFound)
}

func testRemove(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	_, err := s.Mkdir(ctx, "/dir", 0o755)
	require.NoError(t, err)
	_, err = s.Create(ctx, "/dir/file", 0o644)
	require.NoError(t, err)

	require.ErrorIs(t, s.Remove(ctx, "/dir"), status.ErrNotEmpty)
	require.NoError(t, s.Remove(ctx, "/dir/file"))
	require.NoError(t, s.Remove(ctx, "/dir"))
	require.ErrorIs(t, s.Remove(ctx, "/dir"), status.ErrNotFound)

	_, err = s.Resolve(ctx, "/dir")
	require.ErrorIs(t, err, status.ErrNotFound)
}

func testRenameFile(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	_, err := s.Create(ctx, "/from", 0o644)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "/from", inodes.Update{BlockHash: "h1", Size: 1, Mask: inodes.UpdateContent}))
	_, err = s.Create(ctx, "/to", 0o644)
	require.NoError(t, err)

	require.NoError(t, s.Rename(ctx, "/from", "/to"))
	_, err = s.Resolve(ctx, "/from")
	require.ErrorIs(t, err, status.ErrNotFound)
	e, err := s.Resolve(ctx, "/to")
	require.NoError(t, err)
	assert.Equal(t, "h1", e.BlockHash, "the destination is replaced")

	_, err = s.Mkdir(ctx, "/dir", 0o755)
	require.NoError(t, err)
	require.ErrorIs(t, s.Rename(ctx, "/to", "/dir"), status.ErrIsDir)
	require.ErrorIs(t, s.Rename(ctx, "/missing", "/x"), status.ErrNotFound)
	require.ErrorIs(t, s.Rename(ctx, "/to", "/none/x"), status.ErrNotFound)
	require.NoError(t, s.Rename(ctx, "/to", "/to"))
}

func testRenameTree(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	for _, d := range []string{"/src", "/src/sub", "/other"} {
		_, err := s.Mkdir(ctx, d, 0o755)
		require.NoError(t, err)
	}
	for _, f := range []string{"/src/a", "/src/sub/b", "/other/c"} {
		_, err := s.Create(ctx, f, 0o644)
		require.NoError(t, err)
	}

	require.ErrorIs(t, s.Rename(ctx, "/src", "/src/sub/inner"), status.ErrInvalidPath)
	require.ErrorIs(t, s.Rename(ctx, "/src", "/other"), status.ErrNotEmpty)
	require.ErrorIs(t, s.Rename(ctx, "/src", "/other/c"), status.ErrNotDir)

	require.NoError(t, s.Rename(ctx, "/src", "/dst"))
	for _, p := range []string{"/dst", "/dst/a", "/dst/sub", "/dst/sub/b"} {
		_, err := s.Resolve(ctx, p)
		require.NoError(t, err, p)
	}
	for _, p := range []string{"/src", "/src/a", "/src/sub", "/src/sub/b"} {
		_, err := s.Resolve(ctx, p)
		require.ErrorIs(t, err, status.ErrNotFound, p)
	}
	children, err := s.List(ctx, "/dst")
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func testSeed(t *testing.T, s inodes.Store) {
	ctx := context.Background()
	const index = `[
  {"file_path": "/data/sub/file.bin", "block_hash": "781e5e245d69b566979b86e28d23f2c7", "file_size": 10, "file_mtime": 1500000000, "mode": 33188},
  {"file_path": "/data/empty", "mode": 16877},
  {"file_path": "/readme", "block_hash": "7ac66c0f148de9519b8bd264312c4d64", "file_size": 7, "file_mtime": 1500000001}
]`
	n, err := inodes.LoadIndex(ctx, s, stringsReader(index))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	e, err := s.Resolve(ctx, "/data/sub/file.bin")
	require.NoError(t, err)
	assert.Equal(t, "781e5e245d69b566979b86e28d23f2c7", e.BlockHash)
	assert.Equal(t, int64(10), e.Size)
	assert.Equal(t, int64(1500000000), e.Mtime)
	assert.Equal(t, os.FileMode(0o644), e.Mode)

	d, err := s.Resolve(ctx, "/data/sub")
	require.NoError(t, err)
	assert.True(t, d.IsDir(), "parent directories are created")

	d, err = s.Resolve(ctx, "/data/empty")
	require.NoError(t, err)
	assert.True(t, d.IsDir())

	const yamlIndex = `
- file_path: /readme
  block_hash: 0123456789abcdef0123456789abcdef
  file_size: 42
  file_mtime: 1500000002
`
	n, err = inodes.LoadIndex(ctx, s, stringsReader(yamlIndex))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	e, err = s.Resolve(ctx, "/readme")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", e.BlockHash, "existing files are updated")
	assert.Equal(t, int64(42), e.Size)

	_, err = inodes.LoadIndex(ctx, s, stringsReader("{not a list"))
	require.ErrorIs(t, err, status.ErrIndex)
}
