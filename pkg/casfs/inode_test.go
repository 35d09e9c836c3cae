package casfs

import (
	"context"
	"os"
	"testing"

	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/errors"
	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inodesUpdate(hash string, size int64) inodes.Update {
	return inodes.Update{BlockHash: hash, Size: size, Mask: inodes.UpdateContent}
}

func TestDirectories(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()

	_, err := f.core.Mkdir(ctx, "/d", 0o755)
	require.NoError(t, err)
	f.file(t, "/d/b", []byte("b"))
	f.file(t, "/d/a", []byte("a"))

	entries, err := f.core.List(ctx, "/d")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/d/a", entries[0].Path)
	assert.Equal(t, "/d/b", entries[1].Path)

	_, err = f.core.List(ctx, "/d/a")
	assert.True(t, errors.Is(err, status.ErrNotDir))

	assert.True(t, errors.Is(f.core.Rmdir(ctx, "/d"), status.ErrNotEmpty))
	assert.True(t, errors.Is(f.core.Rmdir(ctx, "/d/a"), status.ErrNotDir))
	assert.True(t, errors.Is(f.core.Unlink(ctx, "/d"), status.ErrIsDir))

	require.NoError(t, f.core.Unlink(ctx, "/d/a"))
	require.NoError(t, f.core.Unlink(ctx, "/d/b"))
	require.NoError(t, f.core.Rmdir(ctx, "/d"))

	_, err = f.core.Stat(ctx, "/d")
	assert.True(t, errors.Is(err, status.ErrNotFound))
	assert.True(t, errors.Is(f.core.Unlink(ctx, "/d"), status.ErrNotFound))
}

func TestUnlinkKeepsOpenHandle(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("still there"))

	id, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)
	require.NoError(t, f.core.Unlink(ctx, "/a"))

	buf := make([]byte, 32)
	n, err := f.core.Read(ctx, id, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "still there", string(buf[:n]))
	require.NoError(t, f.core.Release(ctx, id))
}

func TestRenameAndUtimens(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("moved"))

	require.NoError(t, f.core.Rename(ctx, "/a", "/b"))
	assert.Equal(t, []byte("moved"), f.read(t, "/b"))

	require.NoError(t, f.core.Utimens(ctx, "/b", released))
	e, err := f.core.Stat(ctx, "/b")
	require.NoError(t, err)
	assert.Equal(t, released.Unix(), e.Mtime)

	require.NoError(t, f.core.Truncate(ctx, "/b", 0))
	assert.Equal(t, []byte("moved"), f.read(t, "/b"), "truncate does not alter content")

	assert.True(t, errors.Is(f.core.Truncate(ctx, "/missing", 0), status.ErrNotFound))
	assert.True(t, errors.Is(f.core.Rename(ctx, "/missing", "/c"), status.ErrNotFound))
}

func TestRenameFollowsOpenWriter(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("old"))

	id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	require.NoError(t, err)
	require.NoError(t, f.core.Rename(ctx, "/a", "/b"))
	f.file(t, "/a", []byte("unrelated"))

	_, err = f.core.Write(ctx, id, []byte("new content"), 0)
	require.NoError(t, err)
	require.NoError(t, f.core.Release(ctx, id))

	assert.Equal(t, []byte("new content"), f.read(t, "/b"))
	assert.Equal(t, []byte("unrelated"), f.read(t, "/a"))
	e, err := f.core.Stat(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, created.Unix(), e.Mtime)
}

func TestRenameDirectoryWithOpenWriter(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	_, err := f.core.Mkdir(ctx, "/d", 0o755)
	require.NoError(t, err)
	f.file(t, "/d/x", nil)

	id, err := f.core.Open(ctx, "/d/x", os.O_WRONLY)
	require.NoError(t, err)
	require.NoError(t, f.core.Rename(ctx, "/d", "/e"))

	_, err = f.core.Write(ctx, id, []byte("across parts"), 0)
	require.NoError(t, err)
	require.NoError(t, f.core.Release(ctx, id))

	assert.Equal(t, []byte("across parts"), f.read(t, "/e/x"))
}

func TestRemovedWhileWriting(t *testing.T) {
	t.Run("unlink", func(t *testing.T) {
		f := setup(t, 10)
		ctx := context.Background()
		f.file(t, "/a", []byte("old"))

		id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
		require.NoError(t, err)
		require.NoError(t, f.core.Unlink(ctx, "/a"))
		f.file(t, "/a", []byte("fresh"))

		_, err = f.core.Write(ctx, id, []byte("orphan"), 0)
		require.NoError(t, err)
		assert.True(t, errors.Is(f.core.Release(ctx, id), status.ErrNotFound))
		assert.Equal(t, []byte("fresh"), f.read(t, "/a"))
	})

	t.Run("replaced by rename", func(t *testing.T) {
		f := setup(t, 10)
		ctx := context.Background()
		f.file(t, "/a", []byte("old"))
		f.file(t, "/c", []byte("replacement"))

		id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
		require.NoError(t, err)
		require.NoError(t, f.core.Rename(ctx, "/c", "/a"))

		_, err = f.core.Write(ctx, id, []byte("orphan"), 0)
		require.NoError(t, err)
		assert.True(t, errors.Is(f.core.Release(ctx, id), status.ErrNotFound))
		assert.Equal(t, []byte("replacement"), f.read(t, "/a"))
	})
}
