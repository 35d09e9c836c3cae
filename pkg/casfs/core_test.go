package casfs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/oneconcern/casfs/internal/rand"
	"github.com/oneconcern/casfs/pkg/cafs"
	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/errors"
	"github.com/oneconcern/casfs/pkg/inodes/memory"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfig))

	_, err = New(memory.New(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrConfig))
}

func TestHandleNumbering(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("abc"))

	first, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)
	assert.Equal(t, HandleID(11), first)

	second, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)
	assert.Equal(t, HandleID(12), second)
	assert.Equal(t, 2, f.core.Handles())

	require.NoError(t, f.core.Release(ctx, first))

	third, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)
	assert.Equal(t, HandleID(13), third, "released ids are not reused")

	require.NoError(t, f.core.Shutdown(ctx))
	assert.Zero(t, f.core.Handles())
}

func TestOpenRead(t *testing.T) {
	f := setup(t, 10)
	content := []byte("abcdefghijklmnopq")
	f.file(t, "/x", content)

	assert.Equal(t, content, f.read(t, "/x"))

	ctx := context.Background()
	id, err := f.core.Open(ctx, "/x", os.O_RDONLY)
	require.NoError(t, err)

	buf := make([]byte, 6)
	n, err := f.core.Read(ctx, id, buf, 7)
	require.NoError(t, err)
	assert.Equal(t, "hijklm", string(buf[:n]))

	n, err = f.core.Read(ctx, id, buf, 17)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, f.core.Release(ctx, id))
}

func TestOpenEmptyFile(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	_, err := f.core.Mkdir(ctx, "/data", 0o755)
	require.NoError(t, err)
	f.file(t, "/data/empty", nil)

	assert.Empty(t, f.read(t, "/data/empty"))
}

func TestOpenErrors(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("abc"))
	_, err := f.core.Mkdir(ctx, "/dir", 0o755)
	require.NoError(t, err)

	for _, toPin := range []struct {
		name  string
		path  string
		flags int
		want  *errors.Error
	}{
		{name: "read-write", path: "/a", flags: os.O_RDWR, want: status.ErrUnsupportedMode},
		{name: "read-write on missing", path: "/missing", flags: os.O_RDWR, want: status.ErrUnsupportedMode},
		{name: "missing", path: "/missing", flags: os.O_RDONLY, want: status.ErrNotFound},
		{name: "missing for write", path: "/missing", flags: os.O_WRONLY, want: status.ErrNotFound},
		{name: "directory", path: "/dir", flags: os.O_RDONLY, want: status.ErrIsDir},
	} {
		tc := toPin
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.core.Open(ctx, tc.path, tc.flags)
			require.Error(t, err)
			assert.Truef(t, errors.Is(err, tc.want), "unexpected error: %v", err)
		})
	}
	assert.Zero(t, f.core.Handles())
}

func TestBadEntry(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", nil)
	require.NoError(t, f.inodes.Update(ctx, "/a", inodesUpdate("not-a-key", 3)))

	_, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrBadEntry))
}

func TestMissingContent(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", nil)
	require.NoError(t, f.inodes.Update(ctx, "/a", inodesUpdate(cafs.SumKey([]byte("never stored")).String(), 12)))

	id, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)

	_, err = f.core.Read(ctx, id, make([]byte, 4), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	require.NoError(t, f.core.Release(ctx, id))
}

func TestWriteRelease(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("old content"))

	id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	require.NoError(t, err)

	content := []byte("abcdefghijklmnopq")
	n, err := f.core.Write(ctx, id, content[:9], 0)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	before, err := f.core.Stat(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, int64(11), before.Size, "new content is only visible after release")

	n, err = f.core.Write(ctx, id, content[9:], 9)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	require.NoError(t, f.core.Release(ctx, id))
	assert.Equal(t, 1, f.updates.calls())

	after, err := f.core.Stat(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), after.Size)
	assert.Equal(t, released.Unix(), after.Mtime)

	key := cafs.SumKey(content)
	assert.Equal(t, key.String(), after.BlockHash)
	exists, err := afero.Exists(f.mem, cafs.ManifestPath(key))
	require.NoError(t, err)
	assert.True(t, exists, "17 bytes with 10 bytes parts are stored with a manifest")

	assert.Equal(t, content, f.read(t, "/a"))
}

func TestCreate(t *testing.T) {
	f := setup(t, 1024)
	ctx := context.Background()
	content := rand.Bytes(100)

	id, err := f.core.Create(ctx, "/new", 0o600)
	require.NoError(t, err)

	entry, err := f.core.Stat(ctx, "/new")
	require.NoError(t, err)
	assert.Zero(t, entry.Size)
	assert.Empty(t, entry.BlockHash)

	_, err = f.core.Write(ctx, id, content, 0)
	require.NoError(t, err)
	require.NoError(t, f.core.Release(ctx, id))
	assert.Equal(t, content, f.read(t, "/new"))

	_, err = f.core.Create(ctx, "/new", 0o600)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrExists))

	_, err = f.core.Create(ctx, "/nodir/new", 0o600)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestInvalidSeek(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", nil)

	id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	require.NoError(t, err)

	_, err = f.core.Write(ctx, id, []byte("abc"), 0)
	require.NoError(t, err)

	_, err = f.core.Write(ctx, id, []byte("xyz"), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidSeek))

	_, err = f.core.Write(ctx, id, []byte("def"), 3)
	require.NoError(t, err, "an invalid seek leaves the handle usable")

	require.NoError(t, f.core.Release(ctx, id))
	assert.Equal(t, []byte("abcdef"), f.read(t, "/a"))
}

func TestReleaseWithoutWrite(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	before := f.file(t, "/a", []byte("keep me"))

	id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	require.NoError(t, err)
	require.NoError(t, f.core.Release(ctx, id))
	assert.Zero(t, f.updates.calls(), "no entry update without writes")

	after, err := f.core.Stat(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []byte("keep me"), f.read(t, "/a"))
}

func TestHandleErrors(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", []byte("abc"))

	rid, err := f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)
	wid, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	require.NoError(t, err)

	_, err = f.core.Write(ctx, rid, []byte("x"), 0)
	assert.True(t, errors.Is(err, status.ErrWrongMode))
	_, err = f.core.Read(ctx, wid, make([]byte, 1), 0)
	assert.True(t, errors.Is(err, status.ErrWrongMode))

	require.NoError(t, f.core.Release(ctx, rid))
	require.NoError(t, f.core.Release(ctx, wid))

	err = f.core.Release(ctx, rid)
	assert.True(t, errors.Is(err, status.ErrInvalidHandle))
	_, err = f.core.Read(ctx, rid, make([]byte, 1), 0)
	assert.True(t, errors.Is(err, status.ErrInvalidHandle))
	_, err = f.core.Write(ctx, 999, []byte("x"), 0)
	assert.True(t, errors.Is(err, status.ErrInvalidHandle))
}

func TestReadOnly(t *testing.T) {
	f := setup(t, 10, ReadOnly(true))
	ctx := context.Background()
	f.file(t, "/a", []byte("abc"))
	assert.True(t, f.core.ReadOnly())

	assert.Equal(t, []byte("abc"), f.read(t, "/a"))

	_, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	assert.True(t, errors.Is(err, status.ErrReadOnly))

	_, err = f.core.Open(ctx, "/missing", os.O_WRONLY)
	assert.True(t, errors.Is(err, status.ErrNotFound), "path resolution comes first")

	_, err = f.core.Open(ctx, "/a", os.O_RDWR)
	assert.True(t, errors.Is(err, status.ErrUnsupportedMode))

	_, err = f.core.Create(ctx, "/b", 0o644)
	assert.True(t, errors.Is(err, status.ErrReadOnly))

	_, err = f.core.Mkdir(ctx, "/d", 0o755)
	assert.True(t, errors.Is(err, status.ErrReadOnly))
	assert.True(t, errors.Is(f.core.Unlink(ctx, "/a"), status.ErrReadOnly))
	assert.True(t, errors.Is(f.core.Rename(ctx, "/a", "/b"), status.ErrReadOnly))
	assert.True(t, errors.Is(f.core.Utimens(ctx, "/a", released), status.ErrReadOnly))
	assert.True(t, errors.Is(f.core.Truncate(ctx, "/a", 0), status.ErrReadOnly))

	_, err = f.core.Stat(ctx, "/b")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestConcurrentHandles(t *testing.T) {
	f := setup(t, 64)
	ctx := context.Background()
	const files = 8

	contents := make([][]byte, files)
	for i := range contents {
		contents[i] = rand.Bytes(200 + i*37)
	}

	var wg sync.WaitGroup
	errs := make(chan error, files)
	for i := 0; i < files; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.core.Create(ctx, fmt.Sprintf("/file-%d", i), 0o644)
			if err != nil {
				errs <- err
				return
			}
			content := contents[i]
			for off := 0; off < len(content); off += 50 {
				end := off + 50
				if end > len(content) {
					end = len(content)
				}
				if _, err := f.core.Write(ctx, id, content[off:end], int64(off)); err != nil {
					errs <- err
					return
				}
			}
			errs <- f.core.Release(ctx, id)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Zero(t, f.core.Handles())
	for i := 0; i < files; i++ {
		assert.Equal(t, contents[i], f.read(t, fmt.Sprintf("/file-%d", i)))
	}
}

func TestShutdownCommitsWriters(t *testing.T) {
	f := setup(t, 10)
	ctx := context.Background()
	f.file(t, "/a", nil)

	id, err := f.core.Open(ctx, "/a", os.O_WRONLY)
	require.NoError(t, err)
	_, err = f.core.Write(ctx, id, []byte("pending"), 0)
	require.NoError(t, err)
	_, err = f.core.Open(ctx, "/a", os.O_RDONLY)
	require.NoError(t, err)

	require.NoError(t, f.core.Shutdown(ctx))
	assert.Zero(t, f.core.Handles())
	assert.Equal(t, []byte("pending"), f.read(t, "/a"))
}
