// Copyright © 2018 One Concern

package localfs

import (
	"bytes"
	"context"
	"io"
	"path"
	"sync"
	"testing"

	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t testing.TB) (storage.Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	bs, err := New(fs, Logger(dlogger.MustGetLogger(dlogger.LogLevelNone)))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bs.Put(ctx, "sixteentons", bytes.NewBufferString("this is the text")))
	require.NoError(t, bs.Put(ctx, "ab/c/seventeentons", bytes.NewBufferString("this is the text for another thing")))
	return bs, fs
}

func TestHas(t *testing.T) {
	bs, _ := setupStore(t)

	has, err := bs.Has(context.Background(), "sixteentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "ab/c/seventeentons")
	require.NoError(t, err)
	require.True(t, has)

	has, err = bs.Has(context.Background(), "fifteentons")
	require.NoError(t, err)
	require.False(t, has)

	has, err = bs.Has(context.Background(), "ab/c")
	require.NoError(t, err)
	require.False(t, has, "directories are not objects")
}

func TestGet(t *testing.T) {
	bs, _ := setupStore(t)

	rdr, err := bs.Get(context.Background(), "sixteentons")
	require.NoError(t, err)
	b, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())
	assert.Equal(t, "this is the text", string(b))

	_, err = bs.Get(context.Background(), "fifteentons")
	require.Error(t, err)
	assert.True(t, storage.IsNotExist(err))
}

func TestOpenReadAt(t *testing.T) {
	bs, _ := setupStore(t)

	obj, err := bs.Open(context.Background(), "ab/c/seventeentons")
	require.NoError(t, err)
	defer obj.Close()

	assert.Equal(t, int64(len("this is the text for another thing")), obj.Size())
	buf := make([]byte, 4)
	n, err := obj.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "the ", string(buf))

	_, err = bs.Open(context.Background(), "ab/c")
	require.Error(t, err)
	assert.True(t, storage.IsNotExist(err))
}

func TestStageCommit(t *testing.T) {
	bs, fs := setupStore(t)
	ctx := context.Background()

	staged, err := bs.Stage(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultStagingDir, path.Dir(staged.Name()))

	_, err = staged.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = staged.Write([]byte("world"))
	require.NoError(t, err)

	has, err := bs.Has(ctx, "de/f/deadbeef")
	require.NoError(t, err)
	require.False(t, has, "staged content is not visible before commit")

	require.NoError(t, staged.Commit(ctx, "de/f/deadbeef"))

	content, err := afero.ReadFile(fs, "de/f/deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	exists, err := afero.Exists(fs, staged.Name())
	require.NoError(t, err)
	assert.False(t, exists, "temporary file is renamed away")

	err = staged.Commit(ctx, "de/f/deadbeef")
	require.ErrorIs(t, err, status.ErrStaged)
	_, err = staged.Write([]byte("more"))
	require.ErrorIs(t, err, status.ErrStaged)
}

func TestStageAbort(t *testing.T) {
	bs, fs := setupStore(t)
	ctx := context.Background()

	staged, err := bs.Stage(ctx)
	require.NoError(t, err)
	_, err = staged.Write([]byte("discarded"))
	require.NoError(t, err)

	require.NoError(t, staged.Abort())
	require.NoError(t, staged.Abort())

	entries, err := afero.ReadDir(fs, defaultStagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStagingNamesAreUnique(t *testing.T) {
	bs, _ := setupStore(t)
	ctx := context.Background()

	const writers = 20
	names := make(chan string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			staged, err := bs.Stage(ctx)
			if !assert.NoError(t, err) {
				return
			}
			names <- staged.Name()
			assert.NoError(t, staged.Abort())
		}()
	}
	wg.Wait()
	close(names)

	seen := make(map[string]struct{}, writers)
	for name := range names {
		_, dup := seen[name]
		assert.False(t, dup, "duplicate staging name %s", name)
		seen[name] = struct{}{}
	}
	assert.Len(t, seen, writers)
}

func TestStartupSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(defaultStagingDir, dirMode))
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, afero.WriteFile(fs, path.Join(defaultStagingDir, name), []byte("stale"), fileMode))
	}
	require.NoError(t, afero.WriteFile(fs, "kept", []byte("object"), fileMode))

	_, err := New(fs, Logger(dlogger.MustGetLogger(dlogger.LogLevelNone)))
	require.NoError(t, err)

	entries, err := afero.ReadDir(fs, defaultStagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	exists, err := afero.Exists(fs, "kept")
	require.NoError(t, err)
	assert.True(t, exists, "committed objects are left alone")
}

func TestKeys(t *testing.T) {
	bs, _ := setupStore(t)
	ctx := context.Background()

	staged, err := bs.Stage(ctx)
	require.NoError(t, err)
	defer func() { _ = staged.Abort() }()

	keys, err := bs.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sixteentons", "ab/c/seventeentons"}, keys)
}

func TestDelete(t *testing.T) {
	bs, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, bs.Delete(ctx, "sixteentons"))
	require.NoError(t, bs.Delete(ctx, "sixteentons"))

	has, err := bs.Has(ctx, "sixteentons")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStagingKeysRejected(t *testing.T) {
	bs, _ := setupStore(t)
	ctx := context.Background()

	_, err := bs.Has(ctx, path.Join(defaultStagingDir, "x"))
	require.ErrorIs(t, err, status.ErrInvalidResource)

	err = bs.Put(ctx, path.Join(defaultStagingDir, "x"), bytes.NewBufferString("x"))
	require.ErrorIs(t, err, status.ErrInvalidResource)
}

func TestString(t *testing.T) {
	bs, _ := setupStore(t)
	assert.Equal(t, "localfs", bs.String())

	dir := t.TempDir()
	osStore, err := NewOS(dir)
	require.NoError(t, err)
	assert.Equal(t, "localfs@"+dir, osStore.String())
}
