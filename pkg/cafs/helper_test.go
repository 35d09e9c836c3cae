package cafs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/localfs"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// countingStore records calls to the wrapped store, and may fail staging
type countingStore struct {
	storage.Store

	mx        sync.Mutex
	opened    map[string]int
	staged    int
	failStage bool
}

func (c *countingStore) Open(ctx context.Context, key string) (storage.Object, error) {
	c.mx.Lock()
	c.opened[key]++
	c.mx.Unlock()
	return c.Store.Open(ctx, key)
}

func (c *countingStore) Stage(ctx context.Context) (storage.Staged, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.failStage {
		return nil, errInjected
	}
	c.staged++
	return c.Store.Stage(ctx)
}

func (c *countingStore) openCount(key string) int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.opened[key]
}

func (c *countingStore) stageCount() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.staged
}

func setupStore(t testing.TB) (*countingStore, afero.Fs) {
	fs := afero.NewMemMapFs()
	bs, err := localfs.New(fs, localfs.Logger(dlogger.MustGetLogger(dlogger.LogLevelNone)))
	require.NoError(t, err)
	return &countingStore{Store: bs, opened: make(map[string]int)}, fs
}

func setupFs(t testing.TB, leafSize int64) (Fs, *countingStore, afero.Fs) {
	store, fs := setupStore(t)
	cfs, err := New(
		Backend(store),
		LeafSize(leafSize),
		Logger(dlogger.MustGetLogger(dlogger.LogLevelNone)),
		WithMetrics(true),
	)
	require.NoError(t, err)
	return cfs, store, fs
}

func writeAll(t testing.TB, cfs Fs, content []byte) *PutRes {
	ctx := context.Background()
	w, err := cfs.NewWriter(ctx)
	require.NoError(t, err)
	n, err := w.WriteAt(ctx, content, 0)
	require.NoError(t, err)
	require.Equal(t, len(content), n)
	res, err := w.Close(ctx)
	require.NoError(t, err)
	return res
}

func readAt(t testing.TB, r Reader, length int, off int64) []byte {
	buf := make([]byte, length)
	n, err := r.ReadAt(context.Background(), buf, off)
	require.NoError(t, err)
	return buf[:n]
}
