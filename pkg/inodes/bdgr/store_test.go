package bdgr

import (
	"context"
	"testing"
	"time"

	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/oneconcern/casfs/pkg/inodes/inodestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() []Option {
	return []Option{
		Logger(dlogger.MustGetLogger(dlogger.LogLevelNone)),
		Clock(func() time.Time { return inodestest.Now }),
	}
}

func TestStore(t *testing.T) {
	inodestest.Run(t, func(t *testing.T) inodes.Store {
		s, err := New(t.TempDir(), testOptions()...)
		require.NoError(t, err)
		return s
	})
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir, testOptions()...)
	require.NoError(t, err)
	_, err = s.Mkdir(ctx, "/dir", 0o755)
	require.NoError(t, err)
	_, err = s.Create(ctx, "/dir/file", 0o644)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "/dir/file", inodes.Update{BlockHash: "abc", Size: 3, Mask: inodes.UpdateContent}))
	require.NoError(t, s.Close())

	s, err = New(dir, testOptions()...)
	require.NoError(t, err)
	defer s.Close()

	e, err := s.Resolve(ctx, "/dir/file")
	require.NoError(t, err)
	assert.Equal(t, "abc", e.BlockHash)
	assert.Equal(t, int64(3), e.Size)

	children, err := s.List(ctx, "/")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/dir", children[0].Path)
}
