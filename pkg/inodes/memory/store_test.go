package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/oneconcern/casfs/pkg/inodes/inodestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	inodestest.Run(t, func(*testing.T) inodes.Store {
		return New(Clock(func() time.Time { return inodestest.Now }))
	})
}

func TestConcurrentCreate(t *testing.T) {
	s := New()
	ctx := context.Background()

	const files = 50
	var wg sync.WaitGroup
	for i := 0; i < files; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, "/f"+string(rune('a'+i%26))+string(rune('a'+i/26)), 0o644)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	children, err := s.List(ctx, "/")
	require.NoError(t, err)
	assert.Len(t, children, files)
	assert.Equal(t, files+1, s.Len())
}
