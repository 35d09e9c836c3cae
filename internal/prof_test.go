package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.prof")
	stop, err := CPUProfile(path)
	require.NoError(t, err)
	stop()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestMemProf(t *testing.T) {
	dir := t.TempDir()
	params := MemPollParams{ProfileDir: dir, ProfileAboveMiB: 0}
	mstats := new(runtime.MemStats)
	runtime.ReadMemStats(mstats)

	done, err := memProf(params, mstats)
	require.NoError(t, err)
	assert.True(t, done)
	assert.FileExists(t, filepath.Join(dir, "casfs-0.mem.prof"))
	assert.FileExists(t, filepath.Join(dir, "casfs-0.alloc.prof"))

	params.ProfileAboveMiB = 1 << 30
	done, err = memProf(params, mstats)
	require.NoError(t, err)
	assert.False(t, done, "heap below threshold")
}

func TestMemPoll(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	MemPoll(ctx, MemPollParams{
		Interval:   time.Millisecond,
		LogEvery:   5 * time.Millisecond,
		ProfileDir: dir,
		Logger:     dlogger.MustGetLogger(dlogger.LogLevelNone),
	})

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "casfs-0.mem.prof"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}
