// Package internal holds helpers shared by the casfs commands.
package internal

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/oneconcern/casfs/pkg/dlogger"
	"go.uber.org/zap"
)

const mib = 1024 * 1024

// CPUProfile starts profiling the CPU to a file. The returned function stops the profile.
func CPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err = pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

func writeProfIfNExist(path string, name string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return err
	}
	fprof, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = fprof.Close() }()
	return pprof.Lookup(name).WriteTo(fprof, 0)
}

// MemPollParams tunes MemPoll
type MemPollParams struct {
	// Interval between two samples of memory statistics
	Interval time.Duration

	// LogEvery logs memory statistics periodically. Zero only logs heap growth.
	LogEvery time.Duration

	// ProfileDir receives heap and allocation profiles, written once the heap grows over ProfileAboveMiB
	ProfileDir      string
	ProfileAboveMiB uint64

	Logger *zap.Logger
}

func memPollDefaults(params MemPollParams) MemPollParams {
	if params.Interval <= 0 {
		params.Interval = 50 * time.Millisecond
	}
	if params.Logger == nil {
		params.Logger = dlogger.MustGetLogger(dlogger.LogLevelInfo)
	}
	return params
}

// memProf writes heap and allocation profiles when the heap exceeds the threshold
func memProf(params MemPollParams, mstats *runtime.MemStats) (bool, error) {
	if params.ProfileDir == "" || mstats.HeapSys/mib < params.ProfileAboveMiB {
		return false, nil
	}
	base := filepath.Join(params.ProfileDir, "casfs-"+strconv.FormatUint(params.ProfileAboveMiB, 10))
	if err := writeProfIfNExist(base+".mem.prof", "heap"); err != nil {
		return false, err
	}
	if err := writeProfIfNExist(base+".alloc.prof", "allocs"); err != nil {
		return false, err
	}
	return true, nil
}

func memPollLoop(ctx context.Context, params MemPollParams) {
	mstats := new(runtime.MemStats)
	ticker := time.NewTicker(params.Interval)
	defer ticker.Stop()

	var maxHeapThusFar uint64
	var sinceLog time.Duration
	profiled := false
	for {
		runtime.ReadMemStats(mstats)
		if params.LogEvery > 0 && sinceLog >= params.LogEvery {
			params.Logger.Info("mempoll",
				zap.Uint64("heap_mib", mstats.Alloc/mib),
				zap.Uint64("heap_sys_mib", mstats.HeapSys/mib),
				zap.Int("goroutines", runtime.NumGoroutine()),
			)
			sinceLog = 0
		}
		if mstats.HeapSys > maxHeapThusFar {
			maxHeapThusFar = mstats.HeapSys
			params.Logger.Debug("grew heap",
				zap.Uint64("heap_mib", mstats.Alloc/mib),
				zap.Uint64("heap_sys_mib", mstats.HeapSys/mib),
			)
		}
		if !profiled {
			var err error
			if profiled, err = memProf(params, mstats); err != nil {
				params.Logger.Error("memory profiling error", zap.Error(err))
				profiled = true
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sinceLog += params.Interval
		}
	}
}

// MemPoll samples memory statistics in the background until the context is done
func MemPoll(ctx context.Context, params MemPollParams) {
	go memPollLoop(ctx, memPollDefaults(params))
}
