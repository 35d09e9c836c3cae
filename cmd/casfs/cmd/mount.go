// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/oneconcern/casfs/internal"
	"github.com/oneconcern/casfs/pkg/fuse"
	"github.com/oneconcern/casfs/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Mount the file system",
	Long: `Mount the file system at the given mount point, then serve it until interrupted.

Files may be read at any offset, but are written sequentially: the new content of a file becomes
visible when the file is closed. Opening a file for reading and writing at once is not supported.

On SIGINT, the file system is unmounted and the files left open are committed.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMount(context.Background(), config, args[0]); err != nil {
			wrapFatalln("mount failed", err)
		}
	},
}

func runMount(ctx context.Context, cfg *Config, mountpoint string) error {
	withMetrics := cfg.MetricsAddr != ""
	s, err := newStack(ctx, cfg, withMetrics)
	if err != nil {
		return err
	}

	fsys, err := fuse.New(s.core, fuse.Logger(s.l), fuse.WithMetrics(withMetrics))
	if err != nil {
		_ = s.close(ctx)
		return err
	}
	mounted, err := fsys.Mount(mountpoint, fuse.AllowOther(cfg.AllowOther))
	if err != nil {
		_ = s.close(ctx)
		return err
	}

	var srv *http.Server
	if withMetrics {
		srv = serveMetrics(cfg.MetricsAddr, s.l)
	}

	if params.mount.memPoll > 0 {
		pollCtx, stopPoll := context.WithCancel(ctx)
		defer stopPoll()
		internal.MemPoll(pollCtx, internal.MemPollParams{
			LogEvery:        params.mount.memPoll,
			ProfileDir:      params.mount.memProfDir,
			ProfileAboveMiB: params.mount.memProfAboveMiB,
			Logger:          s.l,
		})
	}

	registerSIGINTHandlerMount(ctx, mounted, s.l)
	mounted.Wait()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return s.close(ctx)
}

func serveMetrics(addr string, l *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		l.Info("serving metrics", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

func init() {
	flags := mountCmd.Flags()
	flags.String("metrics-addr", "", "Address serving prometheus metrics on /metrics (e.g. :9090)")
	flags.Bool("allow-other", true, "Let other users access the mount (requires user_allow_other in /etc/fuse.conf)")
	flags.DurationVar(&params.mount.memPoll, "mem-poll", 0, "Log memory statistics at this interval (e.g. 30s)")
	flags.StringVar(&params.mount.memProfDir, "mem-prof-dir", "", "Write heap profiles to this directory, with --mem-poll")
	flags.Uint64Var(&params.mount.memProfAboveMiB, "mem-prof-above", 1024, "Heap size in MiB triggering the heap profiles")
	_ = flags.MarkHidden("mem-prof-dir")
	_ = flags.MarkHidden("mem-prof-above")
	_ = viper.BindPFlag("metrics-addr", flags.Lookup("metrics-addr"))
	_ = viper.BindPFlag("allow-other", flags.Lookup("allow-other"))

	rootCmd.AddCommand(mountCmd)
}
