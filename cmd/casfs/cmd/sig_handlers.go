// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/oneconcern/casfs/pkg/fuse"
	"go.uber.org/zap"
)

func registerSIGINTHandlerMount(ctx context.Context, mounted *fuse.MountedFS, l *zap.Logger) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	// unmount when the signal is received
	go func() {
		for {
			<-signalChan
			l.Info("received SIGINT, attempting to unmount", zap.String("mountpoint", mounted.Mountpoint()))

			if err := mounted.Unmount(ctx); err != nil {
				l.Error("failed to unmount in response to SIGINT", zap.Error(err))
				continue
			}
			l.Info("successfully unmounted in response to SIGINT")
			signal.Stop(signalChan)
			return
		}
	}()
}
