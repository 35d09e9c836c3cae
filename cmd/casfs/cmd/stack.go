package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/oneconcern/casfs/pkg/cafs"
	"github.com/oneconcern/casfs/pkg/casfs"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/oneconcern/casfs/pkg/inodes/bdgr"
	"github.com/oneconcern/casfs/pkg/inodes/memory"
	"github.com/oneconcern/casfs/pkg/storage"
	"github.com/oneconcern/casfs/pkg/storage/gcs"
	"github.com/oneconcern/casfs/pkg/storage/localfs"
	"github.com/oneconcern/casfs/pkg/storage/sthree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// stack holds the components assembled from the configuration
type stack struct {
	l      *zap.Logger
	store  storage.Store
	fs     cafs.Fs
	inodes inodes.Store
	core   *casfs.Core
}

func newStack(ctx context.Context, cfg *Config, withMetrics bool) (*stack, error) {
	l, err := dlogger.GetLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to set log level: %w", err)
	}
	s := &stack{l: l}

	if s.store, err = newBlockStore(ctx, cfg, l); err != nil {
		return nil, err
	}

	leafSize, err := cfg.leafSize()
	if err != nil {
		return nil, err
	}
	s.fs, err = cafs.New(
		cafs.Backend(s.store),
		cafs.LeafSize(leafSize),
		cafs.Logger(l),
		cafs.WithMetrics(withMetrics),
	)
	if err != nil {
		return nil, err
	}

	if s.inodes, err = newInodeStore(cfg, l); err != nil {
		return nil, err
	}
	if err = seedInodes(ctx, cfg, s.inodes, l); err != nil {
		_ = s.inodes.Close()
		return nil, err
	}

	s.core, err = casfs.New(s.inodes, s.fs,
		casfs.ReadOnly(cfg.ReadOnly),
		casfs.Logger(l),
		casfs.WithMetrics(withMetrics),
	)
	if err != nil {
		_ = s.inodes.Close()
		return nil, err
	}
	return s, nil
}

func newBlockStore(ctx context.Context, cfg *Config, l *zap.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case backendS3:
		awsConfig := aws.NewConfig()
		if cfg.Region != "" {
			awsConfig = awsConfig.WithRegion(cfg.Region)
		}
		if cfg.Endpoint != "" {
			awsConfig = awsConfig.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
		}
		return sthree.New(cfg.Bucket, sthree.AWSConfig(awsConfig), sthree.Logger(l))
	case backendGCS:
		return gcs.New(ctx, cfg.Bucket, gcs.CredentialsFile(cfg.Credentials), gcs.Logger(l))
	default:
		if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
			return nil, fmt.Errorf("cannot prepare content root: %w", err)
		}
		return localfs.NewOS(cfg.Root, localfs.Logger(l))
	}
}

func newInodeStore(cfg *Config, l *zap.Logger) (inodes.Store, error) {
	if cfg.Inodes == "" || cfg.Inodes == inodesInMemory {
		return memory.New(), nil
	}
	store, err := bdgr.New(cfg.Inodes, bdgr.Logger(l))
	if err != nil {
		return nil, err
	}
	return store, nil
}

func seedInodes(ctx context.Context, cfg *Config, store inodes.Store, l *zap.Logger) error {
	if cfg.Seed == "" {
		return nil
	}
	f, err := os.Open(cfg.Seed)
	if err != nil {
		return fmt.Errorf("cannot open index %s: %w", cfg.Seed, err)
	}
	defer func() { _ = f.Close() }()

	count, err := inodes.LoadIndex(ctx, store, f)
	if err != nil {
		return fmt.Errorf("cannot load index %s: %w", cfg.Seed, err)
	}
	l.Info("index loaded", zap.String("file", cfg.Seed), zap.Int("entries", count))
	return nil
}

// close releases open handles, then the inode store
func (s *stack) close(ctx context.Context) error {
	err := multierr.Append(s.core.Shutdown(ctx), s.inodes.Close())
	_ = s.l.Sync()
	return err
}
