package cmd

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/oneconcern/casfs/pkg/cafs"
	"github.com/oneconcern/casfs/pkg/dlogger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	backendLocal = "local"
	backendS3    = "s3"
	backendGCS   = "gcs"

	inodesInMemory = "memory"
)

// Config describes the casfs configuration, from flags, environment (CASFS_*) or config file.
type Config struct {
	Root        string `mapstructure:"root" json:"root" yaml:"root"`                      // root of the local content store
	Inodes      string `mapstructure:"inodes" json:"inodes" yaml:"inodes"`                // badger directory, or "memory"
	Seed        string `mapstructure:"seed" json:"seed,omitempty" yaml:"seed,omitempty"`  // index file loaded at start
	Backend     string `mapstructure:"backend" json:"backend" yaml:"backend"`             // local, s3 or gcs
	Bucket      string `mapstructure:"bucket" json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region      string `mapstructure:"region" json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Credentials string `mapstructure:"credentials" json:"credentials,omitempty" yaml:"credentials,omitempty"` // GCS credentials file
	BlockSize   string `mapstructure:"block-size" json:"block-size" yaml:"block-size"`
	ReadOnly    bool   `mapstructure:"read-only" json:"read-only" yaml:"read-only"`
	LogLevel    string `mapstructure:"log-level" json:"log-level" yaml:"log-level"`
	MetricsAddr string `mapstructure:"metrics-addr" json:"metrics-addr,omitempty" yaml:"metrics-addr,omitempty"`
	AllowOther  bool   `mapstructure:"allow-other" json:"allow-other" yaml:"allow-other"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("inodes", inodesInMemory)
	v.SetDefault("backend", backendLocal)
	v.SetDefault("block-size", units.BytesSize(float64(cafs.DefaultLeafSize)))
	v.SetDefault("log-level", dlogger.LogLevelInfo)
	v.SetDefault("allow-other", true)
}

func newConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.leafSize(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case backendLocal, backendS3, backendGCS:
	default:
		return nil, fmt.Errorf("unknown backend %q: expected one of %s, %s, %s", cfg.Backend, backendLocal, backendS3, backendGCS)
	}
	if cfg.Backend != backendLocal && cfg.Bucket == "" {
		return nil, fmt.Errorf("a bucket is required with backend %s", cfg.Backend)
	}
	return &cfg, nil
}

// leafSize parses the block size, e.g. "5GiB", "64MB" or "1048576"
func (c *Config) leafSize() (int64, error) {
	if c.BlockSize == "" {
		return cafs.DefaultLeafSize, nil
	}
	size, err := units.RAMInBytes(c.BlockSize)
	if err != nil {
		return 0, fmt.Errorf("invalid block size %q: %w", c.BlockSize, err)
	}
	if size <= 0 {
		return 0, fmt.Errorf("block size must be positive, got %q", c.BlockSize)
	}
	return size, nil
}

func addRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("root", ".", "Directory holding contents, with the local backend")
	flags.String("inodes", inodesInMemory, `Directory of the persistent inode store, or "memory"`)
	flags.String("seed", "", "An index file (JSON or YAML) of entries to load into the inode store at start")
	flags.String("backend", backendLocal, "Content backend: local, s3 or gcs")
	flags.String("bucket", "", "Bucket holding contents, with the s3 and gcs backends")
	flags.String("region", "", "AWS region, with the s3 backend")
	flags.String("endpoint", "", "Custom S3 endpoint (e.g. a minio server), with the s3 backend")
	flags.String("credentials", "", "Credentials file, with the gcs backend")
	flags.String("block-size", units.BytesSize(float64(cafs.DefaultLeafSize)), "Maximum size of a stored part (e.g. 64MiB)")
	flags.Bool("read-only", false, "Reject all modifications")
	flags.String("log-level", dlogger.LogLevelInfo, "The logging level: debug, info, warn, error or none")

	for _, name := range []string{
		"root", "inodes", "seed", "backend", "bucket", "region", "endpoint", "credentials", "block-size", "read-only", "log-level",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}
