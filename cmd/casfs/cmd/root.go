// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/oneconcern/casfs/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "casfs",
	Short: "casfs serves a content-addressable store as a file system",
	Long: `casfs mounts a file system whose file contents are kept in a content-addressable store.

Paths and attributes are kept in an inode store. File contents are stored once per distinct content,
under the MD5 hash of the content, and split in parts when larger than the configured block size.

Contents may be kept on a local directory, an S3 bucket or a GCS bucket.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if params.root.cpuProf == "" {
			return
		}
		stop, err := internal.CPUProfile(params.root.cpuProf)
		if err != nil {
			wrapFatalln("cannot start cpu profile", err)
			return
		}
		params.root.stopCPUProf = stop
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if params.root.stopCPUProf != nil {
			params.root.stopCPUProf()
		}
	},
}

// params holds flags that are not part of the configuration
var params struct {
	root struct {
		cpuProf     string
		stopCPUProf func()
	}
	mount struct {
		memPoll         time.Duration
		memProfDir      string
		memProfAboveMiB uint64
	}
}

var config *Config

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(exitFailure)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addRootFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&params.root.cpuProf, "cpu-prof", "", "Write a cpu profile to this file")
	_ = rootCmd.PersistentFlags().MarkHidden("cpu-prof")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults(viper.GetViper())
	if os.Getenv("CASFS_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("CASFS_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.casfs")
		viper.AddConfigPath("/etc/casfs")
		viper.SetConfigName("casfs")
	}

	viper.SetEnvPrefix("casfs")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}

	var err error
	config, err = newConfig(viper.GetViper())
	if err != nil {
		wrapFatalWithCode(exitConfig, "invalid configuration", err)
	}
}
