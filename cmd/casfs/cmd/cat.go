package cmd

import (
	"context"
	"io"
	"os"

	"github.com/oneconcern/casfs/pkg/casfs"
	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		s, err := newStack(ctx, config, false)
		if err != nil {
			wrapFatalln("cat failed", err)
			return
		}
		err = runCat(ctx, s.core, args[0], os.Stdout)
		if cerr := s.close(ctx); err == nil {
			err = cerr
		}
		if err != nil {
			wrapFatalln("cat failed", err)
		}
	},
}

func runCat(ctx context.Context, core *casfs.Core, p string, out io.Writer) error {
	id, err := core.Open(ctx, p, os.O_RDONLY)
	if err != nil {
		return err
	}
	r := &handleReader{ctx: ctx, core: core, id: id}
	_, err = io.CopyBuffer(out, r, make([]byte, copyBufferSize))
	if rerr := core.Release(ctx, id); err == nil {
		err = rerr
	}
	return err
}

func init() {
	rootCmd.AddCommand(catCmd)
}
