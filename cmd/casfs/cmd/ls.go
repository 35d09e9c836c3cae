package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/oneconcern/casfs/pkg/casfs"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [<dir>]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "/"
		if len(args) > 0 {
			dir = args[0]
		}
		ctx := context.Background()
		s, err := newStack(ctx, config, false)
		if err != nil {
			wrapFatalln("ls failed", err)
			return
		}
		err = runLs(ctx, s.core, dir, cmd.OutOrStdout())
		if cerr := s.close(ctx); err == nil {
			err = cerr
		}
		if err != nil {
			wrapFatalln("ls failed", err)
		}
	},
}

func runLs(ctx context.Context, core *casfs.Core, dir string, out io.Writer) error {
	entries, err := core.List(ctx, dir)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.Mode, units.HumanSize(float64(e.Size)), e.ModTime().UTC().Format(time.RFC3339), name)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
