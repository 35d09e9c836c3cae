package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/docker/go-units"
	"github.com/oneconcern/casfs/pkg/casfs"
	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/errors"
	"github.com/oneconcern/casfs/pkg/inodes"
	"github.com/spf13/cobra"
)

const copyBufferSize = 1024 * 1024

var putCmd = &cobra.Command{
	Use:   "put <path> [<local file>]",
	Short: "Store a local file under a path",
	Long: `Store the content of a local file, or of the standard input, under a path of the file system.

Missing parent directories are created. An existing file is replaced.
The key of the stored content is printed.
`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		src := io.Reader(os.Stdin)
		if len(args) > 1 && args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				wrapFatalln("cannot open source", err)
				return
			}
			defer func() { _ = f.Close() }()
			src = f
		}
		ctx := context.Background()
		s, err := newStack(ctx, config, false)
		if err != nil {
			wrapFatalln("put failed", err)
			return
		}
		entry, err := runPut(ctx, s.core, args[0], src)
		if cerr := s.close(ctx); err == nil {
			err = cerr
		}
		if err != nil {
			wrapFatalln("put failed", err)
			return
		}
		infoLogger.Printf("%s %s %s", entry.BlockHash, units.HumanSize(float64(entry.Size)), entry.Path)
	},
}

func runPut(ctx context.Context, core *casfs.Core, p string, src io.Reader) (inodes.Entry, error) {
	p = inodes.Clean(p)
	if err := mkdirAll(ctx, core, inodes.Parent(p)); err != nil {
		return inodes.Entry{}, err
	}

	id, err := core.Create(ctx, p, 0o644)
	if errors.Is(err, status.ErrExists) {
		id, err = core.Open(ctx, p, os.O_WRONLY)
	}
	if err != nil {
		return inodes.Entry{}, err
	}

	w := &handleWriter{ctx: ctx, core: core, id: id}
	_, err = io.CopyBuffer(w, src, make([]byte, copyBufferSize))
	if rerr := core.Release(ctx, id); err == nil {
		err = rerr
	}
	if err != nil {
		return inodes.Entry{}, err
	}
	return core.Stat(ctx, p)
}

func mkdirAll(ctx context.Context, core *casfs.Core, dir string) error {
	if dir == inodes.Root {
		return nil
	}
	current := ""
	for _, name := range strings.Split(strings.TrimPrefix(dir, "/"), "/") {
		current = path.Join("/", current, name)
		_, err := core.Mkdir(ctx, current, 0o755)
		if err == nil || errors.Is(err, status.ErrExists) {
			continue
		}
		return fmt.Errorf("cannot create directory %s: %w", current, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(putCmd)
}
