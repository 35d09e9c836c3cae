package inodes

import (
	"context"
	"io"
	"os"
	"sort"
	"time"

	"github.com/ghodss/yaml"
	"github.com/oneconcern/casfs/pkg/errors"
	"github.com/oneconcern/casfs/pkg/inodes/status"
)

// IndexRecord is one entry of a seed index.
//
// Mode holds unix st_mode bits. A record with a directory mode, or without a block hash and
// a trailing slash in its path, is a directory.
type IndexRecord struct {
	Path      string `json:"file_path"`
	BlockHash string `json:"block_hash,omitempty"`
	Size      int64  `json:"file_size"`
	Mtime     int64  `json:"file_mtime"`
	Mode      uint32 `json:"mode,omitempty"`
}

const defaultFileMode = 0o644

func (r IndexRecord) fileMode() os.FileMode {
	if r.Mode == 0 {
		if len(r.Path) > 1 && r.Path[len(r.Path)-1] == '/' {
			return os.ModeDir | 0o755
		}
		return defaultFileMode
	}
	return FromUnixMode(r.Mode)
}

// LoadIndex seeds a store from a JSON or YAML list of records.
//
// Missing parent directories are created. Existing files are updated with the content of the record.
// It returns the number of records loaded.
func LoadIndex(ctx context.Context, s Store, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, status.ErrIndex.Wrap(err)
	}
	var records []IndexRecord
	if err = yaml.Unmarshal(data, &records); err != nil {
		return 0, status.ErrIndex.Wrap(err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return Clean(records[i].Path) < Clean(records[j].Path)
	})

	loaded := 0
	for _, record := range records {
		p := Clean(record.Path)
		if p == Root {
			continue
		}
		if err = mkdirAll(ctx, s, Parent(p)); err != nil {
			return loaded, err
		}

		mode := record.fileMode()
		if mode.IsDir() {
			if err = mkdir(ctx, s, p, mode); err != nil {
				return loaded, err
			}
		} else {
			if _, err = s.Create(ctx, p, mode); err != nil && !errors.Is(err, status.ErrExists) {
				return loaded, err
			}
			if err = s.Update(ctx, p, Update{
				BlockHash: record.BlockHash,
				Size:      record.Size,
				Mtime:     time.Unix(record.Mtime, 0),
				Mask:      UpdateContent | UpdateMtime,
			}); err != nil {
				return loaded, err
			}
		}
		loaded++
	}
	return loaded, nil
}

func mkdir(ctx context.Context, s Store, p string, mode os.FileMode) error {
	_, err := s.Mkdir(ctx, p, mode)
	if err == nil {
		return nil
	}
	if errors.Is(err, status.ErrExists) {
		e, rerr := s.Resolve(ctx, p)
		if rerr != nil {
			return rerr
		}
		if !e.IsDir() {
			return status.ErrNotDir.WrapMessage("%s", p)
		}
		return nil
	}
	return err
}

func mkdirAll(ctx context.Context, s Store, dir string) error {
	if dir == Root {
		return nil
	}
	if e, err := s.Resolve(ctx, dir); err == nil {
		if !e.IsDir() {
			return status.ErrNotDir.WrapMessage("%s", dir)
		}
		return nil
	}
	if err := mkdirAll(ctx, s, Parent(dir)); err != nil {
		return err
	}
	return mkdir(ctx, s, dir, 0o755)
}
