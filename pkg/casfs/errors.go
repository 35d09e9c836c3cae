package casfs

import (
	cafsstatus "github.com/oneconcern/casfs/pkg/cafs/status"
	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/errors"
	inodestatus "github.com/oneconcern/casfs/pkg/inodes/status"
)

// metadataError qualifies an error returned by the inode store
func metadataError(err error) error {
	if err == nil {
		return nil
	}
	for _, pair := range []struct {
		from, to *errors.Error
	}{
		{from: inodestatus.ErrNotFound, to: status.ErrNotFound},
		{from: inodestatus.ErrExists, to: status.ErrExists},
		{from: inodestatus.ErrNotDir, to: status.ErrNotDir},
		{from: inodestatus.ErrIsDir, to: status.ErrIsDir},
		{from: inodestatus.ErrNotEmpty, to: status.ErrNotEmpty},
		{from: inodestatus.ErrInvalidPath, to: status.ErrInvalidPath},
	} {
		if errors.Is(err, pair.from) {
			return pair.to.Wrap(err)
		}
	}
	return status.ErrMetadata.Wrap(err)
}

// contentError qualifies an error returned by a content reader or writer
func contentError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, cafsstatus.ErrInvalidSeek):
		return status.ErrInvalidSeek.Wrap(err)
	case errors.Is(err, cafsstatus.ErrNotFound):
		return status.ErrNotFound.Wrap(err)
	default:
		return status.ErrStorage.Wrap(err)
	}
}
