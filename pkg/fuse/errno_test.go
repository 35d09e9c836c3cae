package fuse

import (
	"errors"
	"syscall"
	"testing"

	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/stretchr/testify/assert"
)

func TestToErrno(t *testing.T) {
	for _, toPin := range []struct {
		err   error
		errno syscall.Errno
	}{
		{err: nil, errno: 0},
		{err: status.ErrNotFound.WrapMessage("/a"), errno: syscall.ENOENT},
		{err: status.ErrReadOnly, errno: syscall.EROFS},
		{err: status.ErrUnsupportedMode, errno: syscall.ENOSYS},
		{err: status.ErrInvalidSeek.Wrap(errors.New("offset 10, expected 3")), errno: syscall.ESPIPE},
		{err: status.ErrInvalidHandle, errno: syscall.EINVAL},
		{err: status.ErrWrongMode, errno: syscall.EBADF},
		{err: status.ErrExists, errno: syscall.EEXIST},
		{err: status.ErrNotEmpty, errno: syscall.ENOTEMPTY},
		{err: status.ErrNotDir, errno: syscall.ENOTDIR},
		{err: status.ErrIsDir, errno: syscall.EISDIR},
		{err: status.ErrStorage.Wrap(errors.New("disk full")), errno: syscall.EIO},
		{err: status.ErrMetadata, errno: syscall.EIO},
		{err: errors.New("anything else"), errno: syscall.EIO},
	} {
		tc := toPin
		name := "nil"
		if tc.err != nil {
			name = tc.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.errno, toErrno(tc.err))
		})
	}
}
