package fuse

import (
	"syscall"

	"github.com/oneconcern/casfs/pkg/casfs/status"
	"github.com/oneconcern/casfs/pkg/errors"
)

var errnos = []struct {
	err   *errors.Error
	errno syscall.Errno
}{
	{err: status.ErrNotFound, errno: syscall.ENOENT},
	{err: status.ErrReadOnly, errno: syscall.EROFS},
	{err: status.ErrUnsupportedMode, errno: syscall.ENOSYS},
	{err: status.ErrInvalidSeek, errno: syscall.ESPIPE},
	{err: status.ErrInvalidHandle, errno: syscall.EINVAL},
	{err: status.ErrWrongMode, errno: syscall.EBADF},
	{err: status.ErrExists, errno: syscall.EEXIST},
	{err: status.ErrNotEmpty, errno: syscall.ENOTEMPTY},
	{err: status.ErrNotDir, errno: syscall.ENOTDIR},
	{err: status.ErrIsDir, errno: syscall.EISDIR},
	{err: status.ErrInvalidPath, errno: syscall.EINVAL},
}

// toErrno translates an error from the casfs core into the errno returned to the kernel
func toErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	for _, e := range errnos {
		if errors.Is(err, e.err) {
			return e.errno
		}
	}
	return syscall.EIO
}
