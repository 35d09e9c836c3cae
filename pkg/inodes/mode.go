package inodes

import "os"

// file type bits of a unix mode (st_mode)
const (
	unixTypeMask = 0o170000
	unixDir      = 0o040000
	unixRegular  = 0o100000
)

// UnixMode converts a file mode to unix st_mode bits
func UnixMode(mode os.FileMode) uint32 {
	perm := uint32(mode.Perm())
	if mode.IsDir() {
		return unixDir | perm
	}
	return unixRegular | perm
}

// FromUnixMode converts unix st_mode bits to a file mode. Types other than directories are mapped to regular files.
func FromUnixMode(mode uint32) os.FileMode {
	perm := os.FileMode(mode) & os.ModePerm
	if mode&unixTypeMask == unixDir {
		return os.ModeDir | perm
	}
	return perm
}
