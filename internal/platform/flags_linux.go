//go:build linux

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// FileFlags returns the inode attribute flags (FS_IOC_GETFLAGS) of name
// within root. The file is opened without following symlinks and without
// blocking, so FIFOs and device nodes are safe to query.
func FileFlags(root *os.Root, name string) (uint32, error) {
	info, err := root.Lstat(name)
	if err != nil {
		return 0, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return 0, ErrSymlink
	}

	f, err := root.OpenFile(name, os.O_RDONLY|unix.O_NOFOLLOW|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ELOOP) {
			return 0, ErrSymlink
		}
		return 0, err
	}
	defer f.Close()

	rc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}

	var flags uint32
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		flags, ioctlErr = unix.IoctlGetUint32(int(fd), unix.FS_IOC_GETFLAGS) //nolint:gosec // fd fits in int
	}); err != nil {
		return 0, err
	}
	if ioctlErr != nil {
		return 0, ioctlErr
	}
	return flags, nil
}
