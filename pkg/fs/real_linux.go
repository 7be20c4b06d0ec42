//go:build linux

package fs

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// openAnonymous opens an unnamed regular file in dir using O_TMPFILE.
func openAnonymous(dir string) (File, error) {
	fd, err := unix.Open(dir, unix.O_RDWR|unix.O_TMPFILE|unix.O_CLOEXEC, 0o600)
	if err != nil {
		// Filesystems without O_TMPFILE support report EOPNOTSUPP or EISDIR
		// (older kernels); fall back to create+unlink for those.
		if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.EISDIR) || errors.Is(err, unix.EINVAL) {
			return nil, errAnonymousUnsupported
		}

		return nil, &os.PathError{Op: "open", Path: dir, Err: err}
	}

	return os.NewFile(uintptr(fd), dir), nil
}
