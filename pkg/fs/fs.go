// Package fs provides the filesystem seam that [stdio.File] streams are built on.
//
// The main types are:
//   - [FS]: interface for the handful of filesystem operations a stream needs
//   - [File]: interface for open files (satisfied by [os.File] and afero files)
//   - [Real]: production implementation using the [os] package
//   - [Afero]: adapter for any [afero.Fs], e.g. an in-memory filesystem
//   - [Chaos]: testing implementation that injects random failures
//
// Example usage:
//
//	fsys := fs.NewReal()
//	f, err := fsys.OpenFile("data.bin", os.O_RDONLY, 0)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
// [stdio.File]: github.com/calvinalkan/stdiofile/pkg/stdio.File
// [afero.Fs]: https://pkg.go.dev/github.com/spf13/afero#Fs
package fs

import (
	"io"
	"os"
)

// File represents an open file handle.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader], [io.Writer],
// [io.Seeker], or [io.Closer].
//
// Like [os.File], Write must return an error when the file wasn't opened
// for writing, and Read must return an error when it wasn't opened for
// reading.
//
// Implementations are not required to be safe for concurrent use; a handle
// has exactly one owner.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Name returns the name the file was opened with. See [os.File.Name].
	Name() string

	// Stat returns the [os.FileInfo] for this file. See [os.File.Stat].
	Stat() (os.FileInfo, error)

	// Sync commits the file's contents to stable storage. See [os.File.Sync].
	Sync() error
}

// FS defines the filesystem operations needed to open, reopen and replace
// buffered file streams.
//
// Paths use OS semantics (like the os package and path/filepath), not the
// slash-separated paths used by the standard library io/fs package.
type FS interface {
	// OpenFile opens a file with specified flags and permissions. See [os.OpenFile].
	//
	// Common flags: [os.O_RDONLY], [os.O_WRONLY], [os.O_RDWR],
	// [os.O_APPEND], [os.O_CREATE], [os.O_EXCL], [os.O_TRUNC].
	OpenFile(path string, flag int, perm os.FileMode) (File, error)

	// OpenTemp creates an anonymous read-write file in dir. The file has no
	// reachable name and its storage is released once the handle is closed.
	// An empty dir means the default temp directory.
	OpenTemp(dir string) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	Remove(path string) error

	// Replace atomically moves src over dst, so readers of dst observe either
	// the old or the new content, never a mix.
	Replace(src, dst string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
