package fs

import (
	"errors"
	"os"

	"github.com/natefinch/atomic"
)

// Real implements [FS] using the real filesystem.
//
// Most methods are pure passthroughs to the [os] package with identical
// behavior and error semantics. The exceptions are [Real.OpenTemp], which
// prefers kernel-anonymous files where the platform has them, and
// [Real.Replace], which uses an atomic rename.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.OpenFile].
func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

// OpenTemp creates an anonymous temporary file.
//
// On Linux the file is created with O_TMPFILE and never has a name. Elsewhere
// (or when the filesystem rejects O_TMPFILE) a named file is created and
// unlinked right away; if unlinking an open file is not permitted, removal is
// deferred until the handle is closed.
func (r *Real) OpenTemp(dir string) (File, error) {
	if dir == "" {
		dir = os.TempDir()
	}

	file, err := openAnonymous(dir)
	if err == nil {
		return file, nil
	}

	if !errors.Is(err, errAnonymousUnsupported) {
		return nil, err
	}

	named, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return nil, err
	}

	removeErr := os.Remove(named.Name())
	if removeErr != nil {
		return &removeOnClose{File: named, remove: os.Remove}, nil
	}

	return named, nil
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// A passthrough wrapper for [os.Stat].
func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// A passthrough wrapper for [os.Remove].
func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

// Replace atomically replaces dst with src using [atomic.ReplaceFile].
func (r *Real) Replace(src, dst string) error {
	return atomic.ReplaceFile(src, dst)
}

// tempPattern is the name pattern for temp files created by this package.
const tempPattern = "stdiofile-*"

var errAnonymousUnsupported = errors.New("anonymous temp files unsupported")

// removeOnClose deletes a temp file when its handle is closed.
type removeOnClose struct {
	File

	remove func(string) error
}

func (f *removeOnClose) Close() error {
	closeErr := f.File.Close()
	removeErr := f.remove(f.Name())

	if removeErr != nil && os.IsNotExist(removeErr) {
		removeErr = nil
	}

	return errors.Join(closeErr, removeErr)
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
