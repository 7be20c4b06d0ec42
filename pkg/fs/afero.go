package fs

import (
	"os"

	"github.com/spf13/afero"
)

// Afero implements [FS] on top of an [afero.Fs].
//
// It is mostly used with [afero.NewMemMapFs] so streams can be exercised
// without touching disk, but any afero backend works (read-only overlays,
// base-path jails, copy-on-write layers).
//
// Replace is a plain rename; atomicity is whatever the backend provides.
type Afero struct {
	fs afero.Fs
}

// NewAfero returns an [FS] backed by fsys.
// Panics if fsys is nil.
func NewAfero(fsys afero.Fs) *Afero {
	if fsys == nil {
		panic("afero fs is nil")
	}

	return &Afero{fs: fsys}
}

// NewMem returns an [FS] backed by a fresh in-memory filesystem.
func NewMem() *Afero {
	return NewAfero(afero.NewMemMapFs())
}

// Afero returns the wrapped [afero.Fs].
func (a *Afero) Afero() afero.Fs {
	return a.fs
}

func (a *Afero) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	f, err := a.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// OpenTemp creates a named temp file and removes its name immediately. If
// the backend refuses to remove an open file, removal happens on Close.
func (a *Afero) OpenTemp(dir string) (File, error) {
	f, err := afero.TempFile(a.fs, dir, tempPattern)
	if err != nil {
		return nil, err
	}

	if err := a.fs.Remove(f.Name()); err != nil {
		return &removeOnClose{File: f, remove: a.fs.Remove}, nil
	}

	return f, nil
}

func (a *Afero) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

func (a *Afero) Stat(path string) (os.FileInfo, error) {
	return a.fs.Stat(path)
}

func (a *Afero) Remove(path string) error {
	return a.fs.Remove(path)
}

func (a *Afero) Replace(src, dst string) error {
	return a.fs.Rename(src, dst)
}

// Compile-time interface checks.
var (
	_ FS   = (*Afero)(nil)
	_ File = (afero.File)(nil)
)

var _ FS = (*Afero)(nil)
