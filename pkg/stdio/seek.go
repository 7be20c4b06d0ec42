package stdio

import (
	"fmt"
	"io"
)

// Seek origins for [File.Seek], equal to [io.SeekStart], [io.SeekCurrent]
// and [io.SeekEnd].
const (
	Start   = io.SeekStart
	Current = io.SeekCurrent
	End     = io.SeekEnd
)

func originName(whence int) string {
	switch whence {
	case Start:
		return "start"
	case Current:
		return "current"
	case End:
		return "end"
	default:
		return fmt.Sprintf("origin %d", whence)
	}
}

// Seek moves the cursor offset bytes from whence, flushing buffered output
// first and clearing the EOF flag, and returns the new offset from the start
// of the file. A rejected offset (e.g. before the start of the file) returns
// an error and leaves the cursor where it was. File implements [io.Seeker].
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.s == nil {
		return 0, badHandle("seek")
	}

	if whence < Start || whence > End {
		return 0, fmt.Errorf("seek: invalid %s", originName(whence))
	}

	pos, err := f.s.seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("seek %d from %s: %w", offset, originName(whence), err)
	}

	return pos, nil
}

// Tell returns the cursor as a byte offset from the start of the file.
func (f *File) Tell() (int64, error) {
	if f.s == nil {
		return 0, badHandle("tell")
	}

	pos, err := f.s.tell()
	if err != nil {
		return 0, fmt.Errorf("tell: %w", err)
	}

	return pos, nil
}

// Rewind moves the cursor to the start of the file and clears the error
// and EOF flags.
func (f *File) Rewind() error {
	if f.s == nil {
		return badHandle("rewind")
	}

	_, err := f.s.seek(0, io.SeekStart)

	f.s.clearFlags()

	if err != nil {
		return fmt.Errorf("rewind: %w", err)
	}

	return nil
}

// Pos is an opaque cursor position captured by [File.Position] and
// restored by [File.SetPosition]. The zero Pos is the start of the file.
type Pos struct {
	offset int64
}

// Position captures the cursor.
func (f *File) Position() (Pos, error) {
	if f.s == nil {
		return Pos{}, badHandle("position")
	}

	off, err := f.s.tell()
	if err != nil {
		return Pos{}, fmt.Errorf("position: %w", err)
	}

	return Pos{offset: off}, nil
}

// SetPosition restores a cursor captured by [File.Position] on the same
// file, flushing buffered output first and clearing the EOF flag.
func (f *File) SetPosition(p Pos) error {
	if f.s == nil {
		return badHandle("setposition")
	}

	if _, err := f.s.seek(p.offset, io.SeekStart); err != nil {
		return fmt.Errorf("setposition: %w", err)
	}

	return nil
}

// HasError reports whether the sticky error flag is set.
func (f *File) HasError() (bool, error) {
	if f.s == nil {
		return false, badHandle("haserror")
	}

	return f.s.err != nil, nil
}

// AtEOF reports whether the sticky end-of-file flag is set.
func (f *File) AtEOF() (bool, error) {
	if f.s == nil {
		return false, badHandle("ateof")
	}

	return f.s.eof, nil
}

// Err returns the cause of the sticky error flag, or nil if the flag is
// clear or the File is closed.
func (f *File) Err() error {
	if f.s == nil {
		return nil
	}

	return f.s.err
}

// ClearFlags clears the error and EOF flags. Output that failed to reach the
// filesystem before the error is dropped. No-op on a closed File.
func (f *File) ClearFlags() {
	if f.s == nil {
		return
	}

	f.s.clearFlags()
}
