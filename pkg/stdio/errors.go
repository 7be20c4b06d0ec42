package stdio

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stdio operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, stdio.ErrBadHandle) {
//	    // the File was never opened or was already closed
//	}
var (
	// ErrBadHandle indicates an operation on a File whose handle is absent:
	// it was never opened, it was closed, or its handle was transferred away.
	//
	// This is a programming error.
	ErrBadHandle = errors.New("stdio: bad file handle")

	// ErrInvalidMode indicates a mode string outside the supported
	// vocabulary. Always wrapped in an [*OpenError].
	ErrInvalidMode = errors.New("stdio: invalid mode")

	// ErrEmptyPath indicates an open request without a path.
	// Always wrapped in an [*OpenError].
	ErrEmptyPath = errors.New("stdio: empty path")

	// ErrAnonymous indicates a reopen of an anonymous temporary file, which
	// has no path to reopen. Always wrapped in an [*OpenError].
	ErrAnonymous = errors.New("stdio: anonymous file has no path")

	// ErrStreamInUse indicates [File.SetBuffering] was called after the
	// stream had already performed I/O.
	ErrStreamInUse = errors.New("stdio: stream already in use")

	// ErrNotReadable is recorded as the sticky error when reading from a
	// stream opened write-only. Inspect it with [File.Err].
	ErrNotReadable = errors.New("stdio: stream not open for reading")

	// ErrNotWritable is recorded as the sticky error when writing to a
	// stream opened read-only. Inspect it with [File.Err].
	ErrNotWritable = errors.New("stdio: stream not open for writing")
)

// OpenError reports a create, open, or reopen request the filesystem (or
// argument validation) rejected.
//
// Err holds the cause: usually an [*fs.PathError] carrying the OS errno, or
// one of [ErrInvalidMode], [ErrEmptyPath], [ErrAnonymous].
type OpenError struct {
	Op   string // "open", "opentemp" or "reopen"
	Path string // empty for anonymous temporary files
	Mode string // mode string as requested
	Err  error
}

func (e *OpenError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("stdio: %s (mode %q): %v", e.Op, e.Mode, e.Err)
	}

	return fmt.Sprintf("stdio: %s %q with mode %q: %v", e.Op, e.Path, e.Mode, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

func badHandle(op string) error {
	return fmt.Errorf("%s: %w", op, ErrBadHandle)
}
