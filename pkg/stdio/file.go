package stdio

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// EOF is the sentinel [File.ReadChar] and [File.WriteChar] return in place
// of a byte when nothing was transferred.
const EOF = -1

// tempMode is the mode anonymous temporary files are opened with.
const tempMode = "w+b"

// File is an exclusively owned, buffered file stream.
//
// A File is either open, holding exactly one handle, or closed. Every
// successful open moves it from closed to open; [File.Close] moves it back
// exactly once and repeated calls are no-ops. Every other operation except
// [File.IsOpen] and [File.ClearFlags] requires an open File and returns an
// error wrapping [ErrBadHandle] otherwise.
//
// Data transfer methods (Read, Write, ReadChar, WriteChar, ReadLine,
// WriteLine, Printf, Scanf) never return I/O errors. A short transfer is a
// normal outcome; whether it came from end-of-stream or a failure is
// recorded in the sticky flags, see [File.AtEOF], [File.HasError] and
// [File.Err].
//
// Switching between reading and writing on an update stream needs no
// intervening Seek or Flush; the stream does the bookkeeping.
//
// A File has one owner. It is not safe for concurrent use, and copying a
// File value would share its handle; pass *File and use [File.Transfer] to
// hand ownership to another holder. Release the handle with defer:
//
//	f, err := stdio.Open("data.bin", "rb")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
type File struct {
	_ noCopy

	opts Options
	path string
	mode Mode
	s    *stream // nil when closed
}

// noCopy lets go vet's copylocks check flag File values being copied.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New returns a closed File configured with opts. Use [File.Open] or
// [File.OpenTemp] to acquire a handle.
func New(opts ...Option) *File {
	return &File{opts: buildOptions(opts)}
}

// Open opens path with mode. It is the named-file constructor: the returned
// File is open, and on error no handle is held.
func Open(path, mode string, opts ...Option) (*File, error) {
	f := New(opts...)

	if err := f.Open(path, mode); err != nil {
		return nil, err
	}

	return f, nil
}

// OpenTemp creates an anonymous temporary file opened "w+b". It has no
// path and its storage is released when the File is closed.
func OpenTemp(opts ...Option) (*File, error) {
	f := New(opts...)

	if err := f.OpenTemp(); err != nil {
		return nil, err
	}

	return f, nil
}

// Open opens path with mode, closing any handle the File already holds
// first. On error the File is left closed and the error is an [*OpenError].
//
// If releasing the previous handle fails (a failed flush, or a failed
// atomic commit), that error is joined into the result even when the new
// open succeeds; [File.IsOpen] tells the two cases apart.
func (f *File) Open(path, mode string) error {
	f.init()

	var prevErr error
	if f.s != nil {
		prevErr = f.release("open")
	}

	return withPrevious(f.open(path, mode), prevErr)
}

func (f *File) open(path, mode string) error {
	m, err := ParseMode(mode)
	if err != nil {
		return &OpenError{Op: "open", Path: path, Mode: mode, Err: err}
	}

	if path == "" {
		return &OpenError{Op: "open", Mode: mode, Err: ErrEmptyPath}
	}

	s, err := f.openStream(path, m)
	if err != nil {
		return &OpenError{Op: "open", Path: path, Mode: mode, Err: err}
	}

	f.path, f.mode, f.s = path, m, s

	f.opts.Logger.Debug().Str("op", "open").Str("path", path).Str("mode", mode).
		Bool("atomic", s.staged != "").Msg("stdio: handle acquired")

	return nil
}

// OpenTemp replaces any held handle with a new anonymous temporary file
// opened "w+b". On error the File is left closed and the error is an
// [*OpenError]. A failure releasing the previous handle is joined into the
// result as in [File.Open].
func (f *File) OpenTemp() error {
	f.init()

	var prevErr error
	if f.s != nil {
		prevErr = f.release("opentemp")
	}

	return withPrevious(f.openTemp(), prevErr)
}

func (f *File) openTemp() error {
	file, err := f.opts.FS.OpenTemp(f.opts.TempDir)
	if err != nil {
		return &OpenError{Op: "opentemp", Mode: tempMode, Err: err}
	}

	f.path, f.mode = "", MustParseMode(tempMode)
	f.s = newStream(file, f.mode, f.opts.Buffering, f.opts.BufferSize)

	f.opts.Logger.Debug().Str("op", "opentemp").Str("dir", f.opts.TempDir).
		Msg("stdio: handle acquired")

	return nil
}

// withPrevious combines the result of an open with the error from
// releasing the handle it replaced.
func withPrevious(err, prevErr error) error {
	if prevErr == nil {
		return err
	}

	prevErr = fmt.Errorf("previous handle: %w", prevErr)
	if err == nil {
		return prevErr
	}

	return errors.Join(err, prevErr)
}

// Reopen closes the handle and opens the same path again with mode.
//
// The mode is validated before anything is released; an invalid mode or an
// anonymous File returns an [*OpenError] with the handle still open. Once
// the old handle is released, a failure to open the path again leaves the
// File closed. A failure releasing the old handle is joined into the result
// whether or not the new open succeeds.
func (f *File) Reopen(mode string) error {
	if f.s == nil {
		return badHandle("reopen")
	}

	m, err := ParseMode(mode)
	if err != nil {
		return &OpenError{Op: "reopen", Path: f.path, Mode: mode, Err: err}
	}

	if f.path == "" {
		return &OpenError{Op: "reopen", Mode: mode, Err: ErrAnonymous}
	}

	releaseErr := f.release("reopen")

	s, err := f.openStream(f.path, m)
	if err != nil {
		return withPrevious(&OpenError{Op: "reopen", Path: f.path, Mode: mode, Err: err}, releaseErr)
	}

	f.mode, f.s = m, s

	f.opts.Logger.Debug().Str("op", "reopen").Str("path", f.path).Str("mode", mode).
		Msg("stdio: handle reacquired")

	return withPrevious(nil, releaseErr)
}

// Close flushes buffered output and releases the handle. The handle is
// released even if flushing fails; the returned error only reports that
// buffered data may have been lost. Closing a closed File is a no-op that
// returns nil.
func (f *File) Close() error {
	if f.s == nil {
		return nil
	}

	return f.release("close")
}

// IsOpen reports whether the File holds a handle.
func (f *File) IsOpen() bool {
	return f.s != nil
}

// Name returns the path the File was opened with, or "" for anonymous
// temporary files. It is kept after Close.
func (f *File) Name() string {
	return f.path
}

// Mode returns the mode of the current (or most recent) handle.
func (f *File) Mode() Mode {
	return f.mode
}

// Transfer moves the handle into a new File and leaves f closed. The new
// File keeps f's options, path and mode. Transferring a closed File returns
// a closed File.
func (f *File) Transfer() *File {
	dst := &File{opts: f.opts, path: f.path, mode: f.mode, s: f.s}
	f.s = nil

	return dst
}

// SetBuffering changes the buffering policy and buffer size. Like setvbuf,
// it must be called after opening and before any other operation on the
// stream; afterwards it returns [ErrStreamInUse]. A size <= 0 keeps the
// configured size.
func (f *File) SetBuffering(b Buffering, size int) error {
	if f.s == nil {
		return badHandle("setbuffering")
	}

	if f.s.used {
		return fmt.Errorf("setbuffering: %w", ErrStreamInUse)
	}

	if b > BufferNone {
		return fmt.Errorf("setbuffering: unknown buffering %d", b)
	}

	if size <= 0 {
		size = f.opts.BufferSize
	}

	size = max(size, minBufferSize)

	f.s.buffering = b
	f.s.r = bufio.NewReaderSize(f.s.file, size)
	f.s.w = bufio.NewWriterSize(f.s.file, size)

	return nil
}

// Stat flushes buffered output and returns the handle's file info.
func (f *File) Stat() (os.FileInfo, error) {
	if f.s == nil {
		return nil, badHandle("stat")
	}

	if err := f.s.flushWriter(); err != nil {
		return nil, fmt.Errorf("stat: flush: %w", err)
	}

	return f.s.file.Stat()
}

// Sync flushes buffered output and commits the file to stable storage.
func (f *File) Sync() error {
	if f.s == nil {
		return badHandle("sync")
	}

	if err := f.s.flushWriter(); err != nil {
		return fmt.Errorf("sync: flush: %w", err)
	}

	if err := f.s.file.Sync(); err != nil {
		f.s.setErr(err)

		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

// init fills in defaults for Files built as zero values.
func (f *File) init() {
	if f.opts.FS == nil || f.opts.Logger == nil {
		f.opts = f.opts.withDefaults()
	}
}

func (f *File) logger() *zerolog.Logger {
	if f.opts.Logger == nil {
		f.init()
	}

	return f.opts.Logger
}

// openStream opens path for m, staging through a sibling file when atomic
// replacement applies.
func (f *File) openStream(path string, m Mode) (*stream, error) {
	if f.opts.Atomic && m.truncate {
		return f.openStaged(path, m)
	}

	file, err := f.opts.FS.OpenFile(path, m.flags(), f.opts.Perm)
	if err != nil {
		return nil, err
	}

	return newStream(file, m, f.opts.Buffering, f.opts.BufferSize), nil
}

const stageMaxAttempts = 10000

var stageCounter atomic.Uint64

func (f *File) openStaged(path string, m Mode) (*stream, error) {
	if m.exclusive {
		if _, err := f.opts.FS.Stat(path); err == nil {
			return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrExist}
		}
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	flag := (m.flags() &^ (os.O_TRUNC | os.O_APPEND)) | os.O_CREATE | os.O_EXCL

	for range stageMaxAttempts {
		staged := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, stageCounter.Add(1)))

		file, err := f.opts.FS.OpenFile(staged, flag, f.opts.Perm)
		if err == nil {
			s := newStream(file, m, f.opts.Buffering, f.opts.BufferSize)
			s.staged = staged

			return s, nil
		}

		if os.IsExist(err) {
			continue
		}

		return nil, err
	}

	return nil, fmt.Errorf("exhausted staging file attempts in %q", dir)
}

// release closes the current stream and commits or discards a staged
// file. The File is closed afterwards regardless of the result.
func (f *File) release(op string) error {
	s := f.s
	f.s = nil

	log := f.logger()

	closeErr := s.close(s.staged != "")

	if s.staged == "" {
		if closeErr != nil {
			log.Warn().Err(closeErr).Str("op", op).Str("path", f.path).Msg("stdio: handle released with error")
		} else {
			log.Debug().Str("op", op).Str("path", f.path).Msg("stdio: handle released")
		}

		return closeErr
	}

	if closeErr != nil || s.err != nil {
		removeErr := f.opts.FS.Remove(s.staged)
		if removeErr != nil && os.IsNotExist(removeErr) {
			removeErr = nil
		}

		log.Warn().Err(errors.Join(closeErr, s.err)).Str("op", op).Str("path", f.path).
			Msg("stdio: staged output discarded")

		if closeErr == nil {
			closeErr = fmt.Errorf("staged output discarded: %w", s.err)
		}

		return errors.Join(closeErr, removeErr)
	}

	if err := f.opts.FS.Replace(s.staged, f.path); err != nil {
		removeErr := f.opts.FS.Remove(s.staged)
		if removeErr != nil && os.IsNotExist(removeErr) {
			removeErr = nil
		}

		log.Warn().Err(err).Str("op", op).Str("path", f.path).Msg("stdio: atomic replace failed")

		return errors.Join(fmt.Errorf("replace %q: %w", f.path, err), removeErr)
	}

	log.Debug().Str("op", op).Str("path", f.path).Msg("stdio: staged output committed")

	return nil
}
