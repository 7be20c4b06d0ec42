package stdio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/calvinalkan/stdiofile/pkg/fs"
)

// lastOp tracks which direction the shared buffer currently serves.
type lastOp uint8

const (
	opNone lastOp = iota
	opRead
	opWrite
)

// stream is the buffered state around one open handle.
//
// Reads go through r and writes through w. At most one of them holds data
// at a time: switching direction flushes w or rewinds the handle past the
// unread bytes in r. The logical cursor is therefore always
// handle offset - r.Buffered() (reading) or handle offset + w.Buffered()
// (writing).
type stream struct {
	file fs.File
	mode Mode

	r *bufio.Reader
	w *bufio.Writer

	buffering Buffering
	last      lastOp
	used      bool

	eof  bool
	err  error // sticky error, cleared by ClearFlags/Rewind
	werr bool  // w holds a sticky error and must be reset to accept writes again

	// staged is the path of the atomic staging file, empty otherwise.
	staged string
}

func newStream(file fs.File, mode Mode, buffering Buffering, size int) *stream {
	return &stream{
		file:      file,
		mode:      mode,
		r:         bufio.NewReaderSize(file, size),
		w:         bufio.NewWriterSize(file, size),
		buffering: buffering,
	}
}

func (s *stream) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

// noteReadErr classifies a read error: end-of-stream sets the EOF flag,
// anything else the error flag.
func (s *stream) noteReadErr(err error) {
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
	default:
		s.setErr(err)
	}
}

// beginRead prepares the buffer for reading. Returns false if no read
// should be attempted; the reason is recorded in the flags.
func (s *stream) beginRead() bool {
	s.used = true

	if !s.mode.read {
		s.setErr(ErrNotReadable)

		return false
	}

	if s.last == opWrite {
		if err := s.flushWriter(); err != nil {
			return false
		}
	}

	s.last = opRead

	// End-of-file is sticky: once seen, reads report it until the flag is
	// cleared or the cursor moves.
	return !s.eof
}

// beginWrite prepares the buffer for writing. Returns false if no write
// should be attempted; the reason is recorded in the flags.
func (s *stream) beginWrite() bool {
	s.used = true

	if !s.mode.write {
		s.setErr(ErrNotWritable)

		return false
	}

	if s.last == opRead {
		if err := s.dropReadAhead(); err != nil {
			s.setErr(err)

			return false
		}
	}

	s.last = opWrite

	return true
}

// dropReadAhead discards buffered input and moves the handle back to the
// logical cursor.
func (s *stream) dropReadAhead() error {
	if n := s.r.Buffered(); n > 0 {
		if _, err := s.file.Seek(-int64(n), io.SeekCurrent); err != nil {
			return err
		}
	}

	s.r.Reset(s.file)

	return nil
}

func (s *stream) flushWriter() error {
	if s.w.Buffered() == 0 && !s.werr {
		return nil
	}

	err := s.w.Flush()
	if err != nil {
		s.werr = true
		s.setErr(err)
	}

	return err
}

// write buffers p and applies the buffering policy. Returns the number of
// bytes accepted and whether the whole call succeeded.
func (s *stream) write(p []byte) (int, bool) {
	if !s.beginWrite() {
		return 0, false
	}

	n, err := s.w.Write(p)
	if err != nil {
		s.werr = true
		s.setErr(err)

		return n, false
	}

	switch s.buffering {
	case BufferNone:
		if err := s.flushWriter(); err != nil {
			// Bytes still sitting in the buffer never reached the handle.
			return max(0, n-s.w.Buffered()), false
		}
	case BufferLine:
		if bytes.IndexByte(p, '\n') >= 0 {
			if err := s.flushWriter(); err != nil {
				return n, false
			}
		}
	}

	return n, true
}

// readFull reads len(p) bytes unless end-of-stream or an error intervenes.
func (s *stream) readFull(p []byte) int {
	if !s.beginRead() {
		return 0
	}

	n, err := io.ReadFull(s.r, p)
	s.noteReadErr(err)

	return n
}

func (s *stream) readByte() (byte, bool) {
	if !s.beginRead() {
		return 0, false
	}

	b, err := s.r.ReadByte()
	if err != nil {
		s.noteReadErr(err)

		return 0, false
	}

	return b, true
}

// tell returns the logical cursor.
func (s *stream) tell() (int64, error) {
	if s.mode.append && s.last == opWrite {
		// Appends land wherever the end is at flush time.
		if err := s.flushWriter(); err != nil {
			return 0, err
		}
	}

	pos, err := s.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	switch s.last {
	case opRead:
		pos -= int64(s.r.Buffered())
	case opWrite:
		pos += int64(s.w.Buffered())
	}

	return pos, nil
}

// seek moves the logical cursor and clears the EOF flag.
func (s *stream) seek(offset int64, whence int) (int64, error) {
	if s.last == opWrite {
		if err := s.flushWriter(); err != nil {
			return 0, err
		}
	}

	if whence == io.SeekCurrent && s.last == opRead {
		offset -= int64(s.r.Buffered())
	}

	pos, err := s.file.Seek(offset, whence)
	if err != nil {
		return 0, err
	}

	if pos < 0 {
		return 0, fmt.Errorf("seek: negative position %d", pos)
	}

	s.r.Reset(s.file)
	s.last = opNone
	s.eof = false

	return pos, nil
}

func (s *stream) clearFlags() {
	s.eof = false
	s.err = nil

	if s.werr {
		s.w.Reset(s.file)
		s.werr = false
	}
}

// close flushes pending output and closes the handle. With durable set, a
// clean stream is also synced before closing. The handle is closed even
// when the flush or sync fails.
func (s *stream) close(durable bool) error {
	var flushErr error
	if s.last == opWrite || s.werr {
		flushErr = s.flushWriter()
	}

	if durable && flushErr == nil && s.err == nil {
		if err := s.file.Sync(); err != nil {
			s.setErr(err)
			flushErr = err
		}
	}

	closeErr := s.file.Close()

	return errors.Join(flushErr, closeErr)
}
