package stdio

import (
	"errors"
	"fmt"
	"io"
)

// Read reads up to count elements of size bytes each into buf and returns
// the number of whole elements transferred.
//
// Fewer than count elements means end-of-stream or a failure; check
// [File.AtEOF] and [File.HasError]. Bytes of a trailing partial element are
// consumed but not counted. A zero size or count reads nothing and returns 0.
//
// Panics if size or count is negative or buf is shorter than size*count.
func (f *File) Read(buf []byte, size, count int) (int, error) {
	if f.s == nil {
		return 0, badHandle("read")
	}

	want := checkElements("Read", buf, size, count)
	if want == 0 {
		return 0, nil
	}

	n := f.s.readFull(buf[:want])

	return n / size, nil
}

// Write writes count elements of size bytes each from buf and returns the
// number of whole elements the stream accepted.
//
// Fewer than count elements means the write failed partway; the cause is in
// [File.Err]. Accepted bytes may still sit in the buffer until a flush; a
// failure to hand them over later surfaces in the flags (and from
// [File.Flush] or [File.Close]).
//
// Panics if size or count is negative or buf is shorter than size*count.
func (f *File) Write(buf []byte, size, count int) (int, error) {
	if f.s == nil {
		return 0, badHandle("write")
	}

	want := checkElements("Write", buf, size, count)
	if want == 0 {
		return 0, nil
	}

	n, _ := f.s.write(buf[:want])

	return n / size, nil
}

func checkElements(op string, buf []byte, size, count int) int {
	if size < 0 || count < 0 {
		panic(fmt.Sprintf("stdio: %s: negative size %d or count %d", op, size, count))
	}

	if size == 0 || count == 0 {
		return 0
	}

	want := size * count
	if want/size != count || want > len(buf) {
		panic(fmt.Sprintf("stdio: %s: buffer of %d bytes too short for %d elements of %d bytes", op, len(buf), count, size))
	}

	return want
}

// ReadChar reads the next byte. It returns the byte as a non-negative int,
// or [EOF] at end-of-stream or on failure.
func (f *File) ReadChar() (int, error) {
	if f.s == nil {
		return EOF, badHandle("readchar")
	}

	b, ok := f.s.readByte()
	if !ok {
		return EOF, nil
	}

	return int(b), nil
}

// WriteChar writes c. It returns c as an int, or [EOF] on failure.
func (f *File) WriteChar(c byte) (int, error) {
	if f.s == nil {
		return EOF, badHandle("writechar")
	}

	if _, ok := f.s.write([]byte{c}); !ok {
		return EOF, nil
	}

	return int(c), nil
}

// ReadLine reads the next line, including its trailing newline, stopping
// early after maxLength-1 bytes. The second result is false when
// end-of-stream (or a failure) came before any byte was read.
//
// A maxLength of 1 returns an empty line without reading. Panics if
// maxLength < 1.
func (f *File) ReadLine(maxLength int) (string, bool, error) {
	if f.s == nil {
		return "", false, badHandle("readline")
	}

	if maxLength < 1 {
		panic(fmt.Sprintf("stdio: ReadLine: maxLength must be >= 1, got %d", maxLength))
	}

	limit := maxLength - 1
	if limit == 0 {
		return "", true, nil
	}

	if !f.s.beginRead() {
		return "", false, nil
	}

	line := make([]byte, 0, min(limit, 128))

	for len(line) < limit {
		b, err := f.s.r.ReadByte()
		if err != nil {
			f.s.noteReadErr(err)

			break
		}

		line = append(line, b)

		if b == '\n' {
			break
		}
	}

	if len(line) == 0 {
		return "", false, nil
	}

	return string(line), true, nil
}

// WriteLine writes text as-is; no newline is appended. It reports whether
// the whole text was accepted.
func (f *File) WriteLine(text string) (bool, error) {
	if f.s == nil {
		return false, badHandle("writeline")
	}

	if text == "" {
		return f.s.beginWrite(), nil
	}

	_, ok := f.s.write([]byte(text))

	return ok, nil
}

// Printf formats according to a [fmt] format specifier and writes the
// result. It reports whether the whole output was accepted.
//
// C directives are accepted too: %i and %u print as %d, and the length
// modifiers h, l, ll, L, j and z are ignored, so "%ld" and "%5.2lf" work.
// A verb that does not match its argument renders as %!verb(type=value).
func (f *File) Printf(format string, args ...any) (bool, error) {
	if f.s == nil {
		return false, badHandle("printf")
	}

	out := fmt.Sprintf(printfFormat(format), args...)
	if out == "" {
		return f.s.beginWrite(), nil
	}

	_, ok := f.s.write([]byte(out))

	return ok, nil
}

// Scanf scans text according to a C-style format, storing values into
// args, which must be pointers. It returns false only when end-of-stream or
// a read failure came before the first value was stored; input that does
// not match the format still returns true.
//
// Whitespace in the format matches any run of input whitespace, newlines
// included, and every conversion except %c skips leading whitespace. Each
// conversion is scanned with the matching [fmt] verb; %i also accepts 0x, 0o
// and 0b prefixes, %u scans as %d, length modifiers are ignored and %*d
// scans without storing. A non-pointer or unsupported argument stops the
// scan.
func (f *File) Scanf(format string, args ...any) (bool, error) {
	if f.s == nil {
		return false, badHandle("scanf")
	}

	if !f.s.beginRead() {
		return false, nil
	}

	src := &scanSource{s: f.s}

	stored, inputFailure := src.scanf(format, args)
	if stored == 0 && inputFailure {
		return false, nil
	}

	return true, nil
}

// scanSource feeds fmt's scanner from the stream's buffer and records read
// failures in the stream flags. It implements [io.RuneScanner], so fmt
// never reads past what it consumes.
type scanSource struct {
	s      *stream
	failed bool
}

func (src *scanSource) ReadRune() (rune, int, error) {
	r, size, err := src.s.r.ReadRune()
	if err != nil {
		src.s.noteReadErr(err)

		if !errors.Is(err, io.EOF) {
			src.failed = true
		}
	}

	return r, size, err
}

func (src *scanSource) UnreadRune() error {
	return src.s.r.UnreadRune()
}

func (src *scanSource) Read(p []byte) (int, error) {
	n, err := src.s.r.Read(p)
	if err != nil {
		src.s.noteReadErr(err)
	}

	return n, err
}

// Flush hands buffered output to the filesystem. On failure the error flag
// is set and the error returned. Flushing a stream that was last read from
// is a no-op.
func (f *File) Flush() error {
	if f.s == nil {
		return badHandle("flush")
	}

	if err := f.s.flushWriter(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	return nil
}
