package stdio

import (
	"fmt"
	"os"
)

// Mode is a parsed access mode.
//
// The vocabulary is the conventional one: a leading r, w or a, followed by
// any combination of '+' (update), 'b' (binary) and 'x' (exclusive create,
// w only), each at most once.
//
//	r    read; the file must exist
//	w    write; create or truncate
//	a    append; create if missing, every write lands at the end
//	r+   read and write; the file must exist
//	w+   read and write; create or truncate
//	a+   read and append; reads start at offset 0
//
// Text and binary modes behave identically; 'b' is accepted and recorded.
type Mode struct {
	raw string

	read      bool
	write     bool
	append    bool
	truncate  bool
	create    bool
	exclusive bool
	binary    bool
}

// ParseMode parses a mode string. The returned error wraps [ErrInvalidMode].
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Mode{}, fmt.Errorf("%w: empty", ErrInvalidMode)
	}

	m := Mode{raw: s}

	switch s[0] {
	case 'r':
		m.read = true
	case 'w':
		m.write, m.create, m.truncate = true, true, true
	case 'a':
		m.write, m.create, m.append = true, true, true
	default:
		return Mode{}, fmt.Errorf("%w: %q must start with r, w or a", ErrInvalidMode, s)
	}

	var update bool

	for _, c := range s[1:] {
		switch {
		case c == '+' && !update:
			update = true
		case c == 'b' && !m.binary:
			m.binary = true
		case c == 'x' && !m.exclusive && s[0] == 'w':
			m.exclusive = true
		default:
			return Mode{}, fmt.Errorf("%w: %q", ErrInvalidMode, s)
		}
	}

	if update {
		m.read, m.write = true, true
	}

	return m, nil
}

// MustParseMode is like [ParseMode] but panics on error.
func MustParseMode(s string) Mode {
	m, err := ParseMode(s)
	if err != nil {
		panic(err)
	}

	return m
}

// String returns the mode string as given to [ParseMode].
func (m Mode) String() string { return m.raw }

// CanRead reports whether the mode permits reading.
func (m Mode) CanRead() bool { return m.read }

// CanWrite reports whether the mode permits writing.
func (m Mode) CanWrite() bool { return m.write }

// Append reports whether every write lands at the end of the file.
func (m Mode) Append() bool { return m.append }

// Binary reports whether 'b' was given.
func (m Mode) Binary() bool { return m.binary }

// Truncate reports whether opening discards existing content.
func (m Mode) Truncate() bool { return m.truncate }

// flags returns the [os.OpenFile] flags for the mode.
func (m Mode) flags() int {
	var flag int

	switch {
	case m.read && m.write:
		flag = os.O_RDWR
	case m.write:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}

	if m.create {
		flag |= os.O_CREATE
	}

	if m.truncate {
		flag |= os.O_TRUNC
	}

	if m.append {
		flag |= os.O_APPEND
	}

	if m.exclusive {
		flag |= os.O_EXCL
	}

	return flag
}
