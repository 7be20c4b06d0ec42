package stdio

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/calvinalkan/stdiofile/pkg/fs"
)

// Buffering selects when buffered output is handed to the filesystem.
type Buffering uint8

const (
	// BufferFull hands output over when the buffer fills, on Flush, on a
	// seek, and on Close. This is the default.
	BufferFull Buffering = iota

	// BufferLine additionally hands output over after every write that
	// contains a newline.
	BufferLine

	// BufferNone hands output over at the end of every write call.
	BufferNone
)

func (b Buffering) String() string {
	switch b {
	case BufferFull:
		return "full"
	case BufferLine:
		return "line"
	case BufferNone:
		return "none"
	default:
		return "unknown"
	}
}

// DefaultBufferSize is the buffer size used when none is configured.
const DefaultBufferSize = 8192

// minBufferSize is the smallest buffer bufio accepts without substituting its own default.
const minBufferSize = 16

// defaultPerm is the permission for newly created files (before umask).
const defaultPerm os.FileMode = 0o666

// Options configures how a [File] opens and buffers its handle.
// The zero value is usable: real filesystem, full buffering of
// [DefaultBufferSize] bytes, mode 0666 for created files, no logging.
type Options struct {
	// FS is the filesystem handles are opened on. Default: [fs.NewReal].
	FS fs.FS

	// Perm is the permission for files created by w/a modes (before umask).
	// Default: 0666.
	Perm os.FileMode

	// TempDir is the directory for anonymous temporary files. Empty means
	// the OS default. Atomic staging files always live next to their target.
	TempDir string

	// BufferSize is the stream buffer size in bytes. Default: [DefaultBufferSize].
	BufferSize int

	// Buffering is the output buffering policy. Default: [BufferFull].
	Buffering Buffering

	// Atomic makes truncating write modes (w, w+, wx) stage output in a
	// sibling file that replaces the target on Close or Reopen. Readers of
	// the target see either the old or the complete new content. If the
	// stream recorded an error, the staged file is discarded instead.
	// Ignored for r and a modes.
	Atomic bool

	// Logger receives debug events for handle lifecycle changes.
	// Default: disabled.
	Logger *zerolog.Logger
}

// Option mutates [Options].
type Option func(*Options)

// WithFS sets the filesystem handles are opened on.
func WithFS(fsys fs.FS) Option {
	return func(o *Options) { o.FS = fsys }
}

// WithPerm sets the permission for created files.
func WithPerm(perm os.FileMode) Option {
	return func(o *Options) { o.Perm = perm }
}

// WithTempDir sets the directory for temporary files.
func WithTempDir(dir string) Option {
	return func(o *Options) { o.TempDir = dir }
}

// WithBuffering sets the output buffering policy and buffer size.
// A size <= 0 keeps the current size.
func WithBuffering(b Buffering, size int) Option {
	return func(o *Options) {
		o.Buffering = b
		if size > 0 {
			o.BufferSize = size
		}
	}
}

// WithAtomic enables atomic replacement for truncating write modes.
func WithAtomic() Option {
	return func(o *Options) { o.Atomic = true }
}

// WithLogger sets the lifecycle logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = &l }
}

// WithOptions replaces all options with o.
func WithOptions(o Options) Option {
	return func(dst *Options) { *dst = o }
}

func buildOptions(opts []Option) Options {
	var o Options

	for _, opt := range opts {
		opt(&o)
	}

	return o.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.FS == nil {
		o.FS = fs.NewReal()
	}

	if o.Perm == 0 {
		o.Perm = defaultPerm
	}

	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}

	if o.BufferSize < minBufferSize {
		o.BufferSize = minBufferSize
	}

	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}

	return o
}
