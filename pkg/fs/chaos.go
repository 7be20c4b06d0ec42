package fs

import (
	"errors"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// ChaosConfig controls fault injection probabilities.
// Each rate is a float64 from 0.0 (never) to 1.0 (always).
//
// The zero value disables all fault injection. Partially initialized configs
// only inject faults for the specified rates; unset fields default to 0.0.
type ChaosConfig struct {
	// OpenFailRate controls how often FS.OpenFile and FS.OpenTemp fail.
	// For read-only opens: EACCES, EIO, EMFILE, ENFILE. For write opens:
	// adds ENOSPC, EDQUOT, EROFS.
	OpenFailRate float64

	// ReadFailRate controls how often File.Read and FS.ReadFile fail entirely,
	// returning zero bytes and EIO.
	ReadFailRate float64

	// PartialReadRate controls how often File.Read returns a short read
	// (n < len(p), err == nil). This is valid io.Reader behavior, not an
	// error, and tests that callers loop until they have what they need.
	PartialReadRate float64

	// WriteFailRate controls how often File.Write fails entirely, writing zero
	// bytes and returning EIO, ENOSPC, EDQUOT, or EROFS.
	WriteFailRate float64

	// PartialWriteRate controls how often File.Write writes only some bytes
	// before failing. Returns n > 0 along with an error.
	PartialWriteRate float64

	// ShortWriteRate is the fraction of partial writes that return
	// io.ErrShortWrite instead of an errno.
	ShortWriteRate float64

	// SeekFailRate controls how often File.Seek fails, returning position 0
	// and EIO.
	SeekFailRate float64

	// SyncFailRate controls how often File.Sync fails with EIO, ENOSPC,
	// EDQUOT, or EROFS.
	SyncFailRate float64

	// CloseFailRate controls how often File.Close reports EIO. The underlying
	// file is always closed, even when an error is returned.
	CloseFailRate float64

	// RemoveFailRate controls how often FS.Remove fails with EACCES, EPERM,
	// EBUSY, EIO, or EROFS.
	RemoveFailRate float64

	// ReplaceFailRate controls how often FS.Replace fails. Returns an
	// *os.LinkError with EACCES, EIO, ENOSPC, EXDEV, EROFS, or EPERM.
	ReplaceFailRate float64
}

// ChaosMode controls how [Chaos] behaves.
type ChaosMode uint8

const (
	// ChaosModeActive enables fault-rate injection.
	// This is the default mode for a new [Chaos].
	ChaosModeActive ChaosMode = iota

	// ChaosModeNoOp passes every operation directly to the underlying FS.
	ChaosModeNoOp
)

// ChaosStats contains counts of injected faults.
type ChaosStats struct {
	OpenFails     int64
	ReadFails     int64
	PartialReads  int64
	WriteFails    int64
	PartialWrites int64
	SeekFails     int64
	SyncFails     int64
	CloseFails    int64
	RemoveFails   int64
	ReplaceFails  int64
}

// chaosError marks an error as intentionally injected by [Chaos].
//
// It wraps the underlying error so errors.Is/As continue to work.
type chaosError struct {
	Err error
}

func (e *chaosError) Error() string {
	return "chaos: " + e.Err.Error()
}

func (e *chaosError) Unwrap() error {
	return e.Err
}

// IsChaosErr reports whether err (or any wrapped error) was injected by [Chaos].
// Returns false if err is nil.
func IsChaosErr(err error) bool {
	var injected *chaosError

	return errors.As(err, &injected)
}

// Chaos wraps an [FS] and injects random failures for testing.
//
// Injected filesystem errors are returned as an [*fs.PathError] (or
// [*os.LinkError] for Replace) with a real [syscall.Errno], so [errors.Is]
// and helpers like [os.IsPermission] behave like real OS errors. Chaos never
// injects ENOENT; any os.IsNotExist result originates from the wrapped [FS].
//
// Return-shape constraints follow os.File on Unix-ish systems:
//   - File.Read failures return n==0 with a non-nil error.
//   - File.Write may return n>0 with a non-nil error (partial progress).
//   - File.Seek failures return pos==0 with a non-nil error.
//   - File.Close failures still close the underlying file.
//
// A given seed always produces the same sequence of decisions for the same
// sequence of calls.
type Chaos struct {
	fs     FS
	rng    *rand.Rand
	config ChaosConfig
	mode   atomic.Uint32

	rngMu sync.Mutex

	openFails     atomic.Int64
	readFails     atomic.Int64
	partialReads  atomic.Int64
	writeFails    atomic.Int64
	partialWrites atomic.Int64
	seekFails     atomic.Int64
	syncFails     atomic.Int64
	closeFails    atomic.Int64
	removeFails   atomic.Int64
	replaceFails  atomic.Int64
}

// NewChaos creates a new [Chaos] filesystem wrapping the given [FS].
// The seed controls random fault injection for reproducibility.
// Panics if underlying or config is nil.
func NewChaos(underlying FS, seed int64, config *ChaosConfig) *Chaos {
	if underlying == nil {
		panic("underlying fs is nil")
	}

	if config == nil {
		panic("chaos config is nil")
	}

	return &Chaos{
		fs:     underlying,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
		config: *config,
	}
}

// SetMode switches between injecting faults and passing through.
// Safe to call concurrently with filesystem operations.
func (c *Chaos) SetMode(m ChaosMode) { c.mode.Store(uint32(m)) }

// Stats returns the current fault injection counts.
func (c *Chaos) Stats() ChaosStats {
	return ChaosStats{
		OpenFails:     c.openFails.Load(),
		ReadFails:     c.readFails.Load(),
		PartialReads:  c.partialReads.Load(),
		WriteFails:    c.writeFails.Load(),
		PartialWrites: c.partialWrites.Load(),
		SeekFails:     c.seekFails.Load(),
		SyncFails:     c.syncFails.Load(),
		CloseFails:    c.closeFails.Load(),
		RemoveFails:   c.removeFails.Load(),
		ReplaceFails:  c.replaceFails.Load(),
	}
}

// TotalFaults returns the total number of injected faults.
func (c *Chaos) TotalFaults() int64 {
	s := c.Stats()

	return s.OpenFails + s.ReadFails + s.PartialReads + s.WriteFails + s.PartialWrites +
		s.SeekFails + s.SyncFails + s.CloseFails + s.RemoveFails + s.ReplaceFails
}

// OpenFile opens a file with fault injection.
func (c *Chaos) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	op := chaosOpOpen
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		op = chaosOpCreate
	}

	return c.openWithChaos(path, op, func() (File, error) {
		return c.fs.OpenFile(path, flag, perm)
	})
}

// OpenTemp creates an anonymous temp file with fault injection.
func (c *Chaos) OpenTemp(dir string) (File, error) {
	return c.openWithChaos(dir, chaosOpCreate, func() (File, error) {
		return c.fs.OpenTemp(dir)
	})
}

// ReadFile reads a file's contents with fault injection.
func (c *Chaos) ReadFile(path string) ([]byte, error) {
	mode := c.getMode()
	if c.should(mode, c.config.ReadFailRate) {
		c.readFails.Add(1)

		return nil, pathError("read", path, syscall.EIO)
	}

	return c.fs.ReadFile(path)
}

// Stat is a passthrough; Chaos does not inject path stat failures.
func (c *Chaos) Stat(path string) (os.FileInfo, error) {
	return c.fs.Stat(path)
}

// Remove removes a file with fault injection.
func (c *Chaos) Remove(path string) error {
	mode := c.getMode()
	if c.should(mode, c.config.RemoveFailRate) {
		c.removeFails.Add(1)

		return pathError("remove", path, c.pickRandom([]syscall.Errno{
			syscall.EACCES, syscall.EPERM, syscall.EBUSY, syscall.EIO, syscall.EROFS,
		}))
	}

	return c.fs.Remove(path)
}

// Replace replaces dst with src with fault injection.
func (c *Chaos) Replace(src, dst string) error {
	mode := c.getMode()
	if c.should(mode, c.config.ReplaceFailRate) {
		c.replaceFails.Add(1)

		le := &os.LinkError{Op: "rename", Old: src, New: dst, Err: c.pickRandom([]syscall.Errno{
			syscall.EACCES, syscall.EIO, syscall.ENOSPC, syscall.EXDEV, syscall.EROFS, syscall.EPERM,
		})}

		return &chaosError{Err: le}
	}

	return c.fs.Replace(src, dst)
}

// getMode returns the current ChaosMode safely.
func (c *Chaos) getMode() ChaosMode {
	v := c.mode.Load()
	if v > uint32(ChaosModeNoOp) {
		return ChaosModeActive
	}

	return ChaosMode(v)
}

const (
	chaosOpOpen   = "open"
	chaosOpCreate = "create"
)

// openWithChaos wraps file-open operations with fault injection.
// The op parameter selects the errno set. Successful opens are wrapped so
// later reads and writes on the handle are subject to injection too.
func (c *Chaos) openWithChaos(path, op string, openFn func() (File, error)) (File, error) {
	mode := c.getMode()
	if c.should(mode, c.config.OpenFailRate) {
		c.openFails.Add(1)

		return nil, pathError("open", path, c.pickOpenError(op))
	}

	file, err := openFn()
	if err != nil {
		return nil, err
	}

	return &chaosFile{f: file, chaos: c, path: path}, nil
}

func (c *Chaos) pickOpenError(op string) syscall.Errno {
	// EACCES: permission denied
	// EIO: I/O error
	// EMFILE/ENFILE: per-process / system-wide descriptor limits
	errnos := []syscall.Errno{syscall.EACCES, syscall.EIO, syscall.EMFILE, syscall.ENFILE}

	if op == chaosOpCreate {
		// ENOSPC/EDQUOT: out of space or quota
		// EROFS: read-only filesystem
		errnos = append(errnos, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS)
	}

	return c.pickRandom(errnos)
}

// should returns true with the given probability when chaos is injecting.
func (c *Chaos) should(mode ChaosMode, rate float64) bool {
	if mode != ChaosModeActive || rate <= 0 {
		return false
	}

	return c.randFloat() < rate
}

// randFloat returns a random float64 in [0.0, 1.0) (thread-safe).
func (c *Chaos) randFloat() float64 {
	c.rngMu.Lock()
	result := c.rng.Float64()
	c.rngMu.Unlock()

	return result
}

// randIntn returns a random int in [0, n) (thread-safe).
func (c *Chaos) randIntn(n int) int {
	c.rngMu.Lock()
	result := c.rng.IntN(n)
	c.rngMu.Unlock()

	return result
}

func (c *Chaos) pickRandom(errs []syscall.Errno) syscall.Errno {
	return errs[c.randIntn(len(errs))]
}

// pathError creates an injected [*fs.PathError] with the given operation, path, and errno.
func pathError(op, path string, errno syscall.Errno) error {
	return &chaosError{Err: &fs.PathError{Op: op, Path: path, Err: errno}}
}

// writeErrnos are the errnos a write or sync may fail with after open.
var writeErrnos = []syscall.Errno{syscall.EIO, syscall.ENOSPC, syscall.EDQUOT, syscall.EROFS}

// chaosFile wraps a [File] and injects faults on handle operations.
type chaosFile struct {
	f     File
	chaos *Chaos
	path  string
}

func (cf *chaosFile) Read(buf []byte) (int, error) {
	mode := cf.chaos.getMode()

	if cf.chaos.should(mode, cf.chaos.config.ReadFailRate) {
		cf.chaos.readFails.Add(1)

		return 0, pathError("read", cf.path, syscall.EIO)
	}

	// Short read must limit the underlying read, not just shrink the returned
	// count, otherwise the offset advances past bytes the caller never saw.
	if cf.chaos.should(mode, cf.chaos.config.PartialReadRate) && len(buf) > 1 {
		cf.chaos.partialReads.Add(1)
		cutoff := cf.chaos.randIntn(len(buf)-1) + 1

		return cf.f.Read(buf[:cutoff])
	}

	return cf.f.Read(buf)
}

func (cf *chaosFile) Write(data []byte) (int, error) {
	mode := cf.chaos.getMode()

	if cf.chaos.should(mode, cf.chaos.config.WriteFailRate) {
		cf.chaos.writeFails.Add(1)

		return 0, pathError("write", cf.path, cf.chaos.pickRandom(writeErrnos))
	}

	if cf.chaos.should(mode, cf.chaos.config.PartialWriteRate) && len(data) > 1 {
		cf.chaos.partialWrites.Add(1)
		cutoff := cf.chaos.randIntn(len(data)-1) + 1

		wrote, err := cf.f.Write(data[:cutoff])
		if err != nil {
			return wrote, err
		}

		if cf.chaos.randFloat() < cf.chaos.config.ShortWriteRate {
			return wrote, &chaosError{Err: io.ErrShortWrite}
		}

		return wrote, pathError("write", cf.path, cf.chaos.pickRandom(writeErrnos))
	}

	return cf.f.Write(data)
}

func (cf *chaosFile) Seek(offset int64, whence int) (int64, error) {
	mode := cf.chaos.getMode()

	if cf.chaos.should(mode, cf.chaos.config.SeekFailRate) {
		cf.chaos.seekFails.Add(1)

		return 0, pathError("seek", cf.path, syscall.EIO)
	}

	return cf.f.Seek(offset, whence)
}

func (cf *chaosFile) Sync() error {
	mode := cf.chaos.getMode()

	if cf.chaos.should(mode, cf.chaos.config.SyncFailRate) {
		cf.chaos.syncFails.Add(1)

		return pathError("sync", cf.path, cf.chaos.pickRandom(writeErrnos))
	}

	return cf.f.Sync()
}

func (cf *chaosFile) Close() error {
	inject := cf.chaos.should(cf.chaos.getMode(), cf.chaos.config.CloseFailRate)

	// Always close the underlying file to avoid descriptor leaks.
	err := cf.f.Close()
	if err != nil {
		return err
	}

	if inject {
		cf.chaos.closeFails.Add(1)

		return pathError("close", cf.path, syscall.EIO)
	}

	return nil
}

func (cf *chaosFile) Name() string {
	return cf.f.Name()
}

func (cf *chaosFile) Stat() (os.FileInfo, error) {
	return cf.f.Stat()
}

// Compile-time interface checks.
var (
	_ FS   = (*Chaos)(nil)
	_ File = (*chaosFile)(nil)
)

