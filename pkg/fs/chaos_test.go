package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

// =============================================================================
// Chaos FS Tests
//
// These tests verify Chaos fault injection and OS-like error semantics.
//
// Chaos never injects ENOENT: missing-path errors must come from the wrapped FS.
// =============================================================================

func writeOnce(fsys FS, path string, data []byte) (int, error) {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	n, writeErr := f.Write(data)

	closeErr := f.Close()

	return n, errors.Join(writeErr, closeErr)
}

func Test_Chaos_Passes_Through_When_Mode_Is_NoOp(t *testing.T) {
	t.Parallel()

	chaosFS := NewChaos(NewReal(), 12345, &ChaosConfig{
		ReadFailRate:   1.0,
		WriteFailRate:  1.0,
		OpenFailRate:   1.0,
		RemoveFailRate: 1.0,
	})
	chaosFS.SetMode(ChaosModeNoOp)

	path := filepath.Join(t.TempDir(), "test.txt")

	if _, err := writeOnce(chaosFS, path, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := chaosFS.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if got, want := string(got), "hello"; got != want {
		t.Fatalf("ReadFile=%q, want %q", got, want)
	}

	if got, want := chaosFS.TotalFaults(), int64(0); got != want {
		t.Fatalf("TotalFaults=%d, want %d", got, want)
	}
}

func Test_Chaos_Toggles_Injection_When_Mode_Changes(t *testing.T) {
	t.Parallel()

	chaosFS := NewChaos(NewReal(), 12345, &ChaosConfig{WriteFailRate: 1.0})
	dir := t.TempDir()

	// Active by default - should fail
	if _, err := writeOnce(chaosFS, filepath.Join(dir, "1.txt"), []byte("a")); err == nil {
		t.Fatalf("active: expected error")
	}

	chaosFS.SetMode(ChaosModeNoOp)

	if _, err := writeOnce(chaosFS, filepath.Join(dir, "2.txt"), []byte("b")); err != nil {
		t.Fatalf("noop: %v", err)
	}

	chaosFS.SetMode(ChaosModeActive)

	if _, err := writeOnce(chaosFS, filepath.Join(dir, "3.txt"), []byte("c")); err == nil {
		t.Fatalf("active again: expected error")
	}
}

func Test_Chaos_Injects_Write_Error_When_Write_Fail_Rate_Is_One(t *testing.T) {
	t.Parallel()

	chaosFS := NewChaos(NewReal(), 12345, &ChaosConfig{WriteFailRate: 1.0})
	path := filepath.Join(t.TempDir(), "test.txt")

	n, err := writeOnce(chaosFS, path, []byte("hello"))
	if err == nil {
		t.Fatalf("write unexpectedly succeeded")
	}

	if got, want := n, 0; got != want {
		t.Fatalf("n=%d, want %d", got, want)
	}

	if !IsChaosErr(err) {
		t.Fatalf("IsChaosErr(%v)=false, want true", err)
	}

	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("err should be *os.PathError, got %T (%v)", err, err)
	}

	for _, errno := range writeErrnos {
		if errors.Is(err, errno) {
			return
		}
	}

	t.Fatalf("err=%v, want one of %v", err, writeErrnos)
}

func Test_Chaos_Returns_Partial_Progress_When_Partial_Write_Rate_Is_One(t *testing.T) {
	t.Parallel()

	chaosFS := NewChaos(NewReal(), 7, &ChaosConfig{PartialWriteRate: 1.0})
	path := filepath.Join(t.TempDir(), "test.txt")

	n, err := writeOnce(chaosFS, path, []byte("hello world"))
	if err == nil {
		t.Fatalf("partial write returned nil error")
	}

	if n <= 0 || n >= len("hello world") {
		t.Fatalf("n=%d, want 0 < n < %d", n, len("hello world"))
	}

	got, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("ReadFile: %v", readErr)
	}

	if got, want := len(got), n; got != want {
		t.Fatalf("bytes on disk=%d, want %d", got, want)
	}
}

func Test_Chaos_Injects_EIO_When_Read_Fail_Rate_Is_One(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chaosFS := NewChaos(NewReal(), 1, &ChaosConfig{ReadFailRate: 1.0})

	f, err := chaosFS.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	defer f.Close()

	buf := make([]byte, 5)

	n, err := f.Read(buf)
	if !errors.Is(err, syscall.EIO) {
		t.Fatalf("err=%v, want EIO", err)
	}

	if got, want := n, 0; got != want {
		t.Fatalf("n=%d, want %d", got, want)
	}

	if got, want := chaosFS.Stats().ReadFails, int64(1); got != want {
		t.Fatalf("ReadFails=%d, want %d", got, want)
	}
}

func Test_Chaos_Limits_Underlying_Read_When_Partial_Read_Rate_Is_One(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.txt")

	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chaosFS := NewChaos(NewReal(), 3, &ChaosConfig{PartialReadRate: 1.0})

	f, err := chaosFS.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	defer f.Close()

	// ReadFull must still assemble the whole content from short reads.
	buf := make([]byte, 10)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}

	if got, want := string(buf), "0123456789"; got != want {
		t.Fatalf("content=%q, want %q", got, want)
	}

	if chaosFS.Stats().PartialReads == 0 {
		t.Fatalf("PartialReads=0, want > 0")
	}
}

func Test_Chaos_Never_Injects_ENOENT_When_Path_Is_Missing(t *testing.T) {
	t.Parallel()

	chaosFS := NewChaos(NewReal(), 99, &ChaosConfig{})

	_, err := chaosFS.OpenFile(filepath.Join(t.TempDir(), "missing"), os.O_RDONLY, 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v, want ErrNotExist", err)
	}

	if IsChaosErr(err) {
		t.Fatalf("missing-path error must come from the wrapped FS: %v", err)
	}
}

func Test_Chaos_Returns_LinkError_When_Replace_Fails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	chaosFS := NewChaos(NewReal(), 5, &ChaosConfig{ReplaceFailRate: 1.0})

	err := chaosFS.Replace(src, dst)

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		t.Fatalf("err=%v (%T), want *os.LinkError", err, err)
	}

	if got, want := linkErr.New, dst; got != want {
		t.Fatalf("LinkError.New=%q, want %q", got, want)
	}

	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatalf("dst should not exist after injected failure, stat err=%v", statErr)
	}
}

func Test_Chaos_Closes_Underlying_File_When_Close_Fails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.txt")
	chaosFS := NewChaos(NewReal(), 11, &ChaosConfig{CloseFailRate: 1.0})

	f, err := chaosFS.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}

	if err := f.Close(); !errors.Is(err, syscall.EIO) {
		t.Fatalf("Close err=%v, want EIO", err)
	}

	underlying := f.(*chaosFile).f
	if err := underlying.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second close of underlying=%v, want ErrClosed", err)
	}
}

func Test_Chaos_Produces_Same_Faults_When_Seed_Is_Same(t *testing.T) {
	t.Parallel()

	run := func(dir string) ChaosStats {
		chaosFS := NewChaos(NewReal(), 424242, &ChaosConfig{
			OpenFailRate:     0.2,
			WriteFailRate:    0.2,
			PartialWriteRate: 0.2,
			SyncFailRate:     0.2,
		})

		for i := range 50 {
			f, err := chaosFS.OpenFile(filepath.Join(dir, "f"), os.O_WRONLY|os.O_CREATE, 0o644)
			if err != nil {
				continue
			}

			_, _ = f.Write([]byte{byte(i), byte(i), byte(i)})
			_ = f.Sync()
			_ = f.Close()
		}

		return chaosFS.Stats()
	}

	first := run(t.TempDir())
	second := run(t.TempDir())

	if first != second {
		t.Fatalf("stats differ for equal seeds:\nfirst=%+v\nsecond=%+v", first, second)
	}

	if first == (ChaosStats{}) {
		t.Fatalf("no faults injected, rates too low for the test to mean anything")
	}
}

func Test_NewChaos_Panics_When_Config_Is_Nil(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("NewChaos(nil config) did not panic")
		}
	}()

	NewChaos(NewReal(), 1, nil)
}

func Test_Chaos_Fails_OpenTemp_When_Open_Fail_Rate_Is_One(t *testing.T) {
	t.Parallel()

	var fsys FS = NewChaos(NewMem(), 7, &ChaosConfig{OpenFailRate: 1.0})

	if _, err := fsys.OpenTemp("/tmp"); !IsChaosErr(err) {
		t.Fatalf("OpenTemp err=%v, want injected error", err)
	}

	if got, want := fsys.(*Chaos).Stats().OpenFails, int64(1); got != want {
		t.Fatalf("OpenFails=%d, want %d", got, want)
	}
}
