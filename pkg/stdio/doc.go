// Package stdio provides an exclusively owned, buffered file stream.
//
// A [File] wraps one handle from an [fs.FS] and offers element, byte, line,
// and formatted I/O on top of it, with a single logical cursor shared by
// reads and writes.
//
// # Basic Usage
//
//	f, err := stdio.Open("records.bin", "w+b")
//	if err != nil {
//	    return err // *stdio.OpenError
//	}
//	defer f.Close()
//
//	// Write five 4-byte records, then read them back.
//	f.Write(buf, 4, 5)
//	f.Rewind()
//	n, _ := f.Read(buf, 4, 5)
//
//	// Text I/O
//	f.Printf("%d %s\n", 42, "gopher")
//	line, ok, _ := f.ReadLine(256)
//
// # Error Handling
//
// Errors fall into three categories:
//
// Open failures: [Open], [OpenTemp], [File.Open], [File.OpenTemp] and
// [File.Reopen] return an [*OpenError] whose Err holds the OS cause.
//
// Bad handles ([ErrBadHandle]): any operation on a closed File. This is a
// programming error.
//
// Stream state: data transfer never returns I/O errors. Short counts, [EOF]
// and false results are normal; the sticky flags ([File.AtEOF],
// [File.HasError]) say why, and [File.Err] holds the cause until
// [File.ClearFlags] or [File.Rewind].
//
// # Durability
//
// With [WithAtomic], truncating write modes stage output in a sibling file
// that is synced and moved over the target on Close, so readers never see a
// partially written file.
//
// [fs.FS]: github.com/calvinalkan/stdiofile/pkg/fs.FS
package stdio
