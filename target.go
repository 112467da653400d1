package blkcopy

import "syscall"

// Target is the device a submission copies within. Source and destination
// offsets of every range refer to the same target; cross-device copy is out
// of scope.
//
// The interface is intentionally shaped like io.ReaderAt/io.WriterAt so an
// in-memory implementation can stand in for a real device under test.
type Target interface {
	// ReadAt reads len(p) bytes into p starting at offset off.
	// Implementations must not retain p.
	ReadAt(p []byte, off int64) (n int, err error)

	// WriteAt writes len(p) bytes from p at offset off.
	// A short write may be reported either as (n, err) or as (n, nil)
	// with n < len(p); the engine handles both.
	WriteAt(p []byte, off int64) (n int, err error)

	// Size returns the target size in bytes.
	Size() int64

	// Close releases the target. Must be idempotent.
	Close() error
}

// RawTarget is implemented by targets backed by a real file descriptor.
// The hardware offload path needs the fd to issue the device-control call;
// a target without one can only be driven through emulation.
type RawTarget interface {
	Target

	// Fd returns the underlying file descriptor.
	Fd() uintptr
}

// ErrorRecorder is an optional interface for targets that keep host-level
// error bookkeeping. The engine records the first errno of every failed
// submission on the target, so the host can tell after the fact whether a
// device saw a verified I/O error.
type ErrorRecorder interface {
	Target

	// RecordIOError notes a transfer error against the target.
	RecordIOError(errno syscall.Errno)

	// VerifyError returns the first recorded errno, 0 if none.
	VerifyError() syscall.Errno
}

// recordTargetError flags the target when it supports bookkeeping.
func recordTargetError(t Target, errno syscall.Errno) {
	if rec, ok := t.(ErrorRecorder); ok {
		rec.RecordIOError(errno)
	}
}
