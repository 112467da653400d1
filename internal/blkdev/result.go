// Package blkdev wraps the BLKCOPY device-control call. The kernel's
// convention of returning a positive value to signal a partially failed
// batch is an external-ABI quirk; it is modeled as a tagged result here and
// normalized exactly once, so the rest of the engine only ever sees success
// or an errno.
package blkdev

import "syscall"

// Status tags the outcome of a device-control call.
type Status int

const (
	// StatusOK means the kernel accepted and completed the whole batch.
	StatusOK Status = iota
	// StatusError means the call failed outright with an errno.
	StatusError
	// StatusAmbiguousPartial means the call returned a positive value:
	// some ranges may have completed, some not. The driver does not say
	// which, so this is surfaced as an error.
	StatusAmbiguousPartial
)

// Result is the tagged outcome of one BLKCOPY call.
type Result struct {
	Status Status
	Errno  syscall.Errno // valid for StatusError and StatusAmbiguousPartial
}

// Normalize collapses the ambiguous-partial case into a hard error, per the
// engine's contract that a positive kernel return must never surface as
// success. A missing errno defaults to EIO.
func (r Result) Normalize() Result {
	if r.Status != StatusAmbiguousPartial {
		return r
	}

	errno := r.Errno
	if errno == 0 {
		errno = syscall.EIO
	}
	return Result{Status: StatusError, Errno: errno}
}

// Err returns the result as a plain error, nil on success.
func (r Result) Err() error {
	switch r.Status {
	case StatusOK:
		return nil
	default:
		errno := r.Errno
		if errno == 0 {
			errno = syscall.EIO
		}
		return errno
	}
}
