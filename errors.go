package blkcopy

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Error is a structured engine error with operation context and errno mapping
type Error struct {
	Op      string        // Operation that failed (e.g., "PREP", "BLKCOPY", "READ")
	Entry   int           // Range entry index (-1 if not applicable)
	Code    ErrorCode     // High-level error category
	Errno   syscall.Errno // Kernel errno (0 if not applicable)
	Written uint64        // Bytes durably copied for partial-write errors
	Msg     string        // Human-readable message
	Inner   error         // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Entry >= 0 {
		parts = append(parts, fmt.Sprintf("entry=%d", e.Entry))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", int(e.Errno)))
	}
	if e.Code == ErrCodePartialWrite {
		parts = append(parts, fmt.Sprintf("written=%d", e.Written))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("blkcopy: %s (%s)", msg, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("blkcopy: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches two structured errors by category
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodeInvalidTarget      ErrorCode = "target is not a block device"
	ErrCodeInvalidParameters  ErrorCode = "invalid parameters"
	ErrCodeNotInitialized     ErrorCode = "engine not initialized"
	ErrCodeOffloadFailed      ErrorCode = "copy offload failed"
	ErrCodeOffloadUnsupported ErrorCode = "target does not support copy offload"
	ErrCodeReadFailed         ErrorCode = "range read failed"
	ErrCodeWriteFailed        ErrorCode = "range write failed"
	ErrCodePartialWrite       ErrorCode = "range partially written"
	ErrCodeShortRead          ErrorCode = "short read on fixed-size range"
	ErrCodeIOError            ErrorCode = "I/O error"
)

// Error constructors

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:    op,
		Entry: -1,
		Code:  code,
		Msg:   msg,
	}
}

// NewErrorWithErrno creates a new structured error with errno
func NewErrorWithErrno(op string, code ErrorCode, errno syscall.Errno) *Error {
	return &Error{
		Op:    op,
		Entry: -1,
		Code:  code,
		Errno: errno,
		Msg:   errno.Error(),
		Inner: errno,
	}
}

// NewEntryError creates an error tied to one range entry of a submission
func NewEntryError(op string, entry int, code ErrorCode, inner error) *Error {
	return &Error{
		Op:    op,
		Entry: entry,
		Code:  code,
		Errno: errnoOf(inner),
		Msg:   code.message(inner),
		Inner: inner,
	}
}

// NewPartialWriteError reports a short write: written bytes reached the
// device, the rest of the entry and all later entries did not.
func NewPartialWriteError(entry int, written uint64, inner error) *Error {
	return &Error{
		Op:      "WRITE",
		Entry:   entry,
		Code:    ErrCodePartialWrite,
		Errno:   errnoOf(inner),
		Written: written,
		Msg:     string(ErrCodePartialWrite),
		Inner:   inner,
	}
}

func (c ErrorCode) message(inner error) string {
	if inner != nil {
		return inner.Error()
	}
	return string(c)
}

// errnoOf extracts a syscall errno from an arbitrary error chain
func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific errno
func IsErrno(err error, errno syscall.Errno) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Errno == errno
	}
	return false
}
