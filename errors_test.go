package blkcopy

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError("PREP", ErrCodeInvalidParameters, "buffer not a multiple of entry size")
	msg := err.Error()
	if !strings.Contains(msg, "op=PREP") {
		t.Errorf("missing op in %q", msg)
	}
	if !strings.Contains(msg, "buffer not a multiple of entry size") {
		t.Errorf("missing message in %q", msg)
	}
	if strings.Contains(msg, "entry=") {
		t.Errorf("entry index should be omitted in %q", msg)
	}
}

func TestEntryErrorCarriesIndexAndErrno(t *testing.T) {
	err := NewEntryError("READ", 3, ErrCodeReadFailed, syscall.EIO)
	if err.Entry != 3 {
		t.Errorf("entry = %d, want 3", err.Entry)
	}
	if err.Errno != syscall.EIO {
		t.Errorf("errno = %v, want EIO", err.Errno)
	}
	if !strings.Contains(err.Error(), "entry=3") {
		t.Errorf("missing entry index in %q", err.Error())
	}
	if !errors.Is(err, syscall.EIO) {
		t.Error("should unwrap to the errno")
	}
}

func TestPartialWriteErrorReportsWritten(t *testing.T) {
	err := NewPartialWriteError(1, 2048, nil)
	if err.Written != 2048 {
		t.Errorf("written = %d, want 2048", err.Written)
	}
	if !strings.Contains(err.Error(), "written=2048") {
		t.Errorf("missing written count in %q", err.Error())
	}
	if !IsCode(err, ErrCodePartialWrite) {
		t.Error("IsCode(ErrCodePartialWrite) should match")
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewError("SUBMIT", ErrCodeOffloadFailed, "first")
	b := NewError("BLKCOPY", ErrCodeOffloadFailed, "second")
	if !errors.Is(a, b) {
		t.Error("same code should match")
	}
	c := NewError("SUBMIT", ErrCodeReadFailed, "other")
	if errors.Is(a, c) {
		t.Error("different codes should not match")
	}
}

func TestErrnoExtractionThroughWrapping(t *testing.T) {
	inner := fmt.Errorf("pread: %w", syscall.ENOSPC)
	err := NewEntryError("READ", 0, ErrCodeReadFailed, inner)
	if err.Errno != syscall.ENOSPC {
		t.Errorf("errno = %v, want ENOSPC", err.Errno)
	}
	if !IsErrno(err, syscall.ENOSPC) {
		t.Error("IsErrno(ENOSPC) should match")
	}
}

func TestIsCodeOnForeignError(t *testing.T) {
	if IsCode(errors.New("plain"), ErrCodeIOError) {
		t.Error("plain errors should not match any code")
	}
	if IsCode(nil, ErrCodeIOError) {
		t.Error("nil should not match any code")
	}
}
