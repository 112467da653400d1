package blkdev

import (
	"syscall"
	"testing"
)

func TestNormalizeOK(t *testing.T) {
	r := Result{Status: StatusOK}.Normalize()
	if r.Status != StatusOK {
		t.Errorf("Status = %v, want StatusOK", r.Status)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNormalizeError(t *testing.T) {
	r := Result{Status: StatusError, Errno: syscall.ENOSPC}.Normalize()
	if r.Status != StatusError || r.Errno != syscall.ENOSPC {
		t.Errorf("got %+v, want ENOSPC error", r)
	}
}

func TestNormalizeAmbiguousPartial(t *testing.T) {
	// A positive kernel return with errno set keeps that errno.
	r := Result{Status: StatusAmbiguousPartial, Errno: syscall.EREMOTEIO}.Normalize()
	if r.Status != StatusError {
		t.Errorf("Status = %v, want StatusError", r.Status)
	}
	if r.Errno != syscall.EREMOTEIO {
		t.Errorf("Errno = %v, want EREMOTEIO", r.Errno)
	}

	// Without an errno the default is EIO, never success.
	r = Result{Status: StatusAmbiguousPartial}.Normalize()
	if r.Status != StatusError || r.Errno != syscall.EIO {
		t.Errorf("got %+v, want EIO error", r)
	}
}

func TestErrDefaultsToEIO(t *testing.T) {
	r := Result{Status: StatusError}
	if r.Err() != syscall.EIO {
		t.Errorf("Err() = %v, want EIO", r.Err())
	}
}
