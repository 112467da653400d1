//go:build linux

package blkdev

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-blkcopy/internal/uapi"
)

// Copy issues one BLKCOPY ioctl carrying the whole marshaled copy_range
// payload. The payload buffer is written back by the kernel (comp_len per
// entry), so callers unmarshal completions from it afterwards.
//
// Return value convention: 0 on success, -1 with errno on hard failure, or
// a positive count signaling that part of the batch failed.
func Copy(fd uintptr, payload []byte) Result {
	ret, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uapi.BLKCOPY,
		uintptr(unsafe.Pointer(&payload[0])))
	runtime.KeepAlive(payload)

	switch {
	case errno != 0:
		return Result{Status: StatusError, Errno: errno}
	case int64(ret) > 0:
		// Errno is not set by the kernel for this case on all drivers;
		// Normalize supplies EIO when it is missing.
		return Result{Status: StatusAmbiguousPartial}
	default:
		return Result{Status: StatusOK}
	}
}
