//go:build !linux

package blkdev

import "syscall"

// Copy is unsupported off Linux; hardware offload always reports ENOTSUP
// so callers fall back to emulation.
func Copy(fd uintptr, payload []byte) Result {
	return Result{Status: StatusError, Errno: syscall.ENOTSUP}
}
