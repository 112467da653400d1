//go:build linux

package blkcopy

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-blkcopy/internal/logging"
)

// DeviceTarget is a raw block device opened for copy submissions.
type DeviceTarget struct {
	path string
	size int64

	fd     int
	closed bool
	mu     sync.Mutex

	verifyErrno atomic.Int32
}

// OpenTarget opens path and validates it as a raw block device. Any other
// file type is rejected with an invalid-target error before a single
// transfer can touch it; the already-opened fd is closed again on the way
// out.
func OpenTarget(path string) (*DeviceTarget, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, NewErrorWithErrno("OPEN", ErrCodeIOError, errnoOf(err))
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, NewErrorWithErrno("OPEN", ErrCodeIOError, errnoOf(err))
	}

	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		unix.Close(fd)
		logging.Default().WithTarget(path).Warn("rejecting non-block target",
			"mode", st.Mode&unix.S_IFMT)
		return nil, NewErrorWithErrno("OPEN", ErrCodeInvalidTarget, unix.EINVAL)
	}

	size, err := blockDeviceSize(fd)
	if err != nil {
		unix.Close(fd)
		return nil, NewErrorWithErrno("OPEN", ErrCodeIOError, errnoOf(err))
	}

	logging.Default().WithTarget(path).Debug("target opened", "size", size)

	return &DeviceTarget{
		path: path,
		size: size,
		fd:   fd,
	}, nil
}

// blockDeviceSize queries the device size via BLKGETSIZE64.
func blockDeviceSize(fd int) (int64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd),
		unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return int64(size), nil
}

// ReadAt implements Target via pread.
func (t *DeviceTarget) ReadAt(p []byte, off int64) (int, error) {
	return unix.Pread(t.fd, p, off)
}

// WriteAt implements Target via pwrite.
func (t *DeviceTarget) WriteAt(p []byte, off int64) (int, error) {
	return unix.Pwrite(t.fd, p, off)
}

// Size implements Target.
func (t *DeviceTarget) Size() int64 {
	return t.size
}

// Close implements Target. Idempotent.
func (t *DeviceTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return unix.Close(t.fd)
}

// Fd implements RawTarget.
func (t *DeviceTarget) Fd() uintptr {
	return uintptr(t.fd)
}

// Path returns the device path the target was opened from.
func (t *DeviceTarget) Path() string {
	return t.path
}

// RecordIOError implements ErrorRecorder. Only the first errno is kept.
func (t *DeviceTarget) RecordIOError(errno unix.Errno) {
	t.verifyErrno.CompareAndSwap(0, int32(errno))
}

// VerifyError implements ErrorRecorder.
func (t *DeviceTarget) VerifyError() unix.Errno {
	return unix.Errno(t.verifyErrno.Load())
}

// Compile-time interface checks
var (
	_ Target        = (*DeviceTarget)(nil)
	_ RawTarget     = (*DeviceTarget)(nil)
	_ ErrorRecorder = (*DeviceTarget)(nil)
)
