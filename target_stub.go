//go:build !linux

package blkcopy

import "syscall"

// DeviceTarget requires Linux block-device ioctls.
type DeviceTarget struct{}

// OpenTarget always fails off Linux; use a MockTarget for tests.
func OpenTarget(path string) (*DeviceTarget, error) {
	return nil, NewErrorWithErrno("OPEN", ErrCodeInvalidTarget, syscall.ENOTSUP)
}

func (t *DeviceTarget) ReadAt(p []byte, off int64) (int, error)  { return 0, syscall.ENOTSUP }
func (t *DeviceTarget) WriteAt(p []byte, off int64) (int, error) { return 0, syscall.ENOTSUP }
func (t *DeviceTarget) Size() int64                              { return 0 }
func (t *DeviceTarget) Close() error                             { return nil }
