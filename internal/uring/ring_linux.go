//go:build linux

// Package uring provides an io_uring transport for the emulation loop's
// positional reads and writes. The engine is synchronous and queue-depth-1,
// so every submission waits for its single completion in place; the ring
// only saves the syscall-per-byte overhead of pread/pwrite on hot workers.
package uring

import (
	"syscall"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// Ring wraps a giouring ring configured for single-shot read/write pairs.
type Ring struct {
	ring *giouring.Ring
}

// New creates a ring with the given submission queue size.
func New(entries uint32) (*Ring, error) {
	ring, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, err
	}
	return &Ring{ring: ring}, nil
}

// Close tears down the ring. Safe to call on a nil receiver.
func (r *Ring) Close() {
	if r == nil || r.ring == nil {
		return
	}
	r.ring.QueueExit()
	r.ring = nil
}

// ReadAt reads len(p) bytes from fd at offset off through the ring.
func (r *Ring) ReadAt(fd int, p []byte, off int64) (int, error) {
	entry := r.ring.GetSQE()
	if entry == nil {
		return 0, syscall.EBUSY
	}
	entry.PrepareRead(fd, uintptr(unsafe.Pointer(&p[0])), uint32(len(p)), uint64(off))
	return r.waitOne(p)
}

// WriteAt writes len(p) bytes from p to fd at offset off through the ring.
func (r *Ring) WriteAt(fd int, p []byte, off int64) (int, error) {
	entry := r.ring.GetSQE()
	if entry == nil {
		return 0, syscall.EBUSY
	}
	entry.PrepareWrite(fd, uintptr(unsafe.Pointer(&p[0])), uint32(len(p)), uint64(off))
	return r.waitOne(p)
}

// waitOne submits the prepared entry and blocks for its completion.
func (r *Ring) waitOne(p []byte) (int, error) {
	if _, err := r.ring.SubmitAndWait(1); err != nil {
		return 0, err
	}

	cqe, err := r.ring.WaitCQE()
	if err != nil {
		return 0, err
	}
	res := cqe.Res
	r.ring.CQESeen(cqe)

	if res < 0 {
		return 0, syscall.Errno(-res)
	}
	return int(res), nil
}
