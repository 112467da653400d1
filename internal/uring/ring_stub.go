//go:build !linux

package uring

import "syscall"

// Ring is unavailable off Linux; New always fails and the engine keeps
// using plain positional reads and writes.
type Ring struct{}

func New(entries uint32) (*Ring, error) {
	return nil, syscall.ENOTSUP
}

func (r *Ring) Close() {}

func (r *Ring) ReadAt(fd int, p []byte, off int64) (int, error) {
	return 0, syscall.ENOTSUP
}

func (r *Ring) WriteAt(fd int, p []byte, off int64) (int, error) {
	return 0, syscall.ENOTSUP
}
