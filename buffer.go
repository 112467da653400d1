package blkcopy

import (
	"os"
	"unsafe"
)

// alignedBuffer allocates a page-aligned buffer of size bytes. Block-device
// reads and writes may run O_DIRECT-style paths that reject unaligned user
// memory, so the scratch buffer is aligned the way the kernel expects.
func alignedBuffer(size int) []byte {
	pageSize := os.Getpagesize()

	raw := make([]byte, size+pageSize)
	offset := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) & uintptr(pageSize-1)); rem != 0 {
		offset = pageSize - rem
	}
	return raw[offset : offset+size : offset+size]
}
