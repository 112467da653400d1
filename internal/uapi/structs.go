// Package uapi defines the kernel ABI for the BLKCOPY block-copy ioctl.
package uapi

import "unsafe"

// RangeEntry must match the kernel struct exactly (32 bytes):
//
//	struct range_entry {
//	  __u64 src;       // source offset in bytes
//	  __u64 dst;       // destination offset in bytes
//	  __u64 len;       // transfer length in bytes
//	  __u64 comp_len;  // completed length, written back per entry
//	};
type RangeEntry struct {
	Src     uint64 // source offset in bytes
	Dst     uint64 // destination offset in bytes
	Len     uint64 // transfer length in bytes
	CompLen uint64 // completed length (output)
}

// Compile-time size check - must be exactly 32 bytes to match the kernel
var _ [32]byte = [unsafe.Sizeof(RangeEntry{})]byte{}

// RangeEntrySize is the on-wire size of one RangeEntry
const RangeEntrySize = int(unsafe.Sizeof(RangeEntry{}))

// CopyRangeHeaderSize is the on-wire size of the copy_range header that
// precedes the packed entries (nr_range + reserved).
const CopyRangeHeaderSize = 8

// CopyRange is the full BLKCOPY payload:
//
//	struct copy_range {
//	  __u32 nr_range;
//	  __u32 reserved;       // must be zero
//	  struct range_entry ranges[];
//	};
//
// Entries is allocated once with the worker's maximum capacity and resliced
// on every submission; Reset never frees it.
type CopyRange struct {
	NrRange  uint32
	Reserved uint32
	Entries  []RangeEntry
}

// NewCopyRange allocates a range list with room for maxRanges entries.
func NewCopyRange(maxRanges int) *CopyRange {
	return &CopyRange{
		Entries: make([]RangeEntry, 0, maxRanges),
	}
}

// Reset clears the list for reuse without releasing capacity.
func (cr *CopyRange) Reset() {
	cr.NrRange = 0
	cr.Reserved = 0
	cr.Entries = cr.Entries[:0]
}

// Cap returns the entry capacity the list was allocated with.
func (cr *CopyRange) Cap() int {
	return cap(cr.Entries)
}
