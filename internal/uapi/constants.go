package uapi

// ioctl encoding, from include/uapi/asm-generic/ioctl.h
const (
	iocNrBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNrShift   = 0
	iocTypeShift = iocNrShift + iocNrBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func iowr(typ, nr, size uintptr) uintptr {
	return (iocRead|iocWrite)<<iocDirShift |
		typ<<iocTypeShift |
		nr<<iocNrShift |
		size<<iocSizeShift
}

// BLKCOPY is the block-copy offload ioctl. The request size covers only the
// copy_range header; the entry array is a flexible array member and does not
// contribute to sizeof.
var BLKCOPY = iowr(0x12, 142, CopyRangeHeaderSize)
