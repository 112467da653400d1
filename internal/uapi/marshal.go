package uapi

import "encoding/binary"

// MarshalError is returned for malformed range buffers
type MarshalError string

func (e MarshalError) Error() string {
	return string(e)
}

const (
	ErrInsufficientData MarshalError = "insufficient data for unmarshaling"
	ErrUnalignedBuffer  MarshalError = "buffer length is not a multiple of the range entry size"
	ErrTooManyRanges    MarshalError = "range count exceeds list capacity"
)

// DecodeEntries rebuilds the range list from a packed request buffer.
// The buffer holds nr_range consecutive range_entry structs with no header;
// nr_range is derived from the buffer length. The list is cleared first and
// decoded in place, so no allocation happens on the hot path.
func DecodeEntries(buf []byte, cr *CopyRange) error {
	if len(buf)%RangeEntrySize != 0 {
		return ErrUnalignedBuffer
	}

	n := len(buf) / RangeEntrySize
	if n > cr.Cap() {
		return ErrTooManyRanges
	}

	cr.Reset()
	cr.NrRange = uint32(n)
	cr.Entries = cr.Entries[:n]
	for i := 0; i < n; i++ {
		off := i * RangeEntrySize
		cr.Entries[i] = RangeEntry{
			Src:     binary.LittleEndian.Uint64(buf[off : off+8]),
			Dst:     binary.LittleEndian.Uint64(buf[off+8 : off+16]),
			Len:     binary.LittleEndian.Uint64(buf[off+16 : off+24]),
			CompLen: binary.LittleEndian.Uint64(buf[off+24 : off+32]),
		}
	}

	return nil
}

// EncodeEntry packs a single entry at the given index of buf. The host's
// request producer uses this to build submission buffers.
func EncodeEntry(buf []byte, idx int, e RangeEntry) {
	off := idx * RangeEntrySize
	binary.LittleEndian.PutUint64(buf[off:off+8], e.Src)
	binary.LittleEndian.PutUint64(buf[off+8:off+16], e.Dst)
	binary.LittleEndian.PutUint64(buf[off+16:off+24], e.Len)
	binary.LittleEndian.PutUint64(buf[off+24:off+32], e.CompLen)
}

// MarshalCopyRange serializes the full copy_range payload (header plus
// packed entries) for handing to the kernel.
func MarshalCopyRange(cr *CopyRange) []byte {
	buf := make([]byte, CopyRangeHeaderSize+len(cr.Entries)*RangeEntrySize)

	binary.LittleEndian.PutUint32(buf[0:4], cr.NrRange)
	binary.LittleEndian.PutUint32(buf[4:8], cr.Reserved)
	for i, e := range cr.Entries {
		off := CopyRangeHeaderSize + i*RangeEntrySize
		binary.LittleEndian.PutUint64(buf[off:off+8], e.Src)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e.Dst)
		binary.LittleEndian.PutUint64(buf[off+16:off+24], e.Len)
		binary.LittleEndian.PutUint64(buf[off+24:off+32], e.CompLen)
	}

	return buf
}

// UnmarshalCompletions copies the kernel-written comp_len fields from a
// marshaled payload back into the list after an offload call returns.
func UnmarshalCompletions(data []byte, cr *CopyRange) error {
	want := CopyRangeHeaderSize + len(cr.Entries)*RangeEntrySize
	if len(data) < want {
		return ErrInsufficientData
	}

	for i := range cr.Entries {
		off := CopyRangeHeaderSize + i*RangeEntrySize + 24
		cr.Entries[i].CompLen = binary.LittleEndian.Uint64(data[off : off+8])
	}

	return nil
}
