package uapi

import (
	"bytes"
	"testing"
)

func TestRangeEntrySize(t *testing.T) {
	if RangeEntrySize != 32 {
		t.Errorf("RangeEntrySize = %d, want 32", RangeEntrySize)
	}
}

func TestDecodeEntries(t *testing.T) {
	entries := []RangeEntry{
		{Src: 0, Dst: 0x100000, Len: 4096},
		{Src: 0x1000, Dst: 0x101000, Len: 4096},
		{Src: 0x2000, Dst: 0x102000, Len: 4096},
	}

	buf := make([]byte, len(entries)*RangeEntrySize)
	for i, e := range entries {
		EncodeEntry(buf, i, e)
	}

	cr := NewCopyRange(8)
	if err := DecodeEntries(buf, cr); err != nil {
		t.Fatalf("DecodeEntries failed: %v", err)
	}

	if cr.NrRange != 3 {
		t.Errorf("NrRange = %d, want 3", cr.NrRange)
	}
	if cr.Reserved != 0 {
		t.Errorf("Reserved = %d, want 0", cr.Reserved)
	}
	for i, e := range entries {
		if cr.Entries[i] != e {
			t.Errorf("entry %d = %+v, want %+v", i, cr.Entries[i], e)
		}
	}
}

func TestDecodeEntriesUnaligned(t *testing.T) {
	cr := NewCopyRange(8)

	err := DecodeEntries(make([]byte, RangeEntrySize+1), cr)
	if err != ErrUnalignedBuffer {
		t.Errorf("DecodeEntries = %v, want ErrUnalignedBuffer", err)
	}
}

func TestDecodeEntriesOverCapacity(t *testing.T) {
	cr := NewCopyRange(2)

	err := DecodeEntries(make([]byte, 3*RangeEntrySize), cr)
	if err != ErrTooManyRanges {
		t.Errorf("DecodeEntries = %v, want ErrTooManyRanges", err)
	}
}

func TestCopyRangeReuse(t *testing.T) {
	cr := NewCopyRange(16)

	buf := make([]byte, 4*RangeEntrySize)
	for i := 0; i < 4; i++ {
		EncodeEntry(buf, i, RangeEntry{Src: uint64(i) * 4096, Len: 4096})
	}
	if err := DecodeEntries(buf, cr); err != nil {
		t.Fatalf("first decode failed: %v", err)
	}

	// A shorter second submission must not retain stale entries, and must
	// not reallocate backing storage.
	before := &cr.Entries[0]
	buf = buf[:RangeEntrySize]
	if err := DecodeEntries(buf, cr); err != nil {
		t.Fatalf("second decode failed: %v", err)
	}

	if cr.NrRange != 1 || len(cr.Entries) != 1 {
		t.Errorf("after reuse: NrRange=%d len=%d, want 1/1", cr.NrRange, len(cr.Entries))
	}
	if &cr.Entries[0] != before {
		t.Error("decode reallocated the entry array")
	}
}

func TestMarshalCopyRangeRoundTrip(t *testing.T) {
	cr := NewCopyRange(4)
	cr.NrRange = 2
	cr.Entries = append(cr.Entries,
		RangeEntry{Src: 4096, Dst: 8192, Len: 4096},
		RangeEntry{Src: 12288, Dst: 16384, Len: 4096},
	)

	data := MarshalCopyRange(cr)
	if len(data) != CopyRangeHeaderSize+2*RangeEntrySize {
		t.Fatalf("payload length = %d", len(data))
	}
	if !bytes.Equal(data[0:4], []byte{2, 0, 0, 0}) {
		t.Errorf("nr_range header = %x", data[0:4])
	}

	// Simulate the kernel writing back comp_len for both entries.
	data[CopyRangeHeaderSize+24] = 0x10
	data[CopyRangeHeaderSize+RangeEntrySize+24] = 0x20
	if err := UnmarshalCompletions(data, cr); err != nil {
		t.Fatalf("UnmarshalCompletions failed: %v", err)
	}
	if cr.Entries[0].CompLen != 0x10 || cr.Entries[1].CompLen != 0x20 {
		t.Errorf("comp_len = %d/%d, want 0x10/0x20",
			cr.Entries[0].CompLen, cr.Entries[1].CompLen)
	}
}

func TestUnmarshalCompletionsShortBuffer(t *testing.T) {
	cr := NewCopyRange(2)
	cr.Entries = append(cr.Entries, RangeEntry{Len: 4096})

	if err := UnmarshalCompletions(make([]byte, 8), cr); err != ErrInsufficientData {
		t.Errorf("UnmarshalCompletions = %v, want ErrInsufficientData", err)
	}
}
