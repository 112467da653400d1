package blkcopy

import (
	"sync"
	"syscall"
)

// MockTarget is an in-memory stand-in for a block device. It implements
// Target and ErrorRecorder and supports injecting read failures and short
// writes at specific offsets, which is how the emulation loop's abort
// behavior gets exercised without real hardware.
type MockTarget struct {
	data   []byte
	closed bool

	mu         sync.Mutex
	readCalls  int
	writeCalls int

	failReads   map[int64]syscall.Errno // offset -> errno returned by ReadAt
	failWrites  map[int64]syscall.Errno // offset -> errno returned by WriteAt
	shortWrites map[int64]int           // offset -> bytes written instead of len(p)

	verifyErrno syscall.Errno
}

// NewMockTarget creates a mock target of the given size.
func NewMockTarget(size int64) *MockTarget {
	return &MockTarget{
		data:        make([]byte, size),
		failReads:   make(map[int64]syscall.Errno),
		failWrites:  make(map[int64]syscall.Errno),
		shortWrites: make(map[int64]int),
	}
}

// FailReadAt makes ReadAt return errno for reads starting at off.
func (m *MockTarget) FailReadAt(off int64, errno syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReads[off] = errno
}

// FailWriteAt makes WriteAt return errno for writes starting at off.
func (m *MockTarget) FailWriteAt(off int64, errno syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites[off] = errno
}

// ShortWriteAt makes WriteAt at off write only n bytes and report n with a
// nil error, the way pwrite reports a short write.
func (m *MockTarget) ShortWriteAt(off int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shortWrites[off] = n
}

// ReadAt implements Target.
func (m *MockTarget) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.readCalls++

	if m.closed {
		return 0, syscall.EBADF
	}
	if errno, ok := m.failReads[off]; ok {
		return 0, errno
	}
	if off >= int64(len(m.data)) {
		return 0, nil
	}

	available := int64(len(m.data)) - off
	if int64(len(p)) > available {
		p = p[:available]
	}
	return copy(p, m.data[off:off+int64(len(p))]), nil
}

// WriteAt implements Target.
func (m *MockTarget) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeCalls++

	if m.closed {
		return 0, syscall.EBADF
	}
	if errno, ok := m.failWrites[off]; ok {
		return 0, errno
	}
	if short, ok := m.shortWrites[off]; ok && short < len(p) {
		p = p[:short]
	}
	if off >= int64(len(m.data)) {
		return 0, syscall.ENOSPC
	}

	available := int64(len(m.data)) - off
	if int64(len(p)) > available {
		p = p[:available]
	}
	return copy(m.data[off:off+int64(len(p))], p), nil
}

// Size implements Target.
func (m *MockTarget) Size() int64 {
	return int64(len(m.data))
}

// Close implements Target. Idempotent.
func (m *MockTarget) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// RecordIOError implements ErrorRecorder. Only the first errno is kept.
func (m *MockTarget) RecordIOError(errno syscall.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verifyErrno == 0 {
		m.verifyErrno = errno
	}
}

// VerifyError implements ErrorRecorder.
func (m *MockTarget) VerifyError() syscall.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyErrno
}

// Bytes exposes the backing store for content assertions.
func (m *MockTarget) Bytes() []byte {
	return m.data
}

// CallCounts returns the number of ReadAt/WriteAt invocations.
func (m *MockTarget) CallCounts() (reads, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls, m.writeCalls
}

// Compile-time interface checks
var (
	_ Target        = (*MockTarget)(nil)
	_ ErrorRecorder = (*MockTarget)(nil)
)
