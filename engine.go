// Package blkcopy executes bulk same-device copy batches against a raw block
// device, either through one BLKCOPY device-control call (hardware copy
// offload) or through an in-process emulation loop that performs each range
// as a read-then-write pair.
//
// The engine is deliberately small: it owns translating a packed range
// buffer into a device-control payload and the correctness/error accounting
// of that translation. Workload generation, thread lifecycle, and statistics
// aggregation belong to the host. One Engine serves one worker; submissions
// are synchronous and queue-depth-1, so no locking happens inside.
package blkcopy

import (
	"io"
	"syscall"
	"time"

	"github.com/ehrlich-b/go-blkcopy/internal/blkdev"
	"github.com/ehrlich-b/go-blkcopy/internal/constants"
	"github.com/ehrlich-b/go-blkcopy/internal/logging"
	"github.com/ehrlich-b/go-blkcopy/internal/uapi"
	"github.com/ehrlich-b/go-blkcopy/internal/uring"
)

// Config selects the dispatch path and sizes the per-worker state.
// Immutable after New.
type Config struct {
	// Emulate performs copies as read/write pairs instead of the BLKCOPY
	// ioctl. Lets the engine run on devices and kernels without the
	// hardware primitive, with identical range-list semantics.
	Emulate bool

	// UseURing routes the emulation loop's reads and writes through
	// io_uring when the target exposes a file descriptor. Ignored unless
	// Emulate is set.
	UseURing bool

	// BlockSize is the copy block size in bytes. Every range entry must
	// carry exactly this length; the emulation scratch buffer holds one
	// block.
	BlockSize int

	// MaxRanges is the largest number of entries one submission may carry.
	// The range list is allocated once with this capacity.
	MaxRanges int
}

// DefaultConfig returns the default engine configuration: hardware offload,
// 4 KiB blocks.
func DefaultConfig() Config {
	return Config{
		Emulate:   false,
		BlockSize: constants.DefaultBlockSize,
		MaxRanges: constants.DefaultMaxRanges,
	}
}

// Options carries optional collaborators for an Engine.
type Options struct {
	// Logger for debug/trace output (nil uses the package default).
	Logger *logging.Logger

	// Observer for metrics collection (nil uses a built-in Metrics).
	Observer Observer
}

// Request is one copy submission. Buf holds packed range entries; Err is
// written by the engine with the errno of the first failure, mirroring how
// the host tracks per-request errors.
type Request struct {
	// Target is the block device to copy within.
	Target Target

	// Buf is the packed range-entry buffer. Its length must be an exact
	// multiple of EntrySize.
	Buf []byte

	// Err holds the errno of the first transfer failure, 0 on success.
	Err syscall.Errno
}

// Range is one copy instruction and its completion state.
type Range struct {
	Src     uint64 // source offset in bytes
	Dst     uint64 // destination offset in bytes
	Len     uint64 // transfer length in bytes
	CompLen uint64 // bytes durably copied, written once per submission
}

// EntrySize is the packed on-wire size of one Range in a request buffer.
const EntrySize = uapi.RangeEntrySize

// controlFunc issues the device-control call. Swappable for tests.
type controlFunc func(fd uintptr, payload []byte) blkdev.Result

// Engine executes copy submissions for a single worker.
type Engine struct {
	cfg      Config
	list     *uapi.CopyRange
	scratch  []byte
	ring     *uring.Ring
	control  controlFunc
	logger   *logging.Logger
	metrics  *Metrics
	observer Observer
	closed   bool
}

// New allocates per-worker engine state: the reusable range list and, when
// emulation is configured, one page-aligned scratch buffer of one block.
func New(cfg Config, opts *Options) (*Engine, error) {
	if cfg.BlockSize <= 0 || cfg.MaxRanges <= 0 {
		return nil, NewError("INIT", ErrCodeInvalidParameters,
			"block size and max ranges must be positive")
	}

	if opts == nil {
		opts = &Options{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	metrics := NewMetrics()
	observer := opts.Observer
	if observer == nil {
		observer = NewMetricsObserver(metrics)
	}

	e := &Engine{
		cfg:      cfg,
		list:     uapi.NewCopyRange(cfg.MaxRanges),
		control:  blkdev.Copy,
		logger:   logger,
		metrics:  metrics,
		observer: observer,
	}

	if cfg.Emulate {
		e.scratch = alignedBuffer(cfg.BlockSize)

		if cfg.UseURing {
			ring, err := uring.New(uint32(constants.DefaultURingEntries))
			if err != nil {
				// The ring is an optimization, not a capability; fall
				// back to plain positional I/O.
				logger.Warn("io_uring unavailable, using pread/pwrite", "error", err)
			} else {
				e.ring = ring
			}
		}
	}

	return e, nil
}

// Prepare rebuilds the engine's range list from the request buffer:
// nr_range = len(Buf)/EntrySize, reserved = 0, entries copied verbatim.
// The list is overwritten in place; nothing is allocated.
func (e *Engine) Prepare(req *Request) error {
	if e.closed || e.list == nil {
		return NewError("PREP", ErrCodeNotInitialized, "prepare on closed engine")
	}

	if err := uapi.DecodeEntries(req.Buf, e.list); err != nil {
		return NewError("PREP", ErrCodeInvalidParameters, err.Error())
	}

	e.logger.Debug("prepared range list", "nr_range", e.list.NrRange)
	return nil
}

// Submit executes the prepared range list as one synchronous transaction.
// There is no separate completion phase: when Submit returns, every entry's
// CompLen is final and req.Err holds the errno of the first failure, if any.
func (e *Engine) Submit(req *Request) error {
	if e.closed || e.list == nil {
		return NewError("SUBMIT", ErrCodeNotInitialized, "submit on closed engine")
	}

	start := time.Now()

	var err error
	if e.cfg.Emulate {
		err = e.emulate(req)
	} else {
		err = e.offload(req)
	}

	latency := uint64(time.Since(start).Nanoseconds())
	bytes := uint64(e.list.NrRange) * uint64(e.cfg.BlockSize)
	if e.cfg.Emulate {
		e.observer.ObserveEmulated(bytes, latency, err == nil)
	} else {
		e.observer.ObserveOffload(bytes, latency, err == nil)
	}

	return err
}

// offload issues one BLKCOPY call carrying the whole range list. A positive
// kernel return is normalized to an error inside internal/blkdev and never
// surfaces as success.
func (e *Engine) offload(req *Request) error {
	raw, ok := req.Target.(RawTarget)
	if !ok {
		return NewError("BLKCOPY", ErrCodeOffloadUnsupported,
			"target has no file descriptor")
	}

	payload := uapi.MarshalCopyRange(e.list)
	res := e.control(raw.Fd(), payload).Normalize()
	if res.Status != blkdev.StatusOK {
		e.logger.Error("BLKCOPY failed",
			"nr_range", e.list.NrRange, "errno", int(res.Errno))
		e.recordFailure(req, res.Errno)
		return NewErrorWithErrno("BLKCOPY", ErrCodeOffloadFailed, res.Errno)
	}

	// The kernel writes comp_len back into the payload per entry.
	if err := uapi.UnmarshalCompletions(payload, e.list); err != nil {
		return NewError("BLKCOPY", ErrCodeIOError, err.Error())
	}

	for i := range e.list.Entries {
		e.observer.ObserveRange(e.list.Entries[i].CompLen)
	}
	return nil
}

// emulate performs each range in order as a read into the scratch buffer
// followed by a write. The batch stops at the first failure; nothing is
// retried here.
func (e *Engine) emulate(req *Request) error {
	blockSize := uint64(e.cfg.BlockSize)

	for i := range e.list.Entries {
		entry := &e.list.Entries[i]

		// Every entry carries the workload block size; the scratch buffer
		// holds exactly one block.
		if entry.Len != blockSize {
			entry.CompLen = 0
			return NewEntryError("READ", i, ErrCodeInvalidParameters, nil)
		}
		buf := e.scratch[:entry.Len]

		n, err := e.readAt(req.Target, buf, int64(entry.Src))
		e.logger.Debug("read range",
			"index", i, "offset", entry.Src, "len", entry.Len, "n", n)
		if err != nil && !(err == io.EOF && n == len(buf)) {
			entry.CompLen = 0
			e.recordFailure(req, errnoOf(err))
			return NewEntryError("READ", i, ErrCodeReadFailed, err)
		}
		if n != len(buf) {
			// Length always equals the fixed block size, so a short read
			// means the engine and the device disagree about the target:
			// fail loudly rather than mis-report progress.
			entry.CompLen = 0
			e.recordFailure(req, syscall.EIO)
			return NewEntryError("READ", i, ErrCodeShortRead, nil)
		}

		n, err = e.writeAt(req.Target, buf, int64(entry.Dst))
		e.logger.Debug("write range",
			"index", i, "offset", entry.Dst, "len", entry.Len, "n", n)
		if err != nil && n == 0 {
			entry.CompLen = 0
			e.recordFailure(req, errnoOf(err))
			return NewEntryError("WRITE", i, ErrCodeWriteFailed, err)
		}
		if n < len(buf) {
			// Short write: some bytes were durably copied. Report the
			// actual count so the host can tell partial progress from
			// total failure.
			entry.CompLen = uint64(n)
			e.observer.ObservePartialWrite(uint64(n))
			e.recordFailure(req, errnoOf(err))
			return NewPartialWriteError(i, uint64(n), err)
		}

		entry.CompLen = entry.Len
		e.observer.ObserveRange(entry.CompLen)
	}

	return nil
}

// readAt routes through the io_uring transport when available.
func (e *Engine) readAt(t Target, p []byte, off int64) (int, error) {
	if e.ring != nil {
		if raw, ok := t.(RawTarget); ok {
			return e.ring.ReadAt(int(raw.Fd()), p, off)
		}
	}
	return t.ReadAt(p, off)
}

// writeAt routes through the io_uring transport when available.
func (e *Engine) writeAt(t Target, p []byte, off int64) (int, error) {
	if e.ring != nil {
		if raw, ok := t.(RawTarget); ok {
			return e.ring.WriteAt(int(raw.Fd()), p, off)
		}
	}
	return t.WriteAt(p, off)
}

// recordFailure notes the first errno on the request and flags the target
// for host-level verify bookkeeping.
func (e *Engine) recordFailure(req *Request, errno syscall.Errno) {
	if errno == 0 {
		errno = syscall.EIO
	}
	if req.Err == 0 {
		req.Err = errno
	}
	recordTargetError(req.Target, errno)
}

// Completions returns the per-entry results of the last submission.
// The slice is a copy; mutating it does not affect engine state.
func (e *Engine) Completions() []Range {
	out := make([]Range, len(e.list.Entries))
	for i, entry := range e.list.Entries {
		out[i] = Range(entry)
	}
	return out
}

// Metrics returns the engine's built-in metrics.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Close releases the scratch buffer, the range list, and the optional ring.
// Safe on a nil receiver and safe to call more than once.
func (e *Engine) Close() error {
	if e == nil || e.closed {
		return nil
	}
	e.closed = true

	e.ring.Close()
	e.ring = nil
	e.scratch = nil
	e.list = nil
	return nil
}

// EncodeRanges packs ranges into a request buffer. Hosts use this to build
// submission buffers; the engine itself only ever decodes.
func EncodeRanges(ranges []Range) []byte {
	buf := make([]byte, len(ranges)*EntrySize)
	for i, r := range ranges {
		uapi.EncodeEntry(buf, i, uapi.RangeEntry(r))
	}
	return buf
}
