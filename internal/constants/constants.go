package constants

// Default engine configuration
const (
	// DefaultBlockSize is the default copy block size in bytes.
	// Every range entry in a submission transfers exactly one block.
	DefaultBlockSize = 4096

	// DefaultMaxRanges is the default capacity of the per-worker range list
	DefaultMaxRanges = 128

	// DefaultURingEntries is the submission queue size for the optional
	// io_uring emulation transport. The engine is queue-depth-1, so a
	// handful of entries is plenty.
	DefaultURingEntries = 8
)
