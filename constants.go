package blkcopy

import "github.com/ehrlich-b/go-blkcopy/internal/constants"

// Re-exported defaults for callers configuring an Engine.
const (
	DefaultBlockSize    = constants.DefaultBlockSize
	DefaultMaxRanges    = constants.DefaultMaxRanges
	DefaultURingEntries = constants.DefaultURingEntries
)
