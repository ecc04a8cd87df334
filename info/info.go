package info

const (
	AppName = "ctrace"
	Version = "0.1.0"

	DefaultConfigDir = "./.ctrace"

	// DefaultChunkSize is the number of 32bit words per chunk.
	DefaultChunkSize = 64 * 1024
	// DefaultAllocWarnThreshold is the per-scope allocation size (bytes)
	// after which new chunk allocations emit a warning.
	DefaultAllocWarnThreshold = 1 << 30 // 1GiB
	// DefaultMaxSpeedscopeEvents is the event cap for speedscope exports.
	DefaultMaxSpeedscopeEvents = 1000 * 1000

	DefaultServeAddr = "localhost:8700"

	TraceFileExt = ".ctrace"
)
