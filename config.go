package cappedcollection

const (
	// defaultMaxDatasize matches spec §6: min(512 MiB, maxmemory) unless
	// overridden, applied by Open once it has read maxmemory from Redis.
	defaultMaxDatasize = 512 * 1024 * 1024

	defaultAdvanceCleanupBytes = 0
	defaultAdvanceCleanupNum   = 0
	defaultMemoryReserve       = 0.05
	defaultDataVersion         = 1
)

// Config holds the policy parameters verify_collection stores on first
// open and validates against on every subsequent open (spec §3, §4.11).
type Config struct {
	// Prefix namespaces every key this collection derives (spec §4.1).
	// Two collections sharing a prefix and name collide; an empty prefix
	// leaves the first key segment empty (e.g. ":S:N").
	Prefix string

	// OlderAllowed, when true, lets insert/update accept a data_time
	// older than last_removed_time. When false, such calls fail with
	// older-than-allowed.
	OlderAllowed bool

	// AdvanceCleanupBytes and AdvanceCleanupNum bound the Evictor's
	// proactive cleanup pass beyond the minimum needed to satisfy a
	// single insert (spec §4.3).
	AdvanceCleanupBytes int64
	AdvanceCleanupNum   int64

	// MemoryReserve is the headroom fraction (0.05..0.5) kept free below
	// maxmemory before the Evictor considers itself under pressure.
	MemoryReserve float64

	// DataVersion is a caller-chosen schema marker; verify_collection
	// rejects a mismatch with incompatible-data-version.
	DataVersion int64

	// MaxDatasize bounds any single item's byte length. Zero means
	// "resolve from maxmemory at Open time" (see defaultMaxDatasize).
	MaxDatasize int64
}

// Option mutates a Config being built by NewConfig.
type Option func(*Config)

// NewConfig returns a Config with spec-documented defaults, then applies
// opts in order.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		OlderAllowed:        true,
		AdvanceCleanupBytes: defaultAdvanceCleanupBytes,
		AdvanceCleanupNum:   defaultAdvanceCleanupNum,
		MemoryReserve:       defaultMemoryReserve,
		DataVersion:         defaultDataVersion,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPrefix sets the key-namespace prefix.
func WithPrefix(prefix string) Option {
	return func(c *Config) { c.Prefix = prefix }
}

// WithOlderAllowed toggles whether admission of older-than-last-removed
// data times is permitted.
func WithOlderAllowed(allowed bool) Option {
	return func(c *Config) { c.OlderAllowed = allowed }
}

// WithAdvanceCleanup sets the proactive-eviction thresholds.
func WithAdvanceCleanup(bytes, num int64) Option {
	return func(c *Config) {
		c.AdvanceCleanupBytes = bytes
		c.AdvanceCleanupNum = num
	}
}

// WithMemoryReserve sets the headroom fraction. Values outside
// 0.05..0.5 are passed through unchanged; verify_collection does not
// clamp, matching spec §3's documented range as a guideline, not an
// enforced bound.
func WithMemoryReserve(reserve float64) Option {
	return func(c *Config) { c.MemoryReserve = reserve }
}

// WithDataVersion sets the schema marker verify_collection compares on
// every open.
func WithDataVersion(v int64) Option {
	return func(c *Config) { c.DataVersion = v }
}

// WithMaxDatasize sets an explicit per-item byte ceiling, overriding the
// maxmemory-derived default.
func WithMaxDatasize(n int64) Option {
	return func(c *Config) { c.MaxDatasize = n }
}
