package hash

import "go.uber.org/zap"

// Config and Option follow the teacher's functional-options idiom
// (MapConfig / WithPresize / WithShrinkEnabled in mapof.go), generalized
// from a single concurrent-map's handful of knobs to the handful spec.md
// calls out for the open-addressed and intrusive tables: initial capacity,
// load factor, and (intrusive only) whether rehashing is enabled at all.
type Config struct {
	initialCapacity int
	loadFactor      float64
	rehashEnabled   bool
	logger          *zap.Logger
}

// Option configures a table at construction time.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		initialCapacity: defaultInitialCapacity,
		loadFactor:      defaultLoadFactor,
		rehashEnabled:   true,
		logger:          nil,
	}
}

// WithInitialCapacity sets the minimum number of elements the table should
// hold without an initial rehash. Mirrors the teacher's WithPresize.
func WithInitialCapacity(n int) Option {
	return func(c *Config) { c.initialCapacity = n }
}

// WithLoadFactor overrides the default load factor (0.5, per spec.md
// section 3 / the Java original's KHash.DEFAULT_LOAD_FACTOR). Must be in
// (0, 1); out-of-range values panic when the option is created rather than
// silently clamping, since a bad load factor is a programmer error, not a
// runtime condition to degrade gracefully from.
func WithLoadFactor(lf float64) Option {
	if lf <= 0 || lf >= 1 {
		panic("hash: load factor must be in (0, 1)")
	}
	return func(c *Config) {
		c.loadFactor = lf
	}
}

// WithRehashDisabled disables automatic rehashing on an IntrusiveChainedTable
// (it has no effect on OpenAddressedTable, which must always be able to
// rehash to maintain invariant 2 of spec.md section 3: at least one empty
// slot). Mirrors the Java original's KeyedObjectIntrusiveChainedHash
// rehashEnabled flag. Grounds the teacher's WithShrinkEnabled-style opt-in
// toggle, inverted: here the default is enabled and this opts out, because
// that is the Java original's own default.
func WithRehashDisabled() Option {
	return func(c *Config) { c.rehashEnabled = false }
}

// WithLogger attaches a *zap.Logger used for debug-level instrumentation of
// rehash and compaction events (chosen capacity, tombstones reclaimed). A
// table with no logger configured logs nothing; this option is never
// required for correctness. See SPEC_FULL.md section 1.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) { c.logger = l }
}

func (c *Config) logRehash(table string, oldCapacity, newCapacity, size int) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("rehash",
		zap.String("table", table),
		zap.Int("old_capacity", oldCapacity),
		zap.Int("new_capacity", newCapacity),
		zap.Int("size", size),
	)
}

func (c *Config) logCompact(table string, oldCapacity, newCapacity, tombstonesReclaimed int) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("compact",
		zap.String("table", table),
		zap.Int("old_capacity", oldCapacity),
		zap.Int("new_capacity", newCapacity),
		zap.Int("tombstones_reclaimed", tombstonesReclaimed),
	)
}

const (
	// defaultLoadFactor matches the Java original's KHash.DEFAULT_LOAD_FACTOR.
	defaultLoadFactor = 0.5
	// defaultInitialCapacity matches the Java original's
	// KHash.DEFAULT_INITIAL_CAPACITY (10 elements at load factor 0.5, i.e.
	// a real underlying open-addressed capacity of NextPrime(20) = 23).
	defaultInitialCapacity = 10
)
