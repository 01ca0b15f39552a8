package hash

// KeyAdapter extracts and hashes the derived key of a value, and compares a
// key against a value's derived key. It is the Go re-architecture of the
// Java original's KeyedObjectKey / KeyedIntObjectKey / KeyedLongObjectKey /
// KeyedDoubleObjectKey inheritance family (SPEC_FULL.md section 3): one
// generic interface parameterized by K instead of one interface per
// primitive key kind. Go generics never box a primitive K, so the Java
// "Lax" (auto-unboxing) vs. "Strict" (throws on boxed access) distinction
// has no reachable code path here and is not reproduced — see DESIGN.md.
type KeyAdapter[K comparable, V any] interface {
	// GetKey returns the derived key of v.
	GetKey(v V) K
	// HashKey returns the hash code of a key. Must agree with GetKey: equal
	// keys must hash equal, and HashKey(GetKey(v)) must be stable for v's
	// lifetime inside a table.
	HashKey(k K) uint64
	// EqualKey reports whether k equals the derived key of v.
	EqualKey(k K, v V) bool
}

// objectKeyAdapter is the generic-reference-key adapter: getKey is supplied
// by the caller, equality is K's built-in ==, hashing is the cheapest
// available hash for K (SPEC_FULL.md section 2). It grounds the Java
// original's KeyedObjectKey.Basic/BasicAdapter — the ubiquitous case where a
// value's key is read off one of its fields.
type objectKeyAdapter[K comparable, V any] struct {
	getKey func(V) K
	hash   func(K) uint64
}

// NewKeyAdapter builds a KeyAdapter for a reference-typed derived key read
// off V via keyFunc, using K's built-in equality and a default hash.
// Equivalent to the Java original's KeyedObjectKey.BasicAdapter.
func NewKeyAdapter[K comparable, V any](keyFunc func(V) K) KeyAdapter[K, V] {
	if keyFunc == nil {
		panic("hash: NewKeyAdapter: keyFunc must not be nil")
	}
	return &objectKeyAdapter[K, V]{getKey: keyFunc, hash: defaultKeyHasher[K]()}
}

// NewKeyAdapterWithHash is NewKeyAdapter with an explicit hash function,
// for callers who want to supply their own (e.g. a domain-specific hash, or
// one that matches an external sharding scheme).
func NewKeyAdapterWithHash[K comparable, V any](keyFunc func(V) K, hashFunc func(K) uint64) KeyAdapter[K, V] {
	if keyFunc == nil {
		panic("hash: NewKeyAdapterWithHash: keyFunc must not be nil")
	}
	if hashFunc == nil {
		panic("hash: NewKeyAdapterWithHash: hashFunc must not be nil")
	}
	return &objectKeyAdapter[K, V]{getKey: keyFunc, hash: hashFunc}
}

func (a *objectKeyAdapter[K, V]) GetKey(v V) K         { return a.getKey(v) }
func (a *objectKeyAdapter[K, V]) HashKey(k K) uint64    { return a.hash(k) }
func (a *objectKeyAdapter[K, V]) EqualKey(k K, v V) bool { return k == a.getKey(v) }

// exactKeyAdapter compares keys by identity via a caller-supplied equality
// override rather than K's built-in ==, grounding the Java original's
// KeyedObjectKey.Exact/ExactAdapter (identity-equals rather than
// value-equals). In Go this is most useful when K is a pointer type and the
// caller wants pointer identity rather than structural equality on whatever
// K's == happens to mean.
type exactKeyAdapter[K comparable, V any] struct {
	getKey func(V) K
	hash   func(K) uint64
	equal  func(K, K) bool
}

// NewExactKeyAdapter is NewKeyAdapter but compares keys with an explicit
// equal function instead of K's built-in ==. Equivalent to the Java
// original's KeyedObjectKey.ExactAdapter.
func NewExactKeyAdapter[K comparable, V any](keyFunc func(V) K, equalFunc func(K, K) bool) KeyAdapter[K, V] {
	if keyFunc == nil {
		panic("hash: NewExactKeyAdapter: keyFunc must not be nil")
	}
	if equalFunc == nil {
		panic("hash: NewExactKeyAdapter: equalFunc must not be nil")
	}
	return &exactKeyAdapter[K, V]{getKey: keyFunc, hash: defaultKeyHasher[K](), equal: equalFunc}
}

func (a *exactKeyAdapter[K, V]) GetKey(v V) K      { return a.getKey(v) }
func (a *exactKeyAdapter[K, V]) HashKey(k K) uint64 { return a.hash(k) }
func (a *exactKeyAdapter[K, V]) EqualKey(k K, v V) bool {
	return a.equal(k, a.getKey(v))
}

// NewInt32KeyAdapter, NewInt64KeyAdapter and NewFloat64KeyAdapter are
// unboxed specializations grounding the Java original's KeyedIntObjectKey /
// KeyedLongObjectKey / KeyedDoubleObjectKey families (SPEC_FULL.md section
// 3). Under Go generics there is no boxing to avoid — any KeyAdapter[int32,
// V] is already unboxed — so these exist only for API parity with the
// original's primitive-key surface and to guarantee the exact hash formula
// (k ^ (k>>32) for 64-bit kinds, raw bit pattern for float64) the spec and
// the original agree on, rather than leaving it to defaultKeyHasher's
// generic path.

// NewInt32KeyAdapter builds a KeyAdapter for an int32-derived key.
func NewInt32KeyAdapter[V any](keyFunc func(V) int32) KeyAdapter[int32, V] {
	h, _ := unboxedHasher[int32]()
	return &objectKeyAdapter[int32, V]{getKey: keyFunc, hash: h}
}

// NewInt64KeyAdapter builds a KeyAdapter for an int64-derived key.
func NewInt64KeyAdapter[V any](keyFunc func(V) int64) KeyAdapter[int64, V] {
	h, _ := unboxedHasher[int64]()
	return &objectKeyAdapter[int64, V]{getKey: keyFunc, hash: h}
}

// NewFloat64KeyAdapter builds a KeyAdapter for a float64-derived key. Hashes
// the full IEEE-754 bit pattern, so +0.0 and -0.0 occupy different slots
// even though they compare equal — see SPEC_FULL.md section 4 and
// DESIGN.md.
func NewFloat64KeyAdapter[V any](keyFunc func(V) float64) KeyAdapter[float64, V] {
	h, _ := unboxedHasher[float64]()
	return &objectKeyAdapter[float64, V]{getKey: keyFunc, hash: h}
}
