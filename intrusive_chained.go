package hash

import (
	"math"
	"sync"
	"sync/atomic"
)

// icBucket is a single chain head, protected by the same per-slot seqlock
// discipline as oaSlot (seq_flat_mapof.go's technique): writers bump seq
// odd, swap the head, bump seq even; readers retry on an odd or changing
// seq. Mutating a "next" pointer that lives *inside* a chained value
// (rather than in a bucket head) is the LinkAdapter implementation's
// responsibility to publish safely — see LinkAdapter's doc comment.
type icBucket[V any] struct {
	seq  atomic.Uint32
	head V
}

func (b *icBucket[V]) read() V {
	for {
		s1 := b.seq.Load()
		if s1&1 != 0 {
			continue
		}
		h := b.head
		s2 := b.seq.Load()
		if s1 == s2 {
			return h
		}
	}
}

func (b *icBucket[V]) write(v V) {
	b.seq.Add(1)
	b.head = v
	b.seq.Add(1)
}

type icStorage[V any] struct {
	buckets []icBucket[V]
}

func newICStorage[V any](bucketCount int) *icStorage[V] {
	return &icStorage[V]{buckets: make([]icBucket[V], bucketCount)}
}

// IntrusiveChainedTable is the separately-chained table of spec.md section
// 4.4, whose chain links live inside the values themselves via
// LinkAdapter, eliminating per-entry link nodes. Grounds the Java
// original's KeyedObjectIntrusiveChainedHash.java. V must be pointer- or
// interface-shaped: an empty bucket/chain-end is represented by V's nil
// zero value (see isNilValue), matching the Java original's values always
// being reference types.
type IntrusiveChainedTable[K comparable, V any] struct {
	mu      sync.Mutex
	_       cacheLinePad
	cfg     Config
	adapter KeyAdapter[K, V]
	link    LinkAdapter[V]

	valueEqual EqualFunc[V]
	valueHash  ValueHasher[V]

	storage atomic.Pointer[icStorage[V]]

	size     atomic.Int64 // "volatile" in the Java original; atomic here for the same reason
	capacity int          // rehash threshold, not bucket count; writer-only, guarded by mu
}

// NewIntrusiveChainedTable builds a table for any value type V.
func NewIntrusiveChainedTable[K comparable, V any](
	adapter KeyAdapter[K, V],
	link LinkAdapter[V],
	valueEqual EqualFunc[V],
	valueHash ValueHasher[V],
	opts ...Option,
) *IntrusiveChainedTable[K, V] {
	if adapter == nil {
		panic("hash: NewIntrusiveChainedTable: adapter must not be nil")
	}
	if link == nil {
		panic("hash: NewIntrusiveChainedTable: link adapter must not be nil")
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	bucketCount := int(math.Ceil(float64(cfg.initialCapacity) * cfg.loadFactor))
	if bucketCount < 1 {
		bucketCount = 1
	}
	t := &IntrusiveChainedTable[K, V]{
		cfg:        cfg,
		adapter:    adapter,
		link:       link,
		valueEqual: valueEqual,
		valueHash:  valueHash,
		capacity:   int(math.Floor(float64(bucketCount) / cfg.loadFactor)),
	}
	t.storage.Store(newICStorage[V](bucketCount))
	return t
}

// NewComparableIntrusiveChainedTable is NewIntrusiveChainedTable with
// default (==-based) value equality and hashing for comparable V.
func NewComparableIntrusiveChainedTable[K comparable, V comparable](
	adapter KeyAdapter[K, V],
	link LinkAdapter[V],
	opts ...Option,
) *IntrusiveChainedTable[K, V] {
	return NewIntrusiveChainedTable[K, V](adapter, link, defaultValueEqual[V](), defaultValueHasher[V](), opts...)
}

func (t *IntrusiveChainedTable[K, V]) mustValueEqual() EqualFunc[V] {
	if t.valueEqual == nil {
		panic("hash: operation requires value equality; construct with NewComparableIntrusiveChainedTable or supply valueEqual explicitly")
	}
	return t.valueEqual
}

func (t *IntrusiveChainedTable[K, V]) mustValueHash() ValueHasher[V] {
	if t.valueHash == nil {
		panic("hash: operation requires value hashing; construct with NewComparableIntrusiveChainedTable or supply valueHash explicitly")
	}
	return t.valueHash
}

// Size returns the number of live entries.
func (t *IntrusiveChainedTable[K, V]) Size() int { return int(t.size.Load()) }

// IsEmpty reports whether Size() == 0.
func (t *IntrusiveChainedTable[K, V]) IsEmpty() bool { return t.Size() == 0 }

// BucketCount returns the current number of chain heads.
func (t *IntrusiveChainedTable[K, V]) BucketCount() int { return len(t.storage.Load().buckets) }

// Capacity returns the rehash threshold (spec.md section 6's shared
// Collection surface; KeyedObjectIntrusiveChainedHash.java's own capacity
// field), distinct from BucketCount: capacity is the size at which the next
// insertion triggers a rehash, not the number of chain heads. t.capacity is
// writer-only and only ever mutated under mu (by rehashLocked), so reading
// it safely from any goroutine requires taking the same lock.
func (t *IntrusiveChainedTable[K, V]) Capacity() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.capacity
}

func (t *IntrusiveChainedTable[K, V]) bucketIndex(st *icStorage[V], key K) int {
	h := maskHash(t.adapter.HashKey(key))
	return int(h % uint64(len(st.buckets)))
}

// Get walks the bucket's chain with no locking, per spec.md section 4.4.
func (t *IntrusiveChainedTable[K, V]) Get(key K) (V, bool) {
	st := t.storage.Load()
	cur := st.buckets[t.bucketIndex(st, key)].read()
	for !isNilValue(cur) {
		if t.adapter.EqualKey(key, cur) {
			return cur, true
		}
		cur = t.link.GetNext(cur)
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key is present.
func (t *IntrusiveChainedTable[K, V]) ContainsKey(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// Add is spec.md section 4.4's replacing-semantics add(value): if a
// key-equal node exists, value is spliced into its position (the old
// node's next copied onto value, the old node unlinked) and the displaced
// value is returned with size unchanged; otherwise value is appended at
// the chain's tail and size increments.
func (t *IntrusiveChainedTable[K, V]) Add(value V) (displaced V, existed bool, err error) {
	key := t.adapter.GetKey(value)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addLocked(key, value, false)
}

// AddIfAbsent is spec.md section 4.4's addIfAbsent: on a key match the
// chain is left untouched and the existing value is returned.
func (t *IntrusiveChainedTable[K, V]) AddIfAbsent(value V) (existing V, existed bool, err error) {
	key := t.adapter.GetKey(value)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addLocked(key, value, true)
}

func (t *IntrusiveChainedTable[K, V]) addLocked(key K, value V, ifAbsent bool) (prev V, existed bool, err error) {
	if !t.adapter.EqualKey(key, value) {
		var zero V
		return zero, false, ErrKeyInconsistent
	}
	st := t.storage.Load()
	idx := t.bucketIndex(st, key)
	bucket := &st.buckets[idx]
	head := bucket.read()

	var predecessor V
	hasPredecessor := false
	for cur := head; !isNilValue(cur); cur = t.link.GetNext(cur) {
		if !t.adapter.EqualKey(key, cur) {
			predecessor = cur
			hasPredecessor = true
			continue
		}
		if ifAbsent {
			return cur, true, nil
		}
		// Splice value in at cur's position: copy cur's next onto value,
		// then unlink cur by pointing value's predecessor (or the bucket
		// head) at value instead of cur. Size is unchanged.
		t.link.SetNext(value, t.link.GetNext(cur))
		if hasPredecessor {
			t.link.SetNext(predecessor, value)
		} else {
			bucket.write(value)
		}
		var zeroNext V
		t.link.SetNext(cur, zeroNext)
		return cur, true, nil
	}

	// No match: append at the tail.
	var zeroNext V
	t.link.SetNext(value, zeroNext)
	if hasPredecessor {
		t.link.SetNext(predecessor, value)
	} else {
		bucket.write(value)
	}
	newSize := t.size.Add(1)
	if int(newSize) > t.capacity && t.cfg.rehashEnabled {
		t.rehashLocked()
	}
	var zero V
	return zero, false, nil
}

// PutIfAbsentWithFactory mirrors OpenAddressedTable's find-or-create: an
// unsynchronized Get first, then a locked chain walk that calls factory at
// most once per winning insertion.
func (t *IntrusiveChainedTable[K, V]) PutIfAbsentWithFactory(
	key K, factory Factory[K, V], extras ...any,
) (V, error) {
	if v, ok := t.Get(key); ok {
		return v, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.storage.Load()
	idx := t.bucketIndex(st, key)
	bucket := &st.buckets[idx]
	head := bucket.read()

	var predecessor V
	hasPredecessor := false
	for cur := head; !isNilValue(cur); cur = t.link.GetNext(cur) {
		if t.adapter.EqualKey(key, cur) {
			return cur, nil
		}
		predecessor = cur
		hasPredecessor = true
	}

	newValue := factory(key, extras...)
	if !t.adapter.EqualKey(key, newValue) {
		var zero V
		return zero, ErrKeyInconsistent
	}
	var zeroNext V
	t.link.SetNext(newValue, zeroNext)
	if hasPredecessor {
		t.link.SetNext(predecessor, newValue)
	} else {
		bucket.write(newValue)
	}
	newSize := t.size.Add(1)
	if int(newSize) > t.capacity && t.cfg.rehashEnabled {
		t.rehashLocked()
	}
	return newValue, nil
}

// RemoveKey walks the chain, unlinking a matching node (updating either
// the bucket head or the predecessor's next) and clearing the removed
// node's own next link so it does not retain a stale chain reference.
func (t *IntrusiveChainedTable[K, V]) RemoveKey(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeKeyLocked(key)
}

func (t *IntrusiveChainedTable[K, V]) removeKeyLocked(key K) (V, bool) {
	st := t.storage.Load()
	idx := t.bucketIndex(st, key)
	bucket := &st.buckets[idx]
	head := bucket.read()

	var predecessor V
	hasPredecessor := false
	for cur := head; !isNilValue(cur); cur = t.link.GetNext(cur) {
		if !t.adapter.EqualKey(key, cur) {
			predecessor = cur
			hasPredecessor = true
			continue
		}
		next := t.link.GetNext(cur)
		if hasPredecessor {
			t.link.SetNext(predecessor, next)
		} else {
			bucket.write(next)
		}
		var zero V
		t.link.SetNext(cur, zero)
		t.size.Add(-1)
		return cur, true
	}
	var zero V
	return zero, false
}

// RemoveValue removes key's node only if its live value equals expected.
func (t *IntrusiveChainedTable[K, V]) RemoveValue(key K, expected V) (bool, error) {
	eq := t.mustValueEqual()
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.Get(key)
	if !ok || !eq(v, expected) {
		return false, nil
	}
	_, removed := t.removeKeyLocked(key)
	return removed, nil
}

// rehashLocked doubles the bucket count and rethreads every chain,
// detaching each old bucket and prepending its nodes into the new bucket
// they now hash to — which reverses per-bucket order, acceptable because
// intrusive-table iteration order is unspecified (spec.md section 4.4).
// Must be called with mu held; never runs unless rehashEnabled.
func (t *IntrusiveChainedTable[K, V]) rehashLocked() {
	old := t.storage.Load()
	newBucketCount := len(old.buckets) * 2
	newCapacity := int(math.Floor(float64(newBucketCount) / t.cfg.loadFactor))
	newSt := newICStorage[V](newBucketCount)

	for i := range old.buckets {
		cur := old.buckets[i].head
		for !isNilValue(cur) {
			next := t.link.GetNext(cur)
			idx := int(maskHash(t.adapter.HashKey(t.adapter.GetKey(cur))) % uint64(newBucketCount))
			t.link.SetNext(cur, newSt.buckets[idx].head)
			newSt.buckets[idx].head = cur
			cur = next
		}
	}

	t.storage.Store(newSt)
	t.capacity = newCapacity
	t.cfg.logRehash("IntrusiveChainedTable", len(old.buckets), newBucketCount, int(t.size.Load()))
}

// Clear empties every chain. Ends with size == 0 or raises
// InternalInvariantBroken, per spec.md section 4.4.
func (t *IntrusiveChainedTable[K, V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.storage.Load()
	removed := 0
	var zero V
	for i := range st.buckets {
		cur := st.buckets[i].head
		for !isNilValue(cur) {
			next := t.link.GetNext(cur)
			t.link.SetNext(cur, zero)
			cur = next
			removed++
		}
		st.buckets[i].write(zero)
	}
	t.size.Add(int64(-removed))
	if t.size.Load() != 0 {
		invariantBroken("clear left nonzero size")
	}
}

// Compact is not supported on an intrusive table: there are no tombstones
// to purge, only chain length to rebalance via ordinary rehash. Resolves
// spec.md's Open Question about compact on the intrusive table
// (SPEC_FULL.md section 4).
func (t *IntrusiveChainedTable[K, V]) Compact() error { return ErrCompactUnsupported }

// Range calls yield for every live entry until it returns false or entries
// are exhausted. Iteration during concurrent writes is permitted but
// undefined, per spec.md section 4.4.
func (t *IntrusiveChainedTable[K, V]) Range(yield func(key K, value V) bool) {
	st := t.storage.Load()
	for i := range st.buckets {
		for cur := st.buckets[i].read(); !isNilValue(cur); cur = t.link.GetNext(cur) {
			if !yield(t.adapter.GetKey(cur), cur) {
				return
			}
		}
	}
}

// PutAll adds every value in values under a single lock acquisition.
func (t *IntrusiveChainedTable[K, V]) PutAll(values []V) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range values {
		if _, _, err := t.addLocked(t.adapter.GetKey(v), v, false); err != nil {
			return err
		}
	}
	return nil
}

// AddAll is PutAll under the set-oriented name.
func (t *IntrusiveChainedTable[K, V]) AddAll(values []V) error { return t.PutAll(values) }

// ContainsAll reports whether every value in values is present with an
// equal live value.
func (t *IntrusiveChainedTable[K, V]) ContainsAll(values []V) bool {
	eq := t.mustValueEqual()
	for _, v := range values {
		got, ok := t.Get(t.adapter.GetKey(v))
		if !ok || !eq(got, v) {
			return false
		}
	}
	return true
}

// RemoveAll removes every value in values whose live value equals the given
// one, returning the count actually removed. Mirrors
// OpenAddressedTable.RemoveAll, adapted to chain-walk-and-unlink instead of
// probe-and-tombstone.
func (t *IntrusiveChainedTable[K, V]) RemoveAll(values []V) int {
	eq := t.mustValueEqual()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range values {
		key := t.adapter.GetKey(v)
		got, ok := t.Get(key)
		if ok && eq(got, v) {
			if _, removed := t.removeKeyLocked(key); removed {
				n++
			}
		}
	}
	return n
}

// RetainAll removes every live value not present (by equality) in values,
// returning the count removed. Mirrors OpenAddressedTable.RetainAll,
// walking and unlinking within each bucket's chain rather than tombstoning
// a slot.
func (t *IntrusiveChainedTable[K, V]) RetainAll(values []V) int {
	eq := t.mustValueEqual()
	keep := make([]V, 0, len(values))
	keep = append(keep, values...)
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.storage.Load()
	n := 0
	for i := range st.buckets {
		bucket := &st.buckets[i]
		cur := bucket.read()
		var predecessor V
		hasPredecessor := false
		for !isNilValue(cur) {
			next := t.link.GetNext(cur)
			found := false
			for _, k := range keep {
				if eq(cur, k) {
					found = true
					break
				}
			}
			if !found {
				if hasPredecessor {
					t.link.SetNext(predecessor, next)
				} else {
					bucket.write(next)
				}
				var zero V
				t.link.SetNext(cur, zero)
				t.size.Add(-1)
				n++
			} else {
				predecessor = cur
				hasPredecessor = true
			}
			cur = next
		}
	}
	return n
}

// Clone is unsupported on an intrusive table: its chain links live inside
// the value objects themselves (LinkAdapter), so a clone sharing those same
// V instances would have both tables writing conflicting "next" pointers
// into one shared field the instant either table mutated its own chains.
// The Java original (KeyedObjectIntrusiveChainedHash.java) never exposes
// clone() on this family for the same reason; see DESIGN.md.
func (t *IntrusiveChainedTable[K, V]) Clone() (*IntrusiveChainedTable[K, V], error) {
	return nil, ErrCloneUnsupported
}

// MapEquals implements spec.md section 6's map-equality contract.
func (t *IntrusiveChainedTable[K, V]) MapEquals(other *IntrusiveChainedTable[K, V]) bool {
	eq := t.mustValueEqual()
	if t.Size() != other.Size() {
		return false
	}
	equal := true
	t.Range(func(k K, v V) bool {
		ov, ok := other.Get(k)
		if !ok || !eq(v, ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// MapHashCode implements spec.md section 6's map hash code.
func (t *IntrusiveChainedTable[K, V]) MapHashCode() uint64 {
	valueHash := t.mustValueHash()
	var keys []K
	var values []V
	t.Range(func(k K, v V) bool {
		keys = append(keys, k)
		values = append(values, v)
		return true
	})
	return mapHashCode(keys, values, t.adapter.HashKey, valueHash)
}

// SetEquals implements spec.md section 6's set-equality contract.
func (t *IntrusiveChainedTable[K, V]) SetEquals(other *IntrusiveChainedTable[K, V]) bool {
	eq := t.mustValueEqual()
	if t.Size() != other.Size() {
		return false
	}
	equal := true
	t.Range(func(_ K, v V) bool {
		found := false
		other.Range(func(_ K, ov V) bool {
			if eq(v, ov) {
				found = true
				return false
			}
			return true
		})
		if !found {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// SetHashCode implements spec.md section 6's set hash code.
func (t *IntrusiveChainedTable[K, V]) SetHashCode() uint64 {
	valueHash := t.mustValueHash()
	var values []V
	t.Range(func(_ K, v V) bool {
		values = append(values, v)
		return true
	})
	return setHashCode(values, valueHash)
}
