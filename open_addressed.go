package hash

import (
	"math"
	"reflect"
	"sync"
	"sync/atomic"
)

// oaSlotState is the tagged state of a single open-addressed slot, per
// spec.md section 9's "tagged enum slot with variants {Empty, Tombstone,
// Live(V)}" design note.
type oaSlotState int8

const (
	oaEmpty oaSlotState = iota
	oaTombstone
	oaLive
)

// oaSlot stores only a value, never a separately-kept key: the key is
// always derived on demand via KeyAdapter.GetKey, which is this library's
// entire reason for existing (spec.md section 1). Its seq field implements
// a per-slot seqlock, grounded on the teacher's SeqFlatMapOf
// (seq_flat_mapof.go): writers bump seq odd, mutate, bump seq even again;
// readers retry a slot whose seq is odd or changes mid-read. This is the
// concrete mechanism behind spec.md section 4.3's "slot writes use release
// semantics, slot reads use acquire semantics."
type oaSlot[V any] struct {
	seq   atomic.Uint32
	state oaSlotState
	value V
}

func (s *oaSlot[V]) read() (oaSlotState, V) {
	for {
		s1 := s.seq.Load()
		if s1&1 != 0 {
			continue
		}
		st, v := s.state, s.value
		s2 := s.seq.Load()
		if s1 == s2 {
			return st, v
		}
	}
}

// write publishes a new state/value under the writer lock. Must only be
// called by the single writer holding OpenAddressedTable.mu.
func (s *oaSlot[V]) write(st oaSlotState, v V) {
	s.seq.Add(1)
	s.state = st
	s.value = v
	s.seq.Add(1)
}

// oaStorage is the swappable unit of spec.md section 4.3's rehash-by-swap
// protocol: a complete, immutable-in-identity slot array. A reader that
// loaded a *oaStorage before a concurrent rehash keeps observing that exact
// array (and its invariants) to completion; the atomic.Pointer swap in
// OpenAddressedTable.storage is what makes the exchange indivisible from a
// reader's point of view.
type oaStorage[V any] struct {
	slots []oaSlot[V]
}

func newOAStorage[V any](capacity int) *oaStorage[V] {
	return &oaStorage[V]{slots: make([]oaSlot[V], capacity)}
}

// oaProbe walks the double-hash probe sequence from spec.md section 4.3:
// first probe at h mod L, then decreasing by step = 1 + (h mod (L-2)) with
// modular wraparound. Because L is prime and coprime with step, the
// sequence visits every one of the L slots exactly once before it would
// repeat, so a probe that has run L times without resolving indicates
// table corruption (spec.md section 7's CycleDetected).
type oaProbe struct {
	index int
	step  int
	l     int
	n     int
}

func newOAProbe(h uint64, l int) oaProbe {
	return oaProbe{
		index: int(h % uint64(l)),
		step:  1 + int(h%uint64(l-2)),
		l:     l,
	}
}

func (p *oaProbe) next() int {
	if p.n >= p.l {
		cycleDetected()
	}
	cur := p.index
	p.index -= p.step
	if p.index < 0 {
		p.index += p.l
	}
	p.n++
	return cur
}

func computeMaxSize(capacity int, loadFactor float64) int {
	m := int(math.Floor(float64(capacity) * loadFactor))
	if capacity-1 < m {
		return capacity - 1
	}
	return m
}

// OpenAddressedTable is the flat, double-hash-probed, tombstone-deleting
// table of spec.md section 4.3, grounding the Java original's
// KeyedObjectHash.java and its primitive-key siblings. Reads (Get,
// ContainsKey, Range) never block. Writes are serialized under one mutex,
// following the teacher's own single-root-lock write discipline
// (seq_flat_mapof.go).
type OpenAddressedTable[K comparable, V any] struct {
	mu      sync.Mutex
	_       cacheLinePad
	cfg     Config
	adapter KeyAdapter[K, V]

	valueEqual EqualFunc[V]
	valueHash  ValueHasher[V]

	storage atomic.Pointer[oaStorage[V]]

	size    atomic.Int64
	free    atomic.Int64
	maxSize atomic.Int64

	// indexList backs ByIndex (spec.md section 6's getByIndex): built
	// lazily on first call, invalidated by every mutation. Ported from
	// KeyedObjectHash.java's _indexableList.
	indexList atomic.Pointer[[]V]
}

// NewOpenAddressedTable builds a table for any value type V. Operations
// that need value equality (ReplaceExpected, MapEquals, SetEquals) panic if
// called without valueEqual/valueHash supplied here; use
// NewComparableOpenAddressedTable when V is comparable for sensible
// defaults.
func NewOpenAddressedTable[K comparable, V any](
	adapter KeyAdapter[K, V],
	valueEqual EqualFunc[V],
	valueHash ValueHasher[V],
	opts ...Option,
) *OpenAddressedTable[K, V] {
	if adapter == nil {
		panic("hash: NewOpenAddressedTable: adapter must not be nil")
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	capacity := NextPrime(int(math.Ceil(float64(cfg.initialCapacity) / cfg.loadFactor)))
	t := &OpenAddressedTable[K, V]{
		cfg:        cfg,
		adapter:    adapter,
		valueEqual: valueEqual,
		valueHash:  valueHash,
	}
	t.storage.Store(newOAStorage[V](capacity))
	t.maxSize.Store(int64(computeMaxSize(capacity, cfg.loadFactor)))
	t.free.Store(int64(capacity))
	return t
}

// NewComparableOpenAddressedTable is NewOpenAddressedTable with
// default (==-based) value equality and hashing derived automatically, for
// the common case where V is comparable.
func NewComparableOpenAddressedTable[K comparable, V comparable](
	adapter KeyAdapter[K, V],
	opts ...Option,
) *OpenAddressedTable[K, V] {
	return NewOpenAddressedTable[K, V](adapter, defaultValueEqual[V](), defaultValueHasher[V](), opts...)
}

func (t *OpenAddressedTable[K, V]) mustValueEqual() EqualFunc[V] {
	if t.valueEqual == nil {
		panic("hash: operation requires value equality; construct with NewComparableOpenAddressedTable or supply valueEqual explicitly")
	}
	return t.valueEqual
}

func (t *OpenAddressedTable[K, V]) mustValueHash() ValueHasher[V] {
	if t.valueHash == nil {
		panic("hash: operation requires value hashing; construct with NewComparableOpenAddressedTable or supply valueHash explicitly")
	}
	return t.valueHash
}

// Size returns the number of live entries.
func (t *OpenAddressedTable[K, V]) Size() int { return int(t.size.Load()) }

// IsEmpty reports whether Size() == 0.
func (t *OpenAddressedTable[K, V]) IsEmpty() bool { return t.Size() == 0 }

// Capacity returns the current physical slot count.
func (t *OpenAddressedTable[K, V]) Capacity() int { return len(t.storage.Load().slots) }

// Get is spec.md section 4.3's concurrent-safe get: no locking, snapshots
// storage once, walks the probe sequence.
func (t *OpenAddressedTable[K, V]) Get(key K) (V, bool) {
	st := t.storage.Load()
	h := maskHash(t.adapter.HashKey(key))
	p := newOAProbe(h, len(st.slots))
	for {
		idx := p.next()
		state, v := st.slots[idx].read()
		switch state {
		case oaEmpty:
			var zero V
			return zero, false
		case oaTombstone:
			continue
		default:
			if t.adapter.EqualKey(key, v) {
				return v, true
			}
		}
	}
}

// ContainsKey reports whether key is present.
func (t *OpenAddressedTable[K, V]) ContainsKey(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// ContainsValue does an O(capacity) scan, as permitted by spec.md section 6.
func (t *OpenAddressedTable[K, V]) ContainsValue(value V) bool {
	eq := t.mustValueEqual()
	st := t.storage.Load()
	for i := range st.slots {
		state, v := st.slots[i].read()
		if state == oaLive && eq(v, value) {
			return true
		}
	}
	return false
}

type putMode int

const (
	putNormal putMode = iota
	putIfAbsentMode
	putReplaceMode
)

// internalPut is the single locus of spec.md section 4.3's semantics table
// (Normal/IF_ABSENT/REPLACE) and its tombstone-remembering probe: the first
// tombstone seen is remembered and used as the eventual insertion point
// instead of the empty slot that terminates the probe, shortening future
// probes for this key while preserving the append-only invariant.
func (t *OpenAddressedTable[K, V]) internalPut(
	key K, value V, mode putMode, expected V, hasExpected bool,
) (prev V, existed bool, replaced bool, err error) {
	if !t.adapter.EqualKey(key, value) {
		var zero V
		return zero, false, false, ErrKeyInconsistent
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.storage.Load()
	h := maskHash(t.adapter.HashKey(key))
	p := newOAProbe(h, len(st.slots))
	firstTombstone := -1

	for {
		idx := p.next()
		slot := &st.slots[idx]
		state, v := slot.read()
		switch state {
		case oaEmpty:
			if mode == putReplaceMode {
				var zero V
				return zero, false, false, nil
			}
			insertAt := idx
			usedFreeSlot := true
			if firstTombstone >= 0 {
				insertAt = firstTombstone
				usedFreeSlot = false
			}
			st.slots[insertAt].write(oaLive, value)
			t.postInsertHookLocked(usedFreeSlot)
			var zero V
			return zero, false, true, nil

		case oaTombstone:
			if firstTombstone < 0 {
				firstTombstone = idx
			}
			continue

		default: // oaLive
			if !t.adapter.EqualKey(key, v) {
				continue
			}
			switch mode {
			case putIfAbsentMode:
				return v, true, false, nil
			case putReplaceMode:
				if hasExpected && !t.mustValueEqual()(v, expected) {
					return v, true, false, nil
				}
				slot.write(oaLive, value)
				t.invalidateIndex()
				return v, true, true, nil
			default:
				slot.write(oaLive, value)
				t.invalidateIndex()
				return v, true, true, nil
			}
		}
	}
}

// Put is spec.md section 4.3's Normal put: insert-or-replace, returning the
// previous value if any.
func (t *OpenAddressedTable[K, V]) Put(key K, value V) (prev V, existed bool, err error) {
	prev, existed, _, err = t.internalPut(key, value, putNormal, value, false)
	return
}

// Add derives the key from value and Puts it, the set-style entry point
// ported from KeyedObjectHash.java's add(value).
func (t *OpenAddressedTable[K, V]) Add(value V) (prev V, existed bool, err error) {
	return t.Put(t.adapter.GetKey(value), value)
}

// PutIfAbsent is spec.md section 4.3's IF_ABSENT mode.
func (t *OpenAddressedTable[K, V]) PutIfAbsent(key K, value V) (existing V, existed bool, err error) {
	existing, existed, _, err = t.internalPut(key, value, putIfAbsentMode, value, false)
	return
}

// Replace is the 2-argument REPLACE mode: replace unconditionally if key
// exists, otherwise do nothing.
func (t *OpenAddressedTable[K, V]) Replace(key K, value V) (prev V, existed bool, err error) {
	prev, existed, _, err = t.internalPut(key, value, putReplaceMode, value, false)
	return
}

// ReplaceExpected is the 3-argument replace(key, old, new). Per
// SPEC_FULL.md section 4's resolution of spec.md's Open Question:
// "replaced" means the key was found and its live value equaled old (via
// the table's ValueEqual); on true the slot is overwritten with new.
func (t *OpenAddressedTable[K, V]) ReplaceExpected(key K, old, next V) (replaced bool, err error) {
	if isNilValue(old) {
		return false, ErrNullValue
	}
	_, existed, replaced, err := t.internalPut(key, next, putReplaceMode, old, true)
	if err != nil || !existed {
		return false, err
	}
	return replaced, nil
}

// PutIfAbsentWithFactory is spec.md section 4.3's atomic find-or-create: an
// unsynchronized Get first, then (on miss) a locked re-probe that calls
// factory at most once per winning insertion. Concurrent losers observe the
// winner's value without invoking their own factory.
func (t *OpenAddressedTable[K, V]) PutIfAbsentWithFactory(
	key K, factory Factory[K, V], extras ...any,
) (V, error) {
	if v, ok := t.Get(key); ok {
		return v, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.storage.Load()
	h := maskHash(t.adapter.HashKey(key))
	p := newOAProbe(h, len(st.slots))
	firstTombstone := -1

	for {
		idx := p.next()
		slot := &st.slots[idx]
		state, v := slot.read()
		switch state {
		case oaEmpty:
			newValue := factory(key, extras...)
			if !t.adapter.EqualKey(key, newValue) {
				var zero V
				return zero, ErrKeyInconsistent
			}
			insertAt := idx
			usedFreeSlot := true
			if firstTombstone >= 0 {
				insertAt = firstTombstone
				usedFreeSlot = false
			}
			st.slots[insertAt].write(oaLive, newValue)
			t.postInsertHookLocked(usedFreeSlot)
			return newValue, nil

		case oaTombstone:
			if firstTombstone < 0 {
				firstTombstone = idx
			}
			continue

		default:
			if t.adapter.EqualKey(key, v) {
				return v, nil
			}
			continue
		}
	}
}

// RemoveKey probes to locate key; on hit writes a tombstone and decrements
// size. free is left unchanged: removals do not restore empty slots until
// a rehash or compaction runs, per spec.md section 4.3.
func (t *OpenAddressedTable[K, V]) RemoveKey(key K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeKeyLocked(key)
}

func (t *OpenAddressedTable[K, V]) removeKeyLocked(key K) (V, bool) {
	st := t.storage.Load()
	h := maskHash(t.adapter.HashKey(key))
	p := newOAProbe(h, len(st.slots))
	for {
		idx := p.next()
		state, v := st.slots[idx].read()
		switch state {
		case oaEmpty:
			var zero V
			return zero, false
		case oaTombstone:
			continue
		default:
			if !t.adapter.EqualKey(key, v) {
				continue
			}
			var zero V
			st.slots[idx].write(oaTombstone, zero)
			t.size.Add(-1)
			t.invalidateIndex()
			return v, true
		}
	}
}

// Remove removes key only if its live value equals expected.
func (t *OpenAddressedTable[K, V]) Remove(key K, expected V) (bool, error) {
	eq := t.mustValueEqual()
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.storage.Load()
	h := maskHash(t.adapter.HashKey(key))
	p := newOAProbe(h, len(st.slots))
	for {
		idx := p.next()
		state, v := st.slots[idx].read()
		switch state {
		case oaEmpty:
			return false, nil
		case oaTombstone:
			continue
		default:
			if !t.adapter.EqualKey(key, v) {
				continue
			}
			if !eq(v, expected) {
				return false, nil
			}
			var zero V
			st.slots[idx].write(oaTombstone, zero)
			t.size.Add(-1)
			t.invalidateIndex()
			return true, nil
		}
	}
}

// postInsertHookLocked is KHash.java's postInsertHook, ported verbatim
// (SPEC_FULL.md section 3): decrement free if a truly-empty slot was used,
// increment size, then rehash to double capacity if size exceeds maxSize,
// or to the same capacity if free has dropped to 1 (reclaiming tombstones
// before a reader could ever observe a slotless array). Must be called
// with mu held.
func (t *OpenAddressedTable[K, V]) postInsertHookLocked(usedFreeSlot bool) {
	if usedFreeSlot {
		t.free.Add(-1)
	}
	newSize := t.size.Add(1)
	t.invalidateIndex()
	maxSize := t.maxSize.Load()
	free := t.free.Load()
	if newSize > maxSize || free == 1 {
		capacity := len(t.storage.Load().slots)
		var newCapacity int
		if newSize > maxSize {
			newCapacity = NextPrime(capacity << 1)
		} else {
			newCapacity = capacity
		}
		if newCapacity < capacity {
			invariantBroken("newCapacity < capacity during post-insert rehash")
		}
		t.rehashLocked(newCapacity)
	}
}

// rehashLocked builds a fresh array off to the side and swaps it in with a
// single atomic pointer store, per spec.md section 4.3's rehash-by-swap.
// Must be called with mu held.
func (t *OpenAddressedTable[K, V]) rehashLocked(newCapacity int) {
	newCapacity = NextPrime(newCapacity)
	old := t.storage.Load()
	newSt := newOAStorage[V](newCapacity)
	live := 0
	for i := range old.slots {
		state, v := old.slots[i].read()
		if state != oaLive {
			continue
		}
		h := maskHash(t.adapter.HashKey(t.adapter.GetKey(v)))
		insertLiveUnsynchronized(newSt, h, v)
		live++
	}
	t.storage.Store(newSt)
	t.free.Store(int64(newCapacity - live))
	t.maxSize.Store(int64(computeMaxSize(newCapacity, t.cfg.loadFactor)))
	t.invalidateIndex()
	t.cfg.logRehash("OpenAddressedTable", len(old.slots), newCapacity, live)
}

// insertLiveUnsynchronized inserts into a freshly-allocated, not-yet-shared
// storage array; no seqlock discipline is needed since no reader can
// observe it before the atomic.Pointer swap publishes it.
func insertLiveUnsynchronized[V any](st *oaStorage[V], h uint64, v V) {
	p := newOAProbe(h, len(st.slots))
	for {
		idx := p.next()
		if st.slots[idx].state == oaEmpty {
			st.slots[idx].state = oaLive
			st.slots[idx].value = v
			return
		}
	}
}

// EnsureCapacity rehashes ahead of time so that n additional puts will not
// trigger a rehash, per spec.md section 4.3.
func (t *OpenAddressedTable[K, V]) EnsureCapacity(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := int(t.size.Load())
	maxSize := int(t.maxSize.Load())
	if n > maxSize-size {
		target := NextPrime(int(math.Ceil(float64(n+size)/t.cfg.loadFactor)) + 1)
		t.rehashLocked(target)
	}
}

// Compact rehashes to the smallest prime capacity that keeps load at or
// below loadFactor for the current size, purging tombstones, per spec.md
// section 4.3.
func (t *OpenAddressedTable[K, V]) Compact() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := int(t.size.Load())
	oldCapacity := len(t.storage.Load().slots)
	tombstones := oldCapacity - size - int(t.free.Load())
	target := NextPrime(int(math.Ceil(float64(size)/t.cfg.loadFactor)) + 1)
	t.rehashLocked(target)
	t.cfg.logCompact("OpenAddressedTable", oldCapacity, len(t.storage.Load().slots), tombstones)
	return nil
}

// TrimToSize is an alias for Compact, kept for symmetry with other
// collection classes (KHash.java's trimToSize).
func (t *OpenAddressedTable[K, V]) TrimToSize() error { return t.Compact() }

// Clear empties the table without shrinking its capacity. Builds a fresh,
// all-empty oaStorage off to the side and publishes it with a single
// atomic.Pointer swap, the same rehash-by-swap protocol rehashLocked uses
// (spec.md section 4.3), rather than mutating the live array slot by slot:
// an in-place clear would let a concurrent lock-free Get observe a
// partially-cleared array, where an already-emptied slot earlier in a key's
// probe chain masks a not-yet-cleared live slot still later in the array,
// producing a false miss mid-Clear. Grounds KeyedObjectHash.java's own
// clear(), which replaces its backing array wholesale
// (`storage = new Object[storage.length]`) rather than zeroing it in place.
func (t *OpenAddressedTable[K, V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	capacity := len(t.storage.Load().slots)
	t.storage.Store(newOAStorage[V](capacity))
	t.size.Store(0)
	t.free.Store(int64(capacity))
	t.invalidateIndex()
	if t.size.Load() != 0 {
		invariantBroken("clear left nonzero size")
	}
}

// Range calls yield for every live entry until it returns false or entries
// are exhausted. Iteration during concurrent writes is permitted but
// undefined, per spec.md section 4.3. Grounds the teacher's own Range
// idiom (mapof.go, flat_mapof.go, seq_flat_mapof.go).
func (t *OpenAddressedTable[K, V]) Range(yield func(key K, value V) bool) {
	st := t.storage.Load()
	for i := range st.slots {
		state, v := st.slots[i].read()
		if state != oaLive {
			continue
		}
		if !yield(t.adapter.GetKey(v), v) {
			return
		}
	}
}

// PutAll inserts every value in values under a single lock acquisition,
// grounding KeyedObjectHash.java's putAll.
func (t *OpenAddressedTable[K, V]) PutAll(values []V) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range values {
		key := t.adapter.GetKey(v)
		if _, _, _, err := t.internalPutNoLock(key, v, putNormal, v, false); err != nil {
			return err
		}
	}
	return nil
}

// AddAll is PutAll under the set-oriented name, matching
// KeyedObjectHash.java's addAll.
func (t *OpenAddressedTable[K, V]) AddAll(values []V) error { return t.PutAll(values) }

// internalPutNoLock is internalPut's Normal-mode put without acquiring mu,
// for batch callers that already hold it (PutAll/AddAll). It always
// inserts or replaces: mode, expected and hasExpected are not consulted.
func (t *OpenAddressedTable[K, V]) internalPutNoLock(
	key K, value V, mode putMode, expected V, hasExpected bool,
) (prev V, existed bool, replaced bool, err error) {
	if !t.adapter.EqualKey(key, value) {
		var zero V
		return zero, false, false, ErrKeyInconsistent
	}
	st := t.storage.Load()
	h := maskHash(t.adapter.HashKey(key))
	p := newOAProbe(h, len(st.slots))
	firstTombstone := -1
	for {
		idx := p.next()
		slot := &st.slots[idx]
		state, v := slot.read()
		switch state {
		case oaEmpty:
			insertAt := idx
			usedFreeSlot := true
			if firstTombstone >= 0 {
				insertAt = firstTombstone
				usedFreeSlot = false
			}
			slotVal := value
			st.slots[insertAt].write(oaLive, slotVal)
			t.postInsertHookLocked(usedFreeSlot)
			// rehash may have replaced storage; refresh for subsequent
			// iterations of the caller's loop by returning normally.
			var zero V
			return zero, false, true, nil
		case oaTombstone:
			if firstTombstone < 0 {
				firstTombstone = idx
			}
			continue
		default:
			if !t.adapter.EqualKey(key, v) {
				continue
			}
			slot.write(oaLive, value)
			t.invalidateIndex()
			return v, true, true, nil
		}
	}
}

// ContainsAll reports whether every value in values is present with an
// equal live value.
func (t *OpenAddressedTable[K, V]) ContainsAll(values []V) bool {
	eq := t.mustValueEqual()
	for _, v := range values {
		got, ok := t.Get(t.adapter.GetKey(v))
		if !ok || !eq(got, v) {
			return false
		}
	}
	return true
}

// RemoveAll removes every value in values whose live value equals the
// given one, returning the count actually removed.
func (t *OpenAddressedTable[K, V]) RemoveAll(values []V) int {
	eq := t.mustValueEqual()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range values {
		key := t.adapter.GetKey(v)
		st := t.storage.Load()
		h := maskHash(t.adapter.HashKey(key))
		p := newOAProbe(h, len(st.slots))
		for {
			idx := p.next()
			state, cur := st.slots[idx].read()
			if state == oaEmpty {
				break
			}
			if state == oaTombstone {
				continue
			}
			if !t.adapter.EqualKey(key, cur) {
				continue
			}
			if eq(cur, v) {
				var zero V
				st.slots[idx].write(oaTombstone, zero)
				t.size.Add(-1)
				t.invalidateIndex()
				n++
			}
			break
		}
	}
	return n
}

// RetainAll removes every live value not present (by equality) in values,
// returning the count removed.
func (t *OpenAddressedTable[K, V]) RetainAll(values []V) int {
	eq := t.mustValueEqual()
	keep := make([]V, 0, len(values))
	keep = append(keep, values...)
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.storage.Load()
	n := 0
	for i := range st.slots {
		state, v := st.slots[i].read()
		if state != oaLive {
			continue
		}
		found := false
		for _, k := range keep {
			if eq(v, k) {
				found = true
				break
			}
		}
		if !found {
			var zero V
			st.slots[i].write(oaTombstone, zero)
			t.size.Add(-1)
			n++
		}
	}
	if n > 0 {
		t.invalidateIndex()
	}
	return n
}

// Clone returns a new table with the same adapter, config, and live
// entries, rehashed into a freshly allocated array of the same capacity.
// Grounds KHash.java's clone()/KeyedObjectHash.java's swap-based clone.
func (t *OpenAddressedTable[K, V]) Clone() *OpenAddressedTable[K, V] {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.storage.Load()
	clone := &OpenAddressedTable[K, V]{
		cfg:        t.cfg,
		adapter:    t.adapter,
		valueEqual: t.valueEqual,
		valueHash:  t.valueHash,
	}
	newSt := newOAStorage[V](len(st.slots))
	live := 0
	for i := range st.slots {
		state, v := st.slots[i].read()
		if state != oaLive {
			continue
		}
		h := maskHash(t.adapter.HashKey(t.adapter.GetKey(v)))
		insertLiveUnsynchronized(newSt, h, v)
		live++
	}
	clone.storage.Store(newSt)
	clone.size.Store(int64(live))
	clone.free.Store(int64(len(st.slots) - live))
	clone.maxSize.Store(t.maxSize.Load())
	return clone
}

// ByIndex returns the i'th live value in an arbitrary, table-defined but
// stable-until-next-mutation order, grounding KeyedObjectHash.java's
// getByIndex/_indexableList: the snapshot is built lazily on first call and
// invalidated by every subsequent mutation. Unlike Get, this takes the
// write lock, since the snapshot is an auxiliary index, not the primary
// store (SPEC_FULL.md section 3).
func (t *OpenAddressedTable[K, V]) ByIndex(i int) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.indexList.Load()
	if list == nil {
		st := t.storage.Load()
		built := make([]V, 0, t.size.Load())
		for j := range st.slots {
			state, v := st.slots[j].read()
			if state == oaLive {
				built = append(built, v)
			}
		}
		t.indexList.Store(&built)
		list = &built
	}
	if i < 0 || i >= len(*list) {
		var zero V
		return zero, false
	}
	return (*list)[i], true
}

func (t *OpenAddressedTable[K, V]) invalidateIndex() {
	t.indexList.Store(nil)
}

// MapEquals implements spec.md section 6's map-equality contract: same
// size, and for every live value here, other.Get(key) equals it.
func (t *OpenAddressedTable[K, V]) MapEquals(other *OpenAddressedTable[K, V]) bool {
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

// MapHashCode implements spec.md section 6's map hash code: the sum over
// live entries of hashOf(key) XOR hashOf(value).
func (t *OpenAddressedTable[K, V]) MapHashCode() uint64 {
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
func (t *OpenAddressedTable[K, V]) SetEquals(other *OpenAddressedTable[K, V]) bool {
	eq := t.mustValueEqual()
	if t.Size() != other.Size() {
		return false
	}
	otherValues := other.storage.Load()
	equal := true
	t.Range(func(_ K, v V) bool {
		found := false
		for i := range otherValues.slots {
			state, ov := otherValues.slots[i].read()
			if state == oaLive && eq(v, ov) {
				found = true
				break
			}
		}
		if !found {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// SetHashCode implements spec.md section 6's set hash code: the sum of
// value hashes.
func (t *OpenAddressedTable[K, V]) SetHashCode() uint64 {
	valueHash := t.mustValueHash()
	var values []V
	t.Range(func(_ K, v V) bool {
		values = append(values, v)
		return true
	})
	return setHashCode(values, valueHash)
}

// isNilValue reports whether v is a nil pointer/interface/map/slice/chan/
// func, used to detect the NullValueDisallowed case of spec.md section 7.
func isNilValue[V any](v V) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}
