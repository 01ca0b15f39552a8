package hash

// This file ports KeyedObjectHash.java's inner KeySet/ValueCollection/
// EntrySet/BaseIterator/KeyIterator/ValueIterator/EntryIterator classes
// (SPEC_FULL.md section 3): thin live views over the table whose iterators
// snapshot the set of live values at construction and call back into
// RemoveKey on Remove, exactly mirroring the Java original's
// hasNext/scan/remove shape.

// oaBaseIterator snapshots every live value at construction (Java's `vs`
// array) and walks it; Remove() removes the value last returned from the
// underlying table.
type oaBaseIterator[K comparable, V any] struct {
	t       *OpenAddressedTable[K, V]
	vs      []V
	pos     int
	last    V
	hasLast bool
}

func newOABaseIterator[K comparable, V any](t *OpenAddressedTable[K, V]) *oaBaseIterator[K, V] {
	st := t.storage.Load()
	vs := make([]V, 0, t.Size())
	for i := range st.slots {
		state, v := st.slots[i].read()
		if state == oaLive {
			vs = append(vs, v)
		}
	}
	return &oaBaseIterator[K, V]{t: t, vs: vs}
}

// HasNext reports whether the snapshot has an unvisited element left.
func (it *oaBaseIterator[K, V]) HasNext() bool { return it.pos < len(it.vs) }

func (it *oaBaseIterator[K, V]) scan() V {
	v := it.vs[it.pos]
	it.pos++
	it.last = v
	it.hasLast = true
	return v
}

// Remove removes the value last returned by Next from the underlying
// table. Panics if called before any Next call, per spec.md section 7's
// NoSuchElement-style misuse guard.
func (it *oaBaseIterator[K, V]) Remove() {
	if !it.hasLast {
		panic("hash: Remove called before Next")
	}
	it.t.RemoveKey(it.t.adapter.GetKey(it.last))
	it.hasLast = false
}

// OAKeyIterator iterates the derived keys of a KeySet's snapshot.
type OAKeyIterator[K comparable, V any] struct{ base *oaBaseIterator[K, V] }

func (it *OAKeyIterator[K, V]) HasNext() bool { return it.base.HasNext() }
func (it *OAKeyIterator[K, V]) Next() K       { return it.base.t.adapter.GetKey(it.base.scan()) }
func (it *OAKeyIterator[K, V]) Remove()       { it.base.Remove() }

// OAValueIterator iterates a ValueCollection's snapshot.
type OAValueIterator[K comparable, V any] struct{ base *oaBaseIterator[K, V] }

func (it *OAValueIterator[K, V]) HasNext() bool { return it.base.HasNext() }
func (it *OAValueIterator[K, V]) Next() V       { return it.base.scan() }
func (it *OAValueIterator[K, V]) Remove()       { it.base.Remove() }

// OAEntry is a single key/value pair yielded by an OAEntryIterator.
type OAEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// OAEntryIterator iterates an EntrySet's snapshot.
type OAEntryIterator[K comparable, V any] struct{ base *oaBaseIterator[K, V] }

func (it *OAEntryIterator[K, V]) HasNext() bool { return it.base.HasNext() }
func (it *OAEntryIterator[K, V]) Next() OAEntry[K, V] {
	v := it.base.scan()
	return OAEntry[K, V]{Key: it.base.t.adapter.GetKey(v), Value: v}
}
func (it *OAEntryIterator[K, V]) Remove() { it.base.Remove() }

// OAKeySet is the live key-set view of a table (spec.md section 6).
type OAKeySet[K comparable, V any] struct{ t *OpenAddressedTable[K, V] }

// KeySet returns a live view of this table's derived keys.
func (t *OpenAddressedTable[K, V]) KeySet() *OAKeySet[K, V] { return &OAKeySet[K, V]{t} }

func (s *OAKeySet[K, V]) Len() int            { return s.t.Size() }
func (s *OAKeySet[K, V]) Contains(k K) bool   { return s.t.ContainsKey(k) }
func (s *OAKeySet[K, V]) Remove(k K) bool     { _, ok := s.t.RemoveKey(k); return ok }
func (s *OAKeySet[K, V]) Iterator() *OAKeyIterator[K, V] {
	return &OAKeyIterator[K, V]{base: newOABaseIterator(s.t)}
}

// OAValueCollection is the live value-collection view of a table.
type OAValueCollection[K comparable, V any] struct{ t *OpenAddressedTable[K, V] }

// Values returns a live view of this table's values.
func (t *OpenAddressedTable[K, V]) Values() *OAValueCollection[K, V] {
	return &OAValueCollection[K, V]{t}
}

func (c *OAValueCollection[K, V]) Len() int          { return c.t.Size() }
func (c *OAValueCollection[K, V]) Contains(v V) bool { return c.t.ContainsValue(v) }
func (c *OAValueCollection[K, V]) Iterator() *OAValueIterator[K, V] {
	return &OAValueIterator[K, V]{base: newOABaseIterator(c.t)}
}

// OAEntrySet is the live entry-set view of a table.
type OAEntrySet[K comparable, V any] struct{ t *OpenAddressedTable[K, V] }

// Entries returns a live view of this table's key/value entries.
func (t *OpenAddressedTable[K, V]) Entries() *OAEntrySet[K, V] { return &OAEntrySet[K, V]{t} }

func (e *OAEntrySet[K, V]) Len() int { return e.t.Size() }
func (e *OAEntrySet[K, V]) Iterator() *OAEntryIterator[K, V] {
	return &OAEntryIterator[K, V]{base: newOABaseIterator(e.t)}
}
