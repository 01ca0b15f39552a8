package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAddressedKeySetValuesEntries(t *testing.T) {
	tbl := newItemTable()
	tbl.Put("a", &item{key: "a", val: 1})
	tbl.Put("b", &item{key: "b", val: 2})

	ks := tbl.KeySet()
	require.Equal(t, 2, ks.Len())
	require.True(t, ks.Contains("a"))
	require.False(t, ks.Contains("z"))

	keys := map[string]bool{}
	it := ks.Iterator()
	for it.HasNext() {
		keys[it.Next()] = true
	}
	require.Equal(t, map[string]bool{"a": true, "b": true}, keys)

	vs := tbl.Values()
	require.Equal(t, 2, vs.Len())
	vit := vs.Iterator()
	total := 0
	for vit.HasNext() {
		total += vit.Next().val
	}
	require.Equal(t, 3, total)

	es := tbl.Entries()
	require.Equal(t, 2, es.Len())
	eit := es.Iterator()
	seen := map[string]int{}
	for eit.HasNext() {
		e := eit.Next()
		seen[e.Key] = e.Value.val
	}
	require.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}

func TestOpenAddressedKeySetRemoveAffectsTable(t *testing.T) {
	tbl := newItemTable()
	tbl.Put("a", &item{key: "a"})
	ks := tbl.KeySet()
	require.True(t, ks.Remove("a"))
	require.Equal(t, 0, tbl.Size())
	require.False(t, ks.Remove("a"))
}

func TestOpenAddressedIteratorRemovePanicsBeforeNext(t *testing.T) {
	tbl := newItemTable()
	tbl.Put("a", &item{key: "a"})
	it := tbl.KeySet().Iterator()
	require.Panics(t, func() { it.Remove() })
}

func TestIntrusiveKeySetValuesEntries(t *testing.T) {
	tbl := newChainTable()
	tbl.Add(&chainItem{key: "a", val: 1})
	tbl.Add(&chainItem{key: "b", val: 2})

	ks := tbl.KeySet()
	require.Equal(t, 2, ks.Len())
	require.True(t, ks.Contains("a"))

	es := tbl.Entries()
	require.Equal(t, 2, es.Len())
	eit := es.Iterator()
	seen := map[string]int{}
	for eit.HasNext() {
		e := eit.Next()
		seen[e.Key] = e.Value.val
	}
	require.Equal(t, map[string]int{"a": 1, "b": 2}, seen)

	vs := tbl.Values()
	require.Equal(t, 2, vs.Len())
}
