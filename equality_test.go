package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapHashCodeIsOrderIndependent(t *testing.T) {
	adapter := NewKeyAdapter(func(v *item) string { return v.key })
	hasher := func(v *item) uint64 { return defaultKeyHasher[string]()(v.key) }

	a := NewOpenAddressedTable[string, *item](adapter, itemEqual, hasher)
	b := NewOpenAddressedTable[string, *item](adapter, itemEqual, hasher)

	// Insert in different orders; the hash code must not depend on
	// insertion order since it's a sum over an unordered live set.
	a.Put("x", &item{key: "x", val: 1})
	a.Put("y", &item{key: "y", val: 2})
	a.Put("z", &item{key: "z", val: 3})

	b.Put("z", &item{key: "z", val: 3})
	b.Put("x", &item{key: "x", val: 1})
	b.Put("y", &item{key: "y", val: 2})

	require.Equal(t, a.MapHashCode(), b.MapHashCode())
	require.Equal(t, a.SetHashCode(), b.SetHashCode())
}

func TestDefaultValueEqualAndHasher(t *testing.T) {
	eq := defaultValueEqual[int]()
	require.True(t, eq(5, 5))
	require.False(t, eq(5, 6))

	h := defaultValueHasher[int]()
	require.Equal(t, h(5), h(5))
}

func TestSetEqualsComparesValuesByEqualFunc(t *testing.T) {
	// Two tables holding distinct value instances that are equal under the
	// table's EqualFunc are set-equal: set equality compares values, not
	// pointer identity.
	adapter := NewKeyAdapter(func(v *item) string { return v.key })
	a := NewOpenAddressedTable[string, *item](adapter, itemEqual, func(v *item) uint64 { return uint64(v.val) })
	b := NewOpenAddressedTable[string, *item](adapter, itemEqual, func(v *item) uint64 { return uint64(v.val) })

	shared := &item{key: "shared", val: 1}
	a.Put("shared", shared)
	b.Put("shared", &item{key: "shared", val: 1})

	require.True(t, a.SetEquals(b))
}
