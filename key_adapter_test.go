package hash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type namedThing struct {
	id   int64
	name string
}

func TestNewKeyAdapterBasic(t *testing.T) {
	a := NewKeyAdapter(func(v *namedThing) int64 { return v.id })
	v := &namedThing{id: 7, name: "x"}
	require.Equal(t, int64(7), a.GetKey(v))
	require.True(t, a.EqualKey(7, v))
	require.False(t, a.EqualKey(8, v))
	require.Equal(t, a.HashKey(7), a.HashKey(7))
}

func TestNewKeyAdapterWithHashUsesSuppliedFunc(t *testing.T) {
	calls := 0
	hash := func(k int64) uint64 {
		calls++
		return uint64(k) * 31
	}
	a := NewKeyAdapterWithHash(func(v *namedThing) int64 { return v.id }, hash)
	require.Equal(t, uint64(7*31), a.HashKey(7))
	require.Equal(t, 1, calls)
}

func TestNewExactKeyAdapterUsesSuppliedEquality(t *testing.T) {
	// Exact adapter treats keys as equal only when names match case-sensitively,
	// regardless of K's built-in ==.
	a := NewExactKeyAdapter(
		func(v *namedThing) string { return v.name },
		func(a, b string) bool { return a == b },
	)
	v := &namedThing{id: 1, name: "Alice"}
	require.True(t, a.EqualKey("Alice", v))
	require.False(t, a.EqualKey("alice", v))
}

func TestInt32KeyAdapterHashStable(t *testing.T) {
	a := NewInt32KeyAdapter(func(v *namedThing) int32 { return int32(v.id) })
	require.Equal(t, a.HashKey(42), a.HashKey(42))
	require.NotEqual(t, a.HashKey(42), a.HashKey(43))
}

func TestInt64KeyAdapterMatchesXorShiftFormula(t *testing.T) {
	a := NewInt64KeyAdapter(func(v *namedThing) int64 { return v.id })
	var k int64 = 1<<40 + 17
	want := uint64(k) ^ (uint64(k) >> 32)
	require.Equal(t, want, a.HashKey(k))
}

// The +0.0/-0.0 quirk from SPEC_FULL.md section 4: both compare == in Go,
// but they must hash differently (and thus occupy distinct slots), since the
// adapter hashes the raw IEEE-754 bit pattern rather than the float value.
func TestFloat64KeyAdapterDistinguishesSignedZero(t *testing.T) {
	a := NewFloat64KeyAdapter(func(v *namedThing) float64 { return float64(v.id) })
	posZero := 0.0
	negZero := math.Copysign(0, -1)
	require.Equal(t, posZero, negZero)
	require.NotEqual(t, a.HashKey(posZero), a.HashKey(negZero))
}

func TestFloat64KeyAdapterInTableTreatsSignedZeroAsDistinctKeys(t *testing.T) {
	type rec struct {
		k float64
		n string
	}
	tbl := NewComparableOpenAddressedTable[float64, *rec](
		NewFloat64KeyAdapter(func(v *rec) float64 { return v.k }),
	)
	posZero := 0.0
	negZero := math.Copysign(0, -1)
	_, _, err := tbl.Put(posZero, &rec{k: posZero, n: "pos"})
	require.NoError(t, err)
	_, _, err = tbl.Put(negZero, &rec{k: negZero, n: "neg"})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Size())

	got, ok := tbl.Get(posZero)
	require.True(t, ok)
	require.Equal(t, "pos", got.n)
	got, ok = tbl.Get(negZero)
	require.True(t, ok)
	require.Equal(t, "neg", got.n)
}
