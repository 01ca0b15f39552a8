package hash

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type longItem struct {
	key int64
	val string
}

func newLongTable(opts ...Option) *OpenAddressedTable[int64, *longItem] {
	adapter := NewInt64KeyAdapter(func(v *longItem) int64 { return v.key })
	return NewOpenAddressedTable[int64, *longItem](adapter,
		func(a, b *longItem) bool {
			if a == nil || b == nil {
				return a == b
			}
			return a.key == b.key && a.val == b.val
		},
		func(v *longItem) uint64 { return uint64(len(v.val)) },
		opts...,
	)
}

// S2 — tombstone reuse with primitive long keys colliding on slot 0: insert
// key C (the table's underlying prime capacity, hashing to slot 0), then key
// 0 (which also probes slot 0 first and double-hashes elsewhere), remove C
// to leave a tombstone at slot 0, then confirm ReplaceExpected's identity
// semantics still resolve correctly past the tombstone.
func TestScenarioS2TombstoneReusePrimitiveLongKeys(t *testing.T) {
	tbl := newLongTable(WithInitialCapacity(6))
	c := int64(tbl.Capacity())

	vC := &longItem{key: c, val: "c"}
	_, existed, err := tbl.Put(c, vC)
	require.NoError(t, err)
	require.False(t, existed)

	o2 := &longItem{key: 0, val: "o2"}
	_, existed, err = tbl.Put(0, o2)
	require.NoError(t, err)
	require.False(t, existed)

	removed, ok := tbl.RemoveKey(c)
	require.True(t, ok)
	require.Same(t, vC, removed)

	got, ok := tbl.Get(0)
	require.True(t, ok)
	require.Same(t, o2, got)

	wrong := &longItem{key: 0, val: "wrong"}
	newVal := &longItem{key: 0, val: "new"}
	replaced, err := tbl.ReplaceExpected(0, wrong, newVal)
	require.NoError(t, err)
	require.False(t, replaced)
	got, _ = tbl.Get(0)
	require.Same(t, o2, got)

	replaced, err = tbl.ReplaceExpected(0, o2, newVal)
	require.NoError(t, err)
	require.True(t, replaced)
	got, _ = tbl.Get(0)
	require.Same(t, newVal, got)
}

// S3 — put-if-absent race: N goroutines racing putIfAbsentWithFactory across
// a shared key set, interleaved with probabilistic removes, must converge to
// the reference map with the factory invoked exactly once per net insertion.
func TestScenarioS3PutIfAbsentRace(t *testing.T) {
	const keyCount = 1000
	const goroutines = 5
	const passes = 100

	ref := make(map[string]struct{}, keyCount)
	keys := make([]string, keyCount)
	for i := 0; i < keyCount; i++ {
		keys[i] = fmt.Sprintf("k%d", i)
		ref[keys[i]] = struct{}{}
	}

	tbl := newItemTable()
	var factoryCalls int64
	var successfulRemoves int64
	var mu sync.Mutex

	factory := Factory[string, *item](func(k string, extras ...any) *item {
		mu.Lock()
		factoryCalls++
		mu.Unlock()
		return &item{key: k, val: 1}
	})

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			localR := rand.New(rand.NewSource(seed))
			for p := 0; p < passes; p++ {
				for _, k := range keys {
					_, err := tbl.PutIfAbsentWithFactory(k, factory)
					require.NoError(t, err)
					if localR.Float64() < 0.4 {
						if _, ok := tbl.RemoveKey(k); ok {
							mu.Lock()
							successfulRemoves++
							mu.Unlock()
						}
					}
				}
			}
		}(int64(g) + 1)
	}
	wg.Wait()

	// Converge: put every absent key back through the same factory so the
	// table equals M and every net insertion is counted.
	for _, k := range keys {
		_, err := tbl.PutIfAbsentWithFactory(k, factory)
		require.NoError(t, err)
	}
	require.Equal(t, keyCount, tbl.Size())
	require.Equal(t, int64(keyCount)+successfulRemoves, factoryCalls)
}

// S4 — concurrent get under churn: one goroutine puts-then-removes every key
// in a fixed range for a bounded window while another goroutine repeatedly
// gets a fixed key; neither must panic (CycleDetected) or hang.
func TestScenarioS4ConcurrentGetUnderChurn(t *testing.T) {
	tbl := newItemTable(WithInitialCapacity(64))
	const rangeSize = 64
	deadline := time.Now().Add(200 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			for i := 0; i < rangeSize; i++ {
				k := fmt.Sprintf("c%d", i)
				tbl.Put(k, &item{key: k, val: i})
				tbl.RemoveKey(k)
			}
		}
	}()

	fixedKey := "c0"
	tbl.Put(fixedKey, &item{key: fixedKey, val: 0})
	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			tbl.Get(fixedKey)
		}
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutines did not terminate: possible hang or livelock")
	}
}

// S5 — intrusive chain ordering: a single-bucket table preserves insertion
// order, replaces in place on re-insertion, and its iterator's remove
// correctly skips the removed element without disturbing later ones.
func TestScenarioS5IntrusiveChainOrdering(t *testing.T) {
	tbl := newChainTable(WithInitialCapacity(1), WithRehashDisabled())
	values := map[string]*chainItem{}
	for _, k := range []string{"A", "B", "C", "D"} {
		v := &chainItem{key: k, val: 1}
		values[k] = v
		tbl.Add(v)
	}
	require.Equal(t, 4, tbl.Size())

	var order []string
	tbl.Range(func(k string, v *chainItem) bool {
		order = append(order, k)
		return true
	})
	require.Equal(t, []string{"A", "B", "C", "D"}, order)

	for k := range values {
		nv := &chainItem{key: k, val: 2}
		displaced, existed, err := tbl.Add(nv)
		require.NoError(t, err)
		require.True(t, existed)
		require.Same(t, values[k], displaced)
		values[k] = nv
	}
	require.Equal(t, 4, tbl.Size())

	_, ok := tbl.RemoveKey("D")
	require.True(t, ok)
	_, ok = tbl.RemoveKey("B")
	require.True(t, ok)
	_, ok = tbl.RemoveKey("A")
	require.True(t, ok)
	_, ok = tbl.RemoveKey("C")
	require.True(t, ok)
	require.Equal(t, 0, tbl.Size())

	tbl2 := newChainTable(WithInitialCapacity(1), WithRehashDisabled())
	for _, k := range []string{"A", "B", "C", "D"} {
		tbl2.Add(&chainItem{key: k, val: 1})
	}
	it := tbl2.KeySet().Iterator()
	var seen []string
	for it.HasNext() {
		k := it.Next()
		seen = append(seen, k)
		if k == "B" {
			it.Remove()
		}
	}
	require.Equal(t, []string{"A", "B", "C", "D"}, seen)
	var remaining []string
	tbl2.Range(func(k string, v *chainItem) bool { remaining = append(remaining, k); return true })
	require.Equal(t, []string{"A", "C", "D"}, remaining)
}

// S6 — rehash over mixed workloads: insert disjoint batches into an
// initially small table, checking equality with a reference map after each
// batch, then remove batches in reverse order with intervening Compact
// calls, checking equality and freedom from invariant errors throughout.
func TestScenarioS6RehashOverMixedWorkloads(t *testing.T) {
	tbl := newItemTable(WithInitialCapacity(2))
	ref := map[string]int{}
	const baseline = 20
	const batches = 5
	batchKeys := make([][]string, batches)

	r := rand.New(rand.NewSource(42))
	next := 0
	for b := 0; b < batches; b++ {
		size := baseline * 13
		keys := make([]string, 0, size)
		for i := 0; i < size; i++ {
			k := fmt.Sprintf("k%d", next)
			next++
			v := r.Int()
			tbl.Put(k, &item{key: k, val: v})
			ref[k] = v
			keys = append(keys, k)
		}
		batchKeys[b] = keys

		require.Equal(t, len(ref), tbl.Size())
		for k, v := range ref {
			got, ok := tbl.Get(k)
			require.True(t, ok)
			require.Equal(t, v, got.val)
		}
	}

	for b := batches - 1; b >= 0; b-- {
		for _, k := range batchKeys[b] {
			tbl.RemoveKey(k)
			delete(ref, k)
		}
		require.NoError(t, tbl.Compact())
		require.Equal(t, len(ref), tbl.Size())
		for k, v := range ref {
			got, ok := tbl.Get(k)
			require.True(t, ok)
			require.Equal(t, v, got.val)
		}
	}
	require.Equal(t, 0, tbl.Size())
}
