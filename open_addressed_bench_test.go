package hash

import (
	"fmt"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

func benchItemTable(n int) *OpenAddressedTable[string, *item] {
	tbl := newItemTable(WithInitialCapacity(n))
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("k%d", i)
		tbl.Put(k, &item{key: k, val: i})
	}
	return tbl
}

func BenchmarkOpenAddressedGetHit(b *testing.B) {
	perfbench.Open(b)
	tbl := benchItemTable(10000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.Get(fmt.Sprintf("k%d", i%10000))
	}
}

func BenchmarkOpenAddressedPutAndRemove(b *testing.B) {
	perfbench.Open(b)
	tbl := newItemTable()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := fmt.Sprintf("k%d", i)
		v := &item{key: k, val: i}
		tbl.Put(k, v)
		tbl.RemoveKey(k)
	}
}

func BenchmarkOpenAddressedPutIfAbsentWithFactory(b *testing.B) {
	perfbench.Open(b)
	tbl := newItemTable()
	factory := Factory[string, *item](func(k string, extras ...any) *item { return &item{key: k} })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.PutIfAbsentWithFactory(fmt.Sprintf("k%d", i%1000), factory)
	}
}
