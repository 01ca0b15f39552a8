package hash

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// cacheLineSize mirrors the teacher's mapof_opt_cachelinesize.go: the size
// of a cache line, used to pad the writer-side fields of each table away
// from the size/free/maxSize/capacity counters that Get/Range read on every
// call. Puts, Removes and rehashes all take mu, so mu and the counters it
// guards indirectly are updated together; without padding they would share
// a line with fields hot readers touch, and every write would bounce that
// line out of readers' caches.
const cacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

// cacheLinePad is embedded between a table's mutex and its hot atomic
// counters so that lock acquisition traffic does not evict those counters
// from a concurrent reader's cache line.
type cacheLinePad = cpu.CacheLinePad
