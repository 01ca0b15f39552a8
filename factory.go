package hash

// Factory manufactures a value for a derived-key find-or-create operation
// (PutIfAbsentWithFactory on both table kinds). It collapses the Java
// original's eleven-member ValueFactory/ValueFactoryI/ValueFactoryL/
// ValueFactoryB/ValueFactoryII/ValueFactoryIL/ValueFactoryT/ValueFactoryIT/
// ValueFactoryIIT/ValueFactoryTT/ValueFactoryTTT interface family
// (KeyedObjectHash.java) into one generic closure type: each of those
// interfaces existed only to pass a different combination of
// primitive/generic "extra" arguments alongside the key, which a Go
// closure already captures for free. See SPEC_FULL.md section 3.
//
// factory must not mutate the table it is being invoked from (spec.md
// section 4.3); it is called under the table's write lock and at most once
// per winning insertion.
type Factory[K comparable, V any] func(key K, extras ...any) V
