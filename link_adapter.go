package hash

// LinkAdapter lets IntrusiveChainedTable thread values into singly-linked
// chains without an external link node: the "next" slot lives inside V
// itself, and the table reads/writes it only through this interface. This
// is the Go re-architecture of the Java original's
// IntrusiveChainedHashAdapter (SPEC_FULL.md section 3, DESIGN NOTES in
// spec.md section 9): "a trait that the value type implements ... The table
// must not observe or modify any other field of V."
type LinkAdapter[V any] interface {
	// GetNext returns the value chained after v, or the zero value of V if
	// v is the last node in its chain.
	GetNext(v V) V
	// SetNext rewrites v's next link to point at n (which may be the zero
	// value of V to terminate the chain).
	SetNext(v V, n V)
}

// linkAdapterFunc adapts a pair of closures to LinkAdapter, for callers who
// would rather not define a named type. Typically v is a pointer-shaped V
// (so SetNext's mutation is visible to every holder of v), matching how the
// Java original expects the link field to live on the value's class.
type linkAdapterFunc[V any] struct {
	getNext func(V) V
	setNext func(V, V)
}

// NewLinkAdapter builds a LinkAdapter from a getter/setter pair.
func NewLinkAdapter[V any](getNext func(V) V, setNext func(V, V)) LinkAdapter[V] {
	if getNext == nil || setNext == nil {
		panic("hash: NewLinkAdapter: getNext and setNext must not be nil")
	}
	return &linkAdapterFunc[V]{getNext: getNext, setNext: setNext}
}

func (a *linkAdapterFunc[V]) GetNext(v V) V      { return a.getNext(v) }
func (a *linkAdapterFunc[V]) SetNext(v V, n V) { a.setNext(v, n) }
