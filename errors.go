package hash

import "errors"

// Error surface (spec.md section 7). KeyInconsistent and NullValueDisallowed
// are recoverable caller errors: the failing operation has no effect on
// table state, and the caller gets a plain error value back, matching the
// teacher's own style of returning (value, bool) / error rather than
// wrapping in a custom error-stack library (SPEC_FULL.md section 1 —
// no pkg/errors or cockroachdb/errors anywhere the teacher's library code
// runs). CycleDetected and InternalInvariantBroken are not recoverable and
// are raised with panic, grounding the teacher's own use of panic(...) for
// invariant violations in hashtriemap.go and mapof.go.
var (
	// ErrKeyInconsistent is returned when a put/replace/factory result's
	// derived key does not match the key the caller supplied.
	ErrKeyInconsistent = errors.New("hash: derived key does not match supplied key")

	// ErrNullValue is returned when an operation is given a required
	// expected-value argument that is the zero value of a type for which
	// the zero value cannot mean "no value" (notably 3-arg Replace with a
	// nil/zero expected value where V is a pointer or interface type).
	ErrNullValue = errors.New("hash: null value disallowed where a value is required")

	// ErrCompactUnsupported is returned by IntrusiveChainedTable.Compact:
	// intrusive tables have no tombstones to purge, so compaction is not a
	// meaningful operation on them (SPEC_FULL.md section 4, resolving
	// spec.md's Open Question about compact on the intrusive table).
	ErrCompactUnsupported = errors.New("hash: compact is not supported on an intrusive chained table")

	// ErrCloneUnsupported is returned by IntrusiveChainedTable.Clone: an
	// intrusive table's chain links live inside the value objects
	// themselves, so duplicating the table while sharing those same V
	// instances would make both tables write conflicting "next" pointers
	// into one shared field. The Java original never exposes clone() on its
	// intrusive family for the same reason (see DESIGN.md).
	ErrCloneUnsupported = errors.New("hash: clone is not supported on an intrusive chained table")
)

// cycleDetected panics to report a probe sequence that returned to its
// origin without finding an empty slot or the target key — an invariant
// violation (concurrent corruption or a bad load factor), per spec.md
// section 7's CycleDetected.
func cycleDetected() {
	panic(&InternalError{Kind: "CycleDetected", Msg: "probe sequence returned to its origin"})
}

// invariantBroken panics to report an internal consistency violation, per
// spec.md section 7's InternalInvariantBroken (e.g. clear() leaving nonzero
// size, or a rehash target capacity smaller than the current one).
func invariantBroken(msg string) {
	panic(&InternalError{Kind: "InternalInvariantBroken", Msg: msg})
}

// InternalError is the panic value raised for CycleDetected and
// InternalInvariantBroken. It implements error so a recover()ing caller can
// still log/format it uniformly, but recovering from it is not a supported
// way to keep using the table: both kinds indicate the table's invariants
// no longer hold.
type InternalError struct {
	Kind string
	Msg  string
}

func (e *InternalError) Error() string {
	return "hash: " + e.Kind + ": " + e.Msg
}
