package godb

// Operator is the pull-based query execution contract every execution node
// (SeqScan, Filter, Join, Aggregate, Insert, Delete) implements. Callers
// drive an Operator as:
//
//	if err := op.Open(tid); err != nil { ... }
//	defer op.Close()
//	for {
//		has, err := op.HasNext()
//		if err != nil { ... }
//		if !has { break }
//		t, err := op.Next()
//		...
//	}
//
// HasNext must be safe to call repeatedly without side effects beyond
// pulling from the child (it buffers the peeked tuple); Next consumes
// whatever HasNext last confirmed, fetching fresh if HasNext wasn't called
// first. Rewind resets the operator to the start of its result set within
// the same transaction, without a fresh Open.
type Operator interface {
	// Open prepares the operator to produce tuples under tid, opening any
	// child operators.
	Open(tid TransactionID) error
	// Close releases resources held by the operator and its children.
	// Next and HasNext are not valid after Close until Open is called again.
	Close() error
	// Rewind resets iteration to the beginning of the operator's result set.
	Rewind() error
	// HasNext reports whether another tuple is available without consuming it.
	HasNext() (bool, error)
	// Next returns the next tuple, or NoSuchElementError if HasNext would
	// return false.
	Next() (*Tuple, error)
	// GetTupleDesc describes the tuples this operator produces.
	GetTupleDesc() *TupleDesc
}
