package godb

import "fmt"

// GoDBErrorCode classifies the typed failures the storage core can return.
// The core does not retry these. Most paths return them to the caller
// (planner, shell), which decides how to present them; the exceptions are
// CommitTransaction and FlushAllPages, which log a failed page flush and go
// on, and the AggState implementations, which skip a tuple whose aggregated
// value can't be evaluated.
type GoDBErrorCode int

const (
	// TypeMismatchError is returned when a field's declared type doesn't
	// match the value supplied for it.
	TypeMismatchError GoDBErrorCode = iota
	// IncompatibleTypesError is returned when two operands of an
	// expression or predicate can't be compared.
	IncompatibleTypesError
	// AmbiguousNameError is returned when a field name matches more than
	// one column of a merged TupleDesc.
	AmbiguousNameError
	// MalformedDataError is returned when on-disk or CSV data doesn't
	// parse into the expected shape.
	MalformedDataError
	// PageFullError is returned by heapPage.insertTuple when no slot is free.
	PageFullError
	// TupleNotFoundError is returned when a delete targets a record id
	// that isn't present on the page (already deleted, or never there).
	TupleNotFoundError
	// BufferPoolFullError is returned when every page in the buffer pool
	// is dirty and none can be evicted (the NO-STEAL invariant).
	BufferPoolFullError
	// TransactionAbortedError is returned by the buffer pool when lock
	// acquisition exhausts its retry budget. The caller must respond by
	// calling BufferPool.AbortTransaction.
	TransactionAbortedError
	// IllegalOperationError covers calls the core can't carry out in the
	// current state or with the given arguments (a transaction that isn't
	// active, an unknown table, a tuple too large for a page). An aggregate
	// that doesn't support its field's type reports TypeMismatchError.
	IllegalOperationError
	// NoSuchElementError is returned by Next when called after HasNext
	// reported false, i.e. a protocol violation by the caller.
	NoSuchElementError
	// IOError wraps a failed file-system operation on a heap file, log
	// file, or catalog manifest.
	IOError
)

func (c GoDBErrorCode) String() string {
	switch c {
	case TypeMismatchError:
		return "TypeMismatchError"
	case IncompatibleTypesError:
		return "IncompatibleTypesError"
	case AmbiguousNameError:
		return "AmbiguousNameError"
	case MalformedDataError:
		return "MalformedDataError"
	case PageFullError:
		return "PageFullError"
	case TupleNotFoundError:
		return "TupleNotFoundError"
	case BufferPoolFullError:
		return "BufferPoolFullError"
	case TransactionAbortedError:
		return "TransactionAbortedError"
	case IllegalOperationError:
		return "IllegalOperationError"
	case NoSuchElementError:
		return "NoSuchElementError"
	case IOError:
		return "IOError"
	}
	return "UnknownError"
}

// GoDBError is the single error type surfaced by the storage core. Callers
// that need to branch on failure kind should switch on Code rather than
// string-matching Error().
type GoDBError struct {
	Code    GoDBErrorCode
	Message string
}

func (e GoDBError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTransactionAborted reports whether err is a transaction-abort signal,
// letting a caller decide whether to call AbortTransaction rather than just
// propagating the error.
func IsTransactionAborted(err error) bool {
	gerr, ok := err.(GoDBError)
	return ok && gerr.Code == TransactionAbortedError
}
