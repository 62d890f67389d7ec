package godb

import "github.com/google/uuid"

// Transaction is a handle wrapping a TransactionID with the Start/Commit/
// Abort lifecycle and a trace ID for log correlation. TransactionID itself
// stays a bare integer (see types.go) so it remains cheap to use as a map
// key throughout the lock manager and buffer pool; Transaction is the
// ergonomic wrapper callers outside this package are expected to use.
type Transaction struct {
	ID      TransactionID
	TraceID uuid.UUID

	bp      *BufferPool
	started bool
}

// NewTransaction allocates a Transaction against bp. The transaction is not
// registered with the buffer pool until Start is called.
func NewTransaction(bp *BufferPool) *Transaction {
	return &Transaction{
		ID:      NewTID(),
		TraceID: uuid.New(),
		bp:      bp,
	}
}

// Start registers the transaction as active in its buffer pool.
func (t *Transaction) Start() error {
	if err := t.bp.BeginTransaction(t.ID); err != nil {
		return err
	}
	t.started = true
	log.WithFields(logFields(t)).Debug("transaction started")
	return nil
}

// Commit flushes the transaction's dirty pages and releases its locks.
func (t *Transaction) Commit() error {
	if !t.started {
		return GoDBError{IllegalOperationError, "transaction was never started"}
	}
	t.bp.CommitTransaction(t.ID)
	t.started = false
	log.WithFields(logFields(t)).Debug("transaction committed")
	return nil
}

// Abort discards the transaction's writes and releases its locks.
func (t *Transaction) Abort() error {
	if !t.started {
		return GoDBError{IllegalOperationError, "transaction was never started"}
	}
	t.bp.AbortTransaction(t.ID)
	t.started = false
	log.WithFields(logFields(t)).Debug("transaction aborted")
	return nil
}

func logFields(t *Transaction) map[string]any {
	return map[string]any{"tid": t.ID, "trace_id": t.TraceID.String()}
}
