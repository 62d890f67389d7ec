package godb

// DeleteOp deletes every tuple produced by its child from a DBFile and
// yields a single result tuple holding the count deleted.
type DeleteOp struct {
	deleteFile DBFile
	child      Operator
	desc       *TupleDesc

	tid     TransactionID
	done    bool
	result  *Tuple
	emitted bool
}

// NewDeleteOp constructs a delete of child's tuples from deleteFile.
func NewDeleteOp(deleteFile DBFile, child Operator) *DeleteOp {
	return &DeleteOp{
		deleteFile: deleteFile,
		child:      child,
		desc:       &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}},
	}
}

// GetTupleDesc returns a one-column ("count", int) descriptor.
func (dop *DeleteOp) GetTupleDesc() *TupleDesc {
	return dop.desc
}

func (dop *DeleteOp) Open(tid TransactionID) error {
	if err := dop.child.Open(tid); err != nil {
		return err
	}
	dop.tid = tid
	dop.done = false
	dop.emitted = false
	dop.result = nil
	return nil
}

func (dop *DeleteOp) Close() error {
	dop.result = nil
	return dop.child.Close()
}

func (dop *DeleteOp) Rewind() error {
	dop.done = false
	dop.emitted = false
	dop.result = nil
	return dop.child.Rewind()
}

func (dop *DeleteOp) run() error {
	if dop.done {
		return nil
	}
	var count int64
	for {
		has, err := dop.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := dop.child.Next()
		if err != nil {
			return err
		}
		if _, err := dop.deleteFile.deleteTuple(t, dop.tid); err != nil {
			return err
		}
		count++
	}
	dop.result = &Tuple{Desc: *dop.desc, Fields: []DBValue{IntField{count}}}
	dop.done = true
	return nil
}

func (dop *DeleteOp) HasNext() (bool, error) {
	if err := dop.run(); err != nil {
		return false, err
	}
	return !dop.emitted, nil
}

func (dop *DeleteOp) Next() (*Tuple, error) {
	has, err := dop.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, GoDBError{NoSuchElementError, "DeleteOp: result already consumed"}
	}
	dop.emitted = true
	return dop.result, nil
}
