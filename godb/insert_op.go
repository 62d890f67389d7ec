package godb

// InsertOp inserts every tuple produced by its child into a DBFile and
// yields a single result tuple holding the count inserted.
type InsertOp struct {
	insertFile DBFile
	child      Operator
	desc       *TupleDesc

	tid     TransactionID
	done    bool
	result  *Tuple
	emitted bool
}

// NewInsertOp constructs an insert of child's tuples into insertFile.
func NewInsertOp(insertFile DBFile, child Operator) *InsertOp {
	return &InsertOp{
		insertFile: insertFile,
		child:      child,
		desc:       &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}},
	}
}

// GetTupleDesc returns a one-column ("count", int) descriptor.
func (iop *InsertOp) GetTupleDesc() *TupleDesc {
	return iop.desc
}

func (iop *InsertOp) Open(tid TransactionID) error {
	if err := iop.child.Open(tid); err != nil {
		return err
	}
	iop.tid = tid
	iop.done = false
	iop.emitted = false
	iop.result = nil
	return nil
}

func (iop *InsertOp) Close() error {
	iop.result = nil
	return iop.child.Close()
}

func (iop *InsertOp) Rewind() error {
	iop.done = false
	iop.emitted = false
	iop.result = nil
	return iop.child.Rewind()
}

// run drains the child, inserting every tuple, and caches the single
// resulting count tuple. Insert is a blocking operator: nothing is inserted
// until the first HasNext/Next call forces the whole child to be consumed.
func (iop *InsertOp) run() error {
	if iop.done {
		return nil
	}
	var count int64
	for {
		has, err := iop.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := iop.child.Next()
		if err != nil {
			return err
		}
		if _, err := iop.insertFile.insertTuple(t, iop.tid); err != nil {
			return err
		}
		count++
	}
	iop.result = &Tuple{Desc: *iop.desc, Fields: []DBValue{IntField{count}}}
	iop.done = true
	return nil
}

func (iop *InsertOp) HasNext() (bool, error) {
	if err := iop.run(); err != nil {
		return false, err
	}
	return !iop.emitted, nil
}

func (iop *InsertOp) Next() (*Tuple, error) {
	has, err := iop.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, GoDBError{NoSuchElementError, "InsertOp: result already consumed"}
	}
	iop.emitted = true
	return iop.result, nil
}
