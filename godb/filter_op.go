package godb

// Filter passes through tuples from its child for which left OP right
// evaluates true.
type Filter struct {
	op          BoolOp
	left, right Expr
	child       Operator

	peeked *Tuple
}

// NewFilter constructs a filter: left OP right, evaluated against each
// tuple from child.
func NewFilter(constExpr Expr, op BoolOp, field Expr, child Operator) (*Filter, error) {
	return &Filter{op: op, left: field, right: constExpr, child: child}, nil
}

func (f *Filter) GetTupleDesc() *TupleDesc {
	return f.child.GetTupleDesc()
}

func (f *Filter) Open(tid TransactionID) error {
	f.peeked = nil
	return f.child.Open(tid)
}

func (f *Filter) Close() error {
	f.peeked = nil
	return f.child.Close()
}

func (f *Filter) Rewind() error {
	f.peeked = nil
	return f.child.Rewind()
}

func (f *Filter) HasNext() (bool, error) {
	if f.peeked != nil {
		return true, nil
	}
	for {
		has, err := f.child.HasNext()
		if err != nil || !has {
			return false, err
		}
		t, err := f.child.Next()
		if err != nil {
			return false, err
		}
		lv, err := f.left.EvalExpr(t)
		if err != nil {
			return false, err
		}
		rv, err := f.right.EvalExpr(t)
		if err != nil {
			return false, err
		}
		if lv.EvalPred(rv, f.op) {
			f.peeked = t
			return true, nil
		}
	}
}

func (f *Filter) Next() (*Tuple, error) {
	has, err := f.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, GoDBError{NoSuchElementError, "Filter: no more tuples"}
	}
	t := f.peeked
	f.peeked = nil
	return t, nil
}
