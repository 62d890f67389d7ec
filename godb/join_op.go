package godb

import "fmt"

// Join implements an equi-join as a simple nested-loop: for each tuple of
// left (the outer loop), right is rewound and scanned in full (the inner
// loop), emitting a joined tuple for every right tuple whose field matches
// the outer tuple's. This is O(|left| * |right|) I/O on the right child,
// not the sort-merge or hash-join strategies a cost-based planner would
// choose for large inputs; see DESIGN.md.
type Join struct {
	leftField, rightField Expr
	left, right           Operator

	leftCur *Tuple
	peeked  *Tuple
}

// NewJoin constructs a join of left and right on leftField = rightField.
// Returns an error if the two fields don't have the same type.
func NewJoin(left Operator, leftField Expr, right Operator, rightField Expr, maxBufferSize int) (*Join, error) {
	if leftField.GetExprType().Ftype != rightField.GetExprType().Ftype {
		return nil, GoDBError{TypeMismatchError, fmt.Sprintf("join fields have different types: %v vs %v", leftField.GetExprType().Ftype, rightField.GetExprType().Ftype)}
	}
	return &Join{leftField: leftField, rightField: rightField, left: left, right: right}, nil
}

// GetTupleDesc returns the union of the left and right children's fields.
func (j *Join) GetTupleDesc() *TupleDesc {
	return j.left.GetTupleDesc().merge(j.right.GetTupleDesc())
}

func (j *Join) Open(tid TransactionID) error {
	if err := j.left.Open(tid); err != nil {
		return err
	}
	if err := j.right.Open(tid); err != nil {
		return err
	}
	j.leftCur = nil
	j.peeked = nil
	return nil
}

func (j *Join) Close() error {
	j.leftCur = nil
	j.peeked = nil
	if err := j.left.Close(); err != nil {
		return err
	}
	return j.right.Close()
}

func (j *Join) Rewind() error {
	j.leftCur = nil
	j.peeked = nil
	return j.left.Rewind()
}

func (j *Join) HasNext() (bool, error) {
	if j.peeked != nil {
		return true, nil
	}
	for {
		if j.leftCur == nil {
			has, err := j.left.HasNext()
			if err != nil || !has {
				return false, err
			}
			lt, err := j.left.Next()
			if err != nil {
				return false, err
			}
			j.leftCur = lt
			if err := j.right.Rewind(); err != nil {
				return false, err
			}
		}

		has, err := j.right.HasNext()
		if err != nil {
			return false, err
		}
		if !has {
			j.leftCur = nil
			continue
		}
		rt, err := j.right.Next()
		if err != nil {
			return false, err
		}

		lv, err := j.leftField.EvalExpr(j.leftCur)
		if err != nil {
			return false, err
		}
		rv, err := j.rightField.EvalExpr(rt)
		if err != nil {
			return false, err
		}
		if lv.EvalPred(rv, OpEq) {
			j.peeked = joinTuples(j.leftCur, rt)
			return true, nil
		}
	}
}

func (j *Join) Next() (*Tuple, error) {
	has, err := j.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, GoDBError{NoSuchElementError, "Join: no more tuples"}
	}
	t := j.peeked
	j.peeked = nil
	return t, nil
}
