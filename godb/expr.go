package godb

import "fmt"

// BoolOp is a comparison operator, shared by predicate evaluation (Filter,
// Join) and histogram selectivity estimation
// (IntHistogram.EstimateSelectivity, StringHistogram.EstimateSelectivity).
type BoolOp int

const (
	OpEq BoolOp = iota
	OpNeq
	OpGt
	OpGe
	OpLt
	OpLe
)

func (op BoolOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	}
	return "?"
}

// EvalPred compares an IntField against another DBValue using op. Returns
// false (rather than erroring) for cross-type comparisons, per the data
// model's "cross-type compare is undefined" invariant -- callers that care
// should check types themselves before calling Filter/Join.
func (f IntField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(IntField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNeq:
		return f.Value != other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	}
	return false
}

// EvalPred compares a StringField against another DBValue using op.
func (f StringField) EvalPred(v DBValue, op BoolOp) bool {
	other, ok := v.(StringField)
	if !ok {
		return false
	}
	switch op {
	case OpEq:
		return f.Value == other.Value
	case OpNeq:
		return f.Value != other.Value
	case OpGt:
		return f.Value > other.Value
	case OpGe:
		return f.Value >= other.Value
	case OpLt:
		return f.Value < other.Value
	case OpLe:
		return f.Value <= other.Value
	}
	return false
}

// Expr evaluates to a DBValue given an input tuple. FieldExpr and ConstExpr
// are the only two kinds the storage core needs; richer expressions (e.g.
// substr(name, 1, 2)) belong to the planner, which composes Exprs rather
// than adding new ones here.
type Expr interface {
	EvalExpr(t *Tuple) (DBValue, error)
	GetExprType() FieldType
}

// FieldExpr extracts a named field from a tuple.
type FieldExpr struct {
	Field FieldType
}

func (e *FieldExpr) EvalExpr(t *Tuple) (DBValue, error) {
	idx, err := findFieldInTd(e.Field, &t.Desc)
	if err != nil {
		return nil, err
	}
	return t.Fields[idx], nil
}

func (e *FieldExpr) GetExprType() FieldType {
	return e.Field
}

// ConstExpr evaluates to a fixed value regardless of the input tuple.
type ConstExpr struct {
	Val   DBValue
	Ftype DBType
}

func (e *ConstExpr) EvalExpr(t *Tuple) (DBValue, error) {
	return e.Val, nil
}

func (e *ConstExpr) GetExprType() FieldType {
	return FieldType{Ftype: e.Ftype}
}

// Predicate is a single-field comparison against a constant. FieldIdx
// indexes into a TupleDesc. No operator in this package consumes it: Filter
// compares two Exprs, and SeqScan applies no predicate.
type Predicate struct {
	FieldIdx int
	Op       BoolOp
	Constant DBValue
}

func (p Predicate) String() string {
	return fmt.Sprintf("field[%d] %s %v", p.FieldIdx, p.Op, p.Constant)
}

// JoinPredicate pairs a field from the left child with a field from the
// right child under an equality or inequality test.
type JoinPredicate struct {
	LeftIdx  int
	Op       BoolOp
	RightIdx int
}
