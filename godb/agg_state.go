package godb

// AggState accumulates one aggregate function (COUNT, SUM, AVG, MIN, MAX)
// over a stream of tuples fed to it one at a time by the Aggregate operator.
type AggState interface {
	// Init prepares the state to begin accumulating. alias names the result
	// column; expr extracts the value being aggregated from each input
	// tuple.
	Init(alias string, expr Expr) error

	// Copy returns a fresh AggState with the same alias/expr but reset
	// accumulator. (The Aggregate operator makes its per-group states with
	// its newState constructor and Init, not with Copy.)
	Copy() AggState

	// AddTuple folds t into the running aggregate.
	AddTuple(t *Tuple)

	// Finalize returns the aggregate's result as a one-field tuple.
	Finalize() *Tuple

	// GetTupleDesc describes the tuple Finalize returns.
	GetTupleDesc() *TupleDesc
}

// CountAggState implements COUNT(*): the number of tuples seen.
type CountAggState struct {
	alias string
	expr  Expr
	count int64
}

func (a *CountAggState) Copy() AggState {
	return &CountAggState{alias: a.alias, expr: a.expr}
}

func (a *CountAggState) Init(alias string, expr Expr) error {
	a.alias = alias
	a.expr = expr
	a.count = 0
	return nil
}

func (a *CountAggState) AddTuple(t *Tuple) {
	a.count++
}

func (a *CountAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *CountAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{a.count}}}
}

// SumAggState implements SUM over an integer expression.
type SumAggState struct {
	alias string
	expr  Expr
	sum   int64
}

func (a *SumAggState) Copy() AggState {
	return &SumAggState{alias: a.alias, expr: a.expr}
}

func (a *SumAggState) Init(alias string, expr Expr) error {
	if expr.GetExprType().Ftype != IntType {
		return GoDBError{TypeMismatchError, "SUM requires an integer expression"}
	}
	a.alias = alias
	a.expr = expr
	a.sum = 0
	return nil
}

func (a *SumAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if iv, ok := v.(IntField); ok {
		a.sum += iv.Value
	}
}

func (a *SumAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *SumAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{a.sum}}}
}

// AvgAggState implements AVG over an integer expression, using integer
// division that truncates toward zero (GoDB has no float field type). If no
// tuple has been added, Finalize returns 0 instead of dividing by zero.
type AvgAggState struct {
	alias string
	expr  Expr
	sum   int64
	count int64
}

func (a *AvgAggState) Copy() AggState {
	return &AvgAggState{alias: a.alias, expr: a.expr}
}

func (a *AvgAggState) Init(alias string, expr Expr) error {
	if expr.GetExprType().Ftype != IntType {
		return GoDBError{TypeMismatchError, "AVG requires an integer expression"}
	}
	a.alias = alias
	a.expr = expr
	a.sum = 0
	a.count = 0
	return nil
}

func (a *AvgAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if iv, ok := v.(IntField); ok {
		a.sum += iv.Value
		a.count++
	}
}

func (a *AvgAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: IntType}}}
}

func (a *AvgAggState) Finalize() *Tuple {
	avg := int64(0)
	if a.count > 0 {
		avg = a.sum / a.count
	}
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{IntField{avg}}}
}

// MaxAggState implements MAX over an int or string expression.
type MaxAggState struct {
	alias   string
	expr    Expr
	ftype   DBType
	maximum DBValue
}

func (a *MaxAggState) Copy() AggState {
	return &MaxAggState{alias: a.alias, expr: a.expr, ftype: a.ftype}
}

func (a *MaxAggState) Init(alias string, expr Expr) error {
	a.alias = alias
	a.expr = expr
	a.ftype = expr.GetExprType().Ftype
	a.maximum = nil
	return nil
}

func (a *MaxAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if a.maximum == nil || v.EvalPred(a.maximum, OpGt) {
		a.maximum = v
	}
}

func (a *MaxAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.ftype}}}
}

func (a *MaxAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.maximum}}
}

// MinAggState implements MIN over an int or string expression.
type MinAggState struct {
	alias   string
	expr    Expr
	ftype   DBType
	minimum DBValue
}

func (a *MinAggState) Copy() AggState {
	return &MinAggState{alias: a.alias, expr: a.expr, ftype: a.ftype}
}

func (a *MinAggState) Init(alias string, expr Expr) error {
	a.alias = alias
	a.expr = expr
	a.ftype = expr.GetExprType().Ftype
	a.minimum = nil
	return nil
}

func (a *MinAggState) AddTuple(t *Tuple) {
	v, err := a.expr.EvalExpr(t)
	if err != nil {
		return
	}
	if a.minimum == nil || v.EvalPred(a.minimum, OpLt) {
		a.minimum = v
	}
}

func (a *MinAggState) GetTupleDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: a.alias, Ftype: a.ftype}}}
}

func (a *MinAggState) Finalize() *Tuple {
	return &Tuple{Desc: *a.GetTupleDesc(), Fields: []DBValue{a.minimum}}
}
