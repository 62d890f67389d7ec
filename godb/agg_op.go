package godb

// Aggregate computes one aggregate function over its child's tuples,
// optionally grouped by a field. Like InsertOp/DeleteOp it is a blocking
// operator: the first HasNext/Next call drains the entire child before any
// result tuple is produced.
type Aggregate struct {
	child        Operator
	newState     func() AggState
	aggField     Expr
	aggAlias     string
	groupByField Expr // nil for a single, ungrouped aggregate

	desc *TupleDesc

	done    bool
	results []*Tuple
	pos     int
}

// NewAggregator constructs an aggregate of aggField over child, using
// newState to create one AggState per group (or a single one, if
// groupByField is nil). aggAlias names the aggregate's result column.
// Returns an error if aggField's type isn't supported by the aggregate
// function (e.g. SUM or AVG over a string field).
func NewAggregator(child Operator, newState func() AggState, aggField Expr, aggAlias string, groupByField Expr) (*Aggregate, error) {
	if err := newState().Init(aggAlias, aggField); err != nil {
		return nil, err
	}
	return &Aggregate{
		child:        child,
		newState:     newState,
		aggField:     aggField,
		aggAlias:     aggAlias,
		groupByField: groupByField,
	}, nil
}

func (a *Aggregate) GetTupleDesc() *TupleDesc {
	if a.desc != nil {
		return a.desc
	}
	// Init already succeeded once in NewAggregator with the same arguments.
	st := a.newState()
	_ = st.Init(a.aggAlias, a.aggField)
	aggDesc := st.GetTupleDesc()
	if a.groupByField == nil {
		return aggDesc
	}
	groupDesc := &TupleDesc{Fields: []FieldType{a.groupByField.GetExprType()}}
	return groupDesc.merge(aggDesc)
}

func (a *Aggregate) Open(tid TransactionID) error {
	if err := a.child.Open(tid); err != nil {
		return err
	}
	a.desc = a.GetTupleDesc()
	a.done = false
	a.results = nil
	a.pos = 0
	return nil
}

func (a *Aggregate) Close() error {
	a.results = nil
	return a.child.Close()
}

func (a *Aggregate) Rewind() error {
	a.done = false
	a.results = nil
	a.pos = 0
	return a.child.Rewind()
}

// run drains the child once, building one AggState per distinct group-by
// value (or a single ungrouped state), then finalizes each into a result
// tuple, prefixed with its group-by value when grouping.
func (a *Aggregate) run() error {
	if a.done {
		return nil
	}
	type group struct {
		key   DBValue
		state AggState
	}
	order := []any{}
	groups := map[any]*group{}

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}

		var key any = struct{}{}
		var keyVal DBValue
		if a.groupByField != nil {
			keyVal, err = a.groupByField.EvalExpr(t)
			if err != nil {
				return err
			}
			key = keyVal
		}

		g, ok := groups[key]
		if !ok {
			st := a.newState()
			if err := st.Init(a.aggAlias, a.aggField); err != nil {
				return err
			}
			g = &group{key: keyVal, state: st}
			groups[key] = g
			order = append(order, key)
		}
		g.state.AddTuple(t)
	}

	results := make([]*Tuple, 0, len(order))
	for _, key := range order {
		g := groups[key]
		res := g.state.Finalize()
		if a.groupByField != nil {
			groupDesc := TupleDesc{Fields: []FieldType{a.groupByField.GetExprType()}}
			groupTuple := &Tuple{Desc: groupDesc, Fields: []DBValue{g.key}}
			res = joinTuples(groupTuple, res)
		}
		results = append(results, res)
	}

	a.results = results
	a.done = true
	return nil
}

func (a *Aggregate) HasNext() (bool, error) {
	if err := a.run(); err != nil {
		return false, err
	}
	return a.pos < len(a.results), nil
}

func (a *Aggregate) Next() (*Tuple, error) {
	has, err := a.HasNext()
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, GoDBError{NoSuchElementError, "Aggregate: no more tuples"}
	}
	t := a.results[a.pos]
	a.pos++
	return t, nil
}
