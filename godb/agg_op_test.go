package godb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateGroupedSum(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{
		{Fname: "group", Ftype: StringType},
		{Fname: "value", Ftype: IntType},
	}}
	rows := []*Tuple{
		{Desc: *desc, Fields: []DBValue{StringField{"a"}, IntField{1}}},
		{Desc: *desc, Fields: []DBValue{StringField{"a"}, IntField{2}}},
		{Desc: *desc, Fields: []DBValue{StringField{"b"}, IntField{5}}},
	}
	child := newTestSliceOp(desc, rows)

	groupField := &FieldExpr{Field: desc.Fields[0]}
	valueField := &FieldExpr{Field: desc.Fields[1]}
	agg, err := NewAggregator(child, func() AggState { return &SumAggState{} }, valueField, "total", groupField)
	require.NoError(t, err)

	require.NoError(t, agg.Open(NewTID()))
	got := map[string]int64{}
	for {
		has, err := agg.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		tup, err := agg.Next()
		require.NoError(t, err)
		got[tup.Fields[0].(StringField).Value] = tup.Fields[1].(IntField).Value
	}
	require.Equal(t, map[string]int64{"a": 3, "b": 5}, got)
}

func TestAggregateUngroupedCount(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	rows := makeIntTuples(desc, []int64{10, 20, 30})
	child := newTestSliceOp(desc, rows)

	agg, err := NewAggregator(child, func() AggState { return &CountAggState{} }, &FieldExpr{Field: desc.Fields[0]}, "n", nil)
	require.NoError(t, err)
	require.NoError(t, agg.Open(NewTID()))
	has, err := agg.HasNext()
	require.NoError(t, err)
	require.True(t, has)
	tup, err := agg.Next()
	require.NoError(t, err)
	require.Equal(t, int64(3), tup.Fields[0].(IntField).Value)

	has, err = agg.HasNext()
	require.NoError(t, err)
	require.False(t, has)
}

func TestAggregateSumOverStringRejectedAtConstruction(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "name", Ftype: StringType}}}
	child := newTestSliceOp(desc, nil)
	nameField := &FieldExpr{Field: desc.Fields[0]}

	_, err := NewAggregator(child, func() AggState { return &SumAggState{} }, nameField, "total", nil)
	require.Error(t, err)
	require.Equal(t, TypeMismatchError, err.(GoDBError).Code)

	_, err = NewAggregator(child, func() AggState { return &AvgAggState{} }, nameField, "avg", nil)
	require.Error(t, err)
	require.Equal(t, TypeMismatchError, err.(GoDBError).Code)
}

func TestAvgAggStateNoDivideByZero(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	var st AvgAggState
	require.NoError(t, st.Init("avg", &FieldExpr{Field: desc.Fields[0]}))
	tup := st.Finalize()
	require.Equal(t, int64(0), tup.Fields[0].(IntField).Value)
}
