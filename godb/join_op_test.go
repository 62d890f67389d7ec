package godb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinNestedLoop(t *testing.T) {
	leftDesc := &TupleDesc{Fields: []FieldType{{Fname: "k", Ftype: IntType}}}
	rightDesc := &TupleDesc{Fields: []FieldType{{Fname: "k", Ftype: IntType}}}

	leftTuples := makeIntTuples(leftDesc, []int64{1, 2, 2, 3})
	rightTuples := makeIntTuples(rightDesc, []int64{2, 2, 4})

	left := newTestSliceOp(leftDesc, leftTuples)
	right := newTestSliceOp(rightDesc, rightTuples)

	leftField := &FieldExpr{Field: leftDesc.Fields[0]}
	rightField := &FieldExpr{Field: rightDesc.Fields[0]}

	join, err := NewJoin(left, leftField, right, rightField, 0)
	require.NoError(t, err)
	require.NoError(t, join.Open(NewTID()))

	count := 0
	for {
		has, err := join.HasNext()
		require.NoError(t, err)
		if !has {
			break
		}
		tup, err := join.Next()
		require.NoError(t, err)
		require.Equal(t, int64(2), tup.Fields[0].(IntField).Value)
		require.Equal(t, int64(2), tup.Fields[1].(IntField).Value)
		count++
	}
	require.Equal(t, 4, count, "key 2 appears twice on each side, so 2x2 combinations")
}

func TestJoinMismatchedTypesRejected(t *testing.T) {
	leftDesc := &TupleDesc{Fields: []FieldType{{Fname: "k", Ftype: IntType}}}
	rightDesc := &TupleDesc{Fields: []FieldType{{Fname: "k", Ftype: StringType}}}
	left := newTestSliceOp(leftDesc, nil)
	right := newTestSliceOp(rightDesc, nil)

	_, err := NewJoin(left, &FieldExpr{Field: leftDesc.Fields[0]}, right, &FieldExpr{Field: rightDesc.Fields[0]}, 0)
	require.Error(t, err)
}

func makeIntTuples(desc *TupleDesc, vals []int64) []*Tuple {
	out := make([]*Tuple, len(vals))
	for i, v := range vals {
		out[i] = &Tuple{Desc: *desc, Fields: []DBValue{IntField{v}}}
	}
	return out
}
