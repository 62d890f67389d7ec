package godb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intIntDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "a", Ftype: IntType},
		{Fname: "b", Ftype: IntType},
	}}
}

func TestHeapPageSlotCount(t *testing.T) {
	desc := intIntDesc()
	n := numSlotsFor(desc)
	require.Equal(t, 504, n, "schema (int,int) on a 4096-byte page should fit 504 slots")
	require.Equal(t, 63, headerLen(n))
}

func TestHeapPageRoundTrip(t *testing.T) {
	desc := intIntDesc()
	p, err := newHeapPage(desc, 0, nil)
	require.NoError(t, err)

	for i, pair := range [][2]int64{{1, 10}, {2, 20}, {3, 30}} {
		tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{pair[0]}, IntField{pair[1]}}}
		rid, err := p.insertTuple(tup)
		require.NoError(t, err)
		require.Equal(t, i, rid.Slot)
	}

	buf, err := p.toBuffer()
	require.NoError(t, err)
	require.Equal(t, PageSize, buf.Len())

	parsed, err := parseHeapPage(buf.Bytes(), 0, desc, nil)
	require.NoError(t, err)
	require.Equal(t, 3, parsed.numUsedSlots())

	iter := parsed.tupleIter()
	var got []int64
	for {
		tup, err := iter()
		require.NoError(t, err)
		if tup == nil {
			break
		}
		got = append(got, tup.Fields[0].(IntField).Value)
	}
	require.Equal(t, []int64{1, 2, 3}, got)
}

func TestHeapPageInsertDelete(t *testing.T) {
	desc := intIntDesc()
	p, err := newHeapPage(desc, 0, nil)
	require.NoError(t, err)

	t1 := &Tuple{Desc: *desc, Fields: []DBValue{IntField{1}, IntField{10}}}
	t2 := &Tuple{Desc: *desc, Fields: []DBValue{IntField{2}, IntField{20}}}
	r1, err := p.insertTuple(t1)
	require.NoError(t, err)
	_, err = p.insertTuple(t2)
	require.NoError(t, err)
	require.Equal(t, 2, p.numUsedSlots())

	require.NoError(t, p.deleteTuple(r1))
	require.Equal(t, 1, p.numUsedSlots())

	require.Error(t, p.deleteTuple(r1), "deleting an already-empty slot must fail")
}

func TestHeapPageFullFails(t *testing.T) {
	desc := intIntDesc()
	p, err := newHeapPage(desc, 0, nil)
	require.NoError(t, err)

	n := p.getNumSlots()
	for i := 0; i < n; i++ {
		_, err := p.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{int64(i)}, IntField{0}}})
		require.NoError(t, err)
	}
	_, err = p.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{999}, IntField{0}}})
	require.Error(t, err)
	gerr, ok := err.(GoDBError)
	require.True(t, ok)
	require.Equal(t, PageFullError, gerr.Code)
}
