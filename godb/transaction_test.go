package godb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionLifecycle(t *testing.T) {
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	f, err := NewHeapFile(filepath.Join(t.TempDir(), "t.dat"), desc, bp)
	require.NoError(t, err)

	txn := NewTransaction(bp)
	require.NotEqual(t, TransactionID(0), txn.ID)
	require.NoError(t, txn.Start())

	_, err = f.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{1}}}, txn.ID)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	require.Error(t, txn.Commit(), "committing twice must fail")
}

func TestTransactionAbortBeforeStartFails(t *testing.T) {
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	txn := NewTransaction(bp)
	require.Error(t, txn.Abort())
}
