package godb

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogFileForwardAndReverse(t *testing.T) {
	dir := t.TempDir()
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	cat := NewCatalog(bp)
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	f, err := NewHeapFile(filepath.Join(dir, "t.dat"), desc, bp)
	require.NoError(t, err)
	cat.AddTable("t", f)

	wal, err := NewLogFile(filepath.Join(dir, "wal.log"), bp, cat)
	require.NoError(t, err)
	bp.SetLogFile(wal)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	_, err = f.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{7}}}, tid)
	require.NoError(t, err)
	bp.CommitTransaction(tid)

	require.NoError(t, wal.seek(0, io.SeekStart))
	fwd := wal.ForwardIterator()
	var kinds []LogRecordType
	for {
		rec, err := fwd()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		kinds = append(kinds, rec.Type())
	}
	require.Equal(t, []LogRecordType{BeginRecord, UpdateRecord, CommitRecord}, kinds)

	rev, err := wal.ReverseIterator()
	require.NoError(t, err)
	var revKinds []LogRecordType
	for {
		rec, err := rev()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		revKinds = append(revKinds, rec.Type())
	}
	require.Equal(t, []LogRecordType{CommitRecord, UpdateRecord, BeginRecord}, revKinds)
}

func TestLogFileAbortRecord(t *testing.T) {
	dir := t.TempDir()
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	cat := NewCatalog(bp)
	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	f, err := NewHeapFile(filepath.Join(dir, "t.dat"), desc, bp)
	require.NoError(t, err)
	cat.AddTable("t", f)

	wal, err := NewLogFile(filepath.Join(dir, "wal.log"), bp, cat)
	require.NoError(t, err)
	bp.SetLogFile(wal)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	_, err = f.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{1}}}, tid)
	require.NoError(t, err)
	bp.AbortTransaction(tid)

	require.NoError(t, wal.seek(0, io.SeekStart))
	fwd := wal.ForwardIterator()
	var last LogRecordType
	for {
		rec, err := fwd()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		last = rec.Type()
	}
	require.Equal(t, AbortRecord, last)
}
