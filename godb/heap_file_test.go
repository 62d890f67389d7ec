package godb

import (
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/d4l3k/messagediff"
	"github.com/stretchr/testify/require"
)

// TestHeapFileInsertAndScanRoundTrip inserts a batch of randomly generated
// rows (enough to span several pages) and checks that scanning the file back
// reproduces exactly the same set of rows, regardless of page boundaries.
func TestHeapFileInsertAndScanRoundTrip(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{
		{Fname: "id", Ftype: IntType},
		{Fname: "name", Ftype: StringType},
	}}
	// Every row goes in under one transaction and the pool never evicts a
	// dirty page, so it must hold all the pages the rows fill (14 at 30
	// (int, string) tuples per page).
	bp, err := NewBufferPool(DefaultBufferPoolPages)
	require.NoError(t, err)
	f, err := NewHeapFile(filepath.Join(t.TempDir(), "people.dat"), desc, bp)
	require.NoError(t, err)

	gofakeit.Seed(1)
	const rowCount = 400
	want := make([]*Tuple, rowCount)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	for i := 0; i < rowCount; i++ {
		row := &Tuple{Desc: *desc, Fields: []DBValue{
			IntField{int64(i)},
			StringField{gofakeit.Name()},
		}}
		_, err := f.insertTuple(row, tid)
		require.NoError(t, err)
		want[i] = row
	}
	bp.CommitTransaction(tid)
	require.Greater(t, f.NumPages(), 1, "test data should span multiple pages")

	tid2 := NewTID()
	require.NoError(t, bp.BeginTransaction(tid2))
	iter, err := f.Iterator(tid2)
	require.NoError(t, err)
	var got []*Tuple
	for {
		row, err := iter()
		require.NoError(t, err)
		if row == nil {
			break
		}
		got = append(got, row)
	}
	bp.CommitTransaction(tid2)

	require.Len(t, got, rowCount)
	for i := range want {
		diff, equal := messagediff.PrettyDiff(want[i].Fields, got[i].Fields)
		require.True(t, equal, "row %d mismatch: %s", i, diff)
	}
}
