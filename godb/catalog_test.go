package godb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogLoadManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "catalog.yaml")
	tableFile := filepath.Join(dir, "people.dat")
	yamlSrc := "tables:\n" +
		"  - name: people\n" +
		"    file: " + tableFile + "\n" +
		"    fields:\n" +
		"      - name: id\n" +
		"        type: int\n" +
		"      - name: name\n" +
		"        type: string\n"
	require.NoError(t, os.WriteFile(manifest, []byte(yamlSrc), 0644))

	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	cat := NewCatalog(bp)
	require.NoError(t, cat.LoadManifest(manifest))

	f, err := cat.GetTable("people")
	require.NoError(t, err)
	require.Len(t, f.Descriptor().Fields, 2)
	require.Equal(t, IntType, f.Descriptor().Fields[0].Ftype)
	require.Equal(t, StringType, f.Descriptor().Fields[1].Ftype)

	byID, err := cat.GetTableByID(f.tableID)
	require.NoError(t, err)
	require.Same(t, f, byID)

	_, err = cat.GetTable("nope")
	require.Error(t, err)
}

func TestCatalogRefreshStats(t *testing.T) {
	dir := t.TempDir()
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	cat := NewCatalog(bp)

	desc := &TupleDesc{Fields: []FieldType{{Fname: "v", Ftype: IntType}}}
	f, err := NewHeapFile(filepath.Join(dir, "t.dat"), desc, bp)
	require.NoError(t, err)
	cat.AddTable("t", f)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	for _, v := range []int64{1, 2, 3} {
		_, err := f.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{v}}}, tid)
		require.NoError(t, err)
	}
	bp.CommitTransaction(tid)

	tid2 := NewTID()
	require.NoError(t, bp.BeginTransaction(tid2))
	require.NoError(t, cat.RefreshStats("t", tid2))
	bp.CommitTransaction(tid2)

	ts, ok := cat.Stats("t")
	require.True(t, ok)
	require.Equal(t, int64(3), ts.numTuples)
}
