package godb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// singleSlotHeapFile returns a HeapFile whose schema is wide enough that
// exactly one tuple fits per page, so N inserts are guaranteed to produce N
// distinct pages -- useful for exercising page-level LRU eviction without
// needing thousands of rows.
func singleSlotHeapFile(t *testing.T, bp *BufferPool, name string) *HeapFile {
	t.Helper()
	oldLen := StringLength
	StringLength = 4000
	t.Cleanup(func() { StringLength = oldLen })

	path := t.TempDir() + "/" + name
	desc := &TupleDesc{Fields: []FieldType{{Fname: "s", Ftype: StringType}}}
	hf, err := NewHeapFile(path, desc, bp)
	require.NoError(t, err)
	require.Equal(t, 1, numSlotsFor(desc))
	return hf
}

func TestBufferPoolLRUEvictionRespectsDirty(t *testing.T) {
	bp, err := NewBufferPool(2)
	require.NoError(t, err)
	hf := singleSlotHeapFile(t, bp, "lru.dat")

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))

	insert := func(s string) {
		t.Helper()
		_, err := hf.insertTuple(&Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{StringField{s}}}, tid)
		require.NoError(t, err)
	}

	insert("p1") // page 0, dirty after the insert
	insert("p2") // page 1

	// p1 (page 0) is already dirty from the insert above. Inserting a third
	// tuple forces eviction; since page 0 is dirty and page 1 is also dirty
	// (both were just written to), there is no clean page to evict.
	_, err = hf.insertTuple(&Tuple{Desc: *hf.Descriptor(), Fields: []DBValue{StringField{"p3"}}}, tid)
	require.Error(t, err, "every cached page is dirty, so eviction must fail")
	gerr, ok := err.(GoDBError)
	require.True(t, ok)
	require.Equal(t, BufferPoolFullError, gerr.Code)

	bp.CommitTransaction(tid)
}

func TestBufferPoolCommitFlushesAndCleans(t *testing.T) {
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	path := t.TempDir() + "/commit.dat"
	desc := &TupleDesc{Fields: []FieldType{{Fname: "a", Ftype: IntType}}}
	hf, err := NewHeapFile(path, desc, bp)
	require.NoError(t, err)

	tid := NewTID()
	require.NoError(t, bp.BeginTransaction(tid))
	_, err = hf.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{42}}}, tid)
	require.NoError(t, err)
	bp.CommitTransaction(tid)

	// Fresh buffer pool over the same file: the insert must be visible on
	// disk, proving commit actually flushed it.
	bp2, err := NewBufferPool(10)
	require.NoError(t, err)
	hf2, err := NewHeapFile(path, desc, bp2)
	require.NoError(t, err)
	tid2 := NewTID()
	require.NoError(t, bp2.BeginTransaction(tid2))
	iter, err := hf2.Iterator(tid2)
	require.NoError(t, err)
	tup, err := iter()
	require.NoError(t, err)
	require.NotNil(t, tup)
	require.Equal(t, int64(42), tup.Fields[0].(IntField).Value)
	bp2.CommitTransaction(tid2)
}

func TestBufferPoolAbortDiscardsWrites(t *testing.T) {
	bp, err := NewBufferPool(10)
	require.NoError(t, err)
	path := t.TempDir() + "/abort.dat"
	desc := &TupleDesc{Fields: []FieldType{{Fname: "a", Ftype: IntType}}}
	hf, err := NewHeapFile(path, desc, bp)
	require.NoError(t, err)

	tid1 := NewTID()
	require.NoError(t, bp.BeginTransaction(tid1))
	_, err = hf.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{7}}}, tid1)
	require.NoError(t, err)
	bp.AbortTransaction(tid1)

	tid2 := NewTID()
	require.NoError(t, bp.BeginTransaction(tid2))
	iter, err := hf.Iterator(tid2)
	require.NoError(t, err)
	tup, err := iter()
	require.NoError(t, err)
	require.Nil(t, tup, "aborted insert must not be visible to a later transaction")
	bp.CommitTransaction(tid2)
}
