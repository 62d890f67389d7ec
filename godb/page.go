package godb

import "bytes"

// Page is the unit cached by the BufferPool and written by a DBFile. A
// heapPage is the only implementation in this package, but the interface
// keeps BufferPool and the log file from depending on heapPage directly.
type Page interface {
	// isDirty reports whether the page has been modified since it was
	// last read from or flushed to disk.
	isDirty() bool
	// setDirty marks the page dirty (or clean) and, when dirty, records
	// which transaction dirtied it.
	setDirty(tid TransactionID, dirty bool)
	// dirtyTid returns the transaction that last dirtied the page, and
	// whether the page is dirty at all.
	dirtyTid() (TransactionID, bool)
	// getFile returns the DBFile this page belongs to, so the buffer
	// pool can flush it back through the right HeapFile.
	getFile() DBFile
	// toBuffer serializes the page to its on-disk byte representation.
	toBuffer() (*bytes.Buffer, error)
	// getBeforeImage reconstructs a Page from the snapshot captured the
	// last time the page was read clean or committed.
	getBeforeImage() (Page, error)
	// setBeforeImage refreshes the before-image snapshot to the page's
	// current contents. Called by BufferPool at commit, after flushing.
	setBeforeImage()
}

// DBFile is a collection of tuples persisted on disk, read and written one
// Page at a time. HeapFile is the only implementation in this package.
type DBFile interface {
	// insertTuple adds t to the file, returning the pages it mutated.
	insertTuple(t *Tuple, tid TransactionID) ([]Page, error)
	// deleteTuple removes the tuple identified by t.Rid, returning the
	// pages it mutated.
	deleteTuple(t *Tuple, tid TransactionID) ([]Page, error)
	// readPage reads the pageNo'th page of the file from disk.
	readPage(pageNo int) (Page, error)
	// flushPage writes p back to its offset in the file and clears its
	// dirty flag.
	flushPage(p Page) error
	// Iterator returns a lazy, restartable function that yields the
	// file's tuples in page-number, then slot-number, order.
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
	// Descriptor returns the file's TupleDesc.
	Descriptor() *TupleDesc
	// pageKey returns the key BufferPool should cache the pageNo'th page
	// under.
	pageKey(pageNo int) any
	// NumPages returns the number of pages currently in the file.
	NumPages() int
}
