package godb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// HeapFile is an unordered collection of tuples, stored as a sequence of
// fixed-size heap pages in a single backing file.
type HeapFile struct {
	backingFile string
	tupleDesc   *TupleDesc
	bufPool     *BufferPool
	tableID     int

	// fileLock serializes the read-modify-write of growing the file by one
	// page; individual page reads/writes are synchronized through the
	// buffer pool's page-level locks instead.
	fileLock sync.Mutex
}

var heapFileTableIDCounter int64

func nextTableID() int {
	return int(atomic.AddInt64(&heapFileTableIDCounter, 1))
}

// NewHeapFile creates a HeapFile backed by fromFile, which may be empty or a
// previously created heap file. Fails if the file's size is not an exact
// multiple of PageSize: a partial trailing page means the file was written
// by something other than flushPage and its contents can't be trusted.
func NewHeapFile(fromFile string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f := &HeapFile{
		backingFile: fromFile,
		tupleDesc:   td,
		bufPool:     bp,
		tableID:     nextTableID(),
	}
	info, err := os.Stat(fromFile)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, GoDBError{IOError, fmt.Sprintf("cannot stat %s: %v", fromFile, err)}
	}
	if info.Size()%int64(PageSize) != 0 {
		return nil, GoDBError{MalformedDataError, fmt.Sprintf("%s has a partial trailing page (size %d is not a multiple of PageSize %d)", fromFile, info.Size(), PageSize)}
	}
	return f, nil
}

// BackingFile returns the name of the file this HeapFile is stored in.
func (f *HeapFile) BackingFile() string {
	return f.backingFile
}

// NumPages returns the number of pages currently in the file.
func (f *HeapFile) NumPages() int {
	info, err := os.Stat(f.backingFile)
	if err != nil {
		return 0
	}
	return int(info.Size() / int64(PageSize))
}

// LoadFromCSV populates the heap file from a CSV file, one tuple per
// non-header line, committing after every row. hasHeader skips the first
// line; sep is the field separator; skipLastField drops a trailing empty
// field produced by a trailing separator on each line.
func (f *HeapFile) LoadFromCSV(file *os.File, hasHeader bool, sep string, skipLastField bool) error {
	scanner := bufio.NewScanner(file)
	cnt := 0
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Split(line, sep)
		if skipLastField {
			fields = fields[0 : len(fields)-1]
		}
		cnt++
		desc := f.Descriptor()
		if desc == nil || desc.Fields == nil {
			return GoDBError{MalformedDataError, "heap file has no schema"}
		}
		if len(fields) != len(desc.Fields) {
			return GoDBError{MalformedDataError, fmt.Sprintf("LoadFromCSV: line %d (%s) has %d fields, expected %d", cnt, line, len(fields), len(desc.Fields))}
		}
		if cnt == 1 && hasHeader {
			continue
		}
		var newFields []DBValue
		for fno, field := range fields {
			switch desc.Fields[fno].Ftype {
			case IntType:
				field = strings.TrimSpace(field)
				fv, err := strconv.ParseFloat(field, 64)
				if err != nil {
					return GoDBError{TypeMismatchError, fmt.Sprintf("LoadFromCSV: couldn't convert value %s to int, tuple %d", field, cnt)}
				}
				newFields = append(newFields, IntField{int64(fv)})
			case StringType:
				if len(field) > StringLength {
					field = field[0:StringLength]
				}
				newFields = append(newFields, StringField{field})
			}
		}
		newT := Tuple{*desc, newFields, nil}
		tid := NewTID()
		if err := f.bufPool.BeginTransaction(tid); err != nil {
			return err
		}
		if _, err := f.insertTuple(&newT, tid); err != nil {
			f.bufPool.AbortTransaction(tid)
			return err
		}
		f.bufPool.CommitTransaction(tid)
	}
	return scanner.Err()
}

// readPage reads the pageNo'th page of the file from disk.
func (f *HeapFile) readPage(pageNo int) (Page, error) {
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return nil, GoDBError{IOError, fmt.Sprintf("failed to open %s: %v", f.backingFile, err)}
	}
	defer file.Close()

	data := make([]byte, PageSize)
	if _, err := file.Seek(int64(pageNo)*int64(PageSize), io.SeekStart); err != nil {
		return nil, GoDBError{IOError, fmt.Sprintf("failed to seek to page %d: %v", pageNo, err)}
	}
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, GoDBError{IOError, fmt.Sprintf("failed to read page %d: %v", pageNo, err)}
	}
	return parseHeapPage(data, pageNo, f.tupleDesc, f)
}

// insertTuple adds t to the first page with a free slot, or to a newly
// allocated page appended to the file if none has room. Returns the single
// page that was mutated.
func (f *HeapFile) insertTuple(t *Tuple, tid TransactionID) ([]Page, error) {
	if len(t.Fields) != len(f.tupleDesc.Fields) {
		return nil, GoDBError{TypeMismatchError, "tuple does not match heap file schema"}
	}
	for pageNo := 0; pageNo < f.NumPages(); pageNo++ {
		p, err := f.bufPool.GetPage(f, pageNo, tid, WritePerm)
		if err != nil {
			return nil, err
		}
		hp := p.(*heapPage)
		if hp.numUsedSlots() >= hp.getNumSlots() {
			continue
		}
		if _, err := hp.insertTuple(t); err != nil {
			return nil, err
		}
		hp.setDirty(tid, true)
		return []Page{hp}, nil
	}
	return f.appendPageWith(t, tid)
}

// appendPageWith allocates a new page at the end of the file and inserts t
// into it. The blank page is flushed to disk immediately so NumPages grows
// right away and concurrent appends don't collide on the same offset; an
// empty page on disk is harmless even if this transaction later aborts. The
// page is then registered in the buffer pool cache so the subsequent
// WritePerm fetch, and any later commit/abort bookkeeping, see the same
// object that the insert mutates.
func (f *HeapFile) appendPageWith(t *Tuple, tid TransactionID) ([]Page, error) {
	f.fileLock.Lock()
	pageNo := f.NumPages()
	newPage, err := newHeapPage(f.tupleDesc, pageNo, f)
	if err != nil {
		f.fileLock.Unlock()
		return nil, err
	}
	if err := f.flushPage(newPage); err != nil {
		f.fileLock.Unlock()
		return nil, err
	}
	if err := f.bufPool.cachePage(f, pageNo, newPage); err != nil {
		f.fileLock.Unlock()
		return nil, err
	}
	f.fileLock.Unlock()

	p, err := f.bufPool.GetPage(f, pageNo, tid, WritePerm)
	if err != nil {
		return nil, err
	}
	hp := p.(*heapPage)
	if _, err := hp.insertTuple(t); err != nil {
		return nil, err
	}
	hp.setDirty(tid, true)
	return []Page{hp}, nil
}

// deleteTuple removes the tuple identified by t.Rid. Returns the single page
// that was mutated.
func (f *HeapFile) deleteTuple(t *Tuple, tid TransactionID) ([]Page, error) {
	if t.Rid == nil {
		return nil, GoDBError{TupleNotFoundError, "tuple has no record id"}
	}
	p, err := f.bufPool.GetPage(f, t.Rid.PID.PageNo, tid, WritePerm)
	if err != nil {
		return nil, err
	}
	hp := p.(*heapPage)
	if err := hp.deleteTuple(t.Rid); err != nil {
		return nil, err
	}
	hp.setDirty(tid, true)
	return []Page{hp}, nil
}

// flushPage writes p back to its offset in the backing file and clears its
// dirty flag.
func (f *HeapFile) flushPage(p Page) error {
	hp, ok := p.(*heapPage)
	if !ok {
		return GoDBError{IllegalOperationError, "flushPage called with a non-heapPage"}
	}
	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return GoDBError{IOError, err.Error()}
	}
	defer file.Close()

	if _, err := file.Seek(int64(hp.pid.PageNo)*int64(PageSize), io.SeekStart); err != nil {
		return GoDBError{IOError, err.Error()}
	}
	buf, err := hp.toBuffer()
	if err != nil {
		return err
	}
	if _, err := buf.WriteTo(file); err != nil {
		return GoDBError{IOError, err.Error()}
	}
	hp.dirty = false
	return nil
}

// Descriptor returns the TupleDesc supplied to NewHeapFile.
func (f *HeapFile) Descriptor() *TupleDesc {
	return f.tupleDesc
}

// Iterator returns a lazy, restartable function yielding the file's tuples
// in page-number, then slot-number, order. Pages are fetched through the
// buffer pool (with a shared lock under tid), not read directly, so the
// scan observes the buffer pool's cached, possibly-dirty copy of each page.
func (f *HeapFile) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	pageNo := 0
	var curIter func() (*Tuple, error)
	return func() (*Tuple, error) {
		for {
			if curIter == nil {
				if pageNo >= f.NumPages() {
					return nil, nil
				}
				p, err := f.bufPool.GetPage(f, pageNo, tid, ReadPerm)
				if err != nil {
					return nil, err
				}
				curIter = p.(*heapPage).tupleIter()
			}
			t, err := curIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				curIter = nil
				pageNo++
				continue
			}
			t.Desc = *f.tupleDesc
			return t, nil
		}
	}, nil
}

// pageKey returns the PageID BufferPool should cache the pgNo'th page
// under. PageID is a plain value type, so it's usable directly as a map key.
func (f *HeapFile) pageKey(pgNo int) any {
	return PageID{TableID: f.tableID, PageNo: pgNo}
}
