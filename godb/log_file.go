package godb

// log_file.go implements an append-only write-ahead log of transaction
// boundaries and page updates: Begin/Commit/Abort records bracket a
// transaction, and an Update record captures a page's before and after
// images. BufferPool writes to it (see SetLogFile) purely as an audit
// trail for OutputPrettyLog and tests; because the pool is itself
// FORCE/NO-STEAL (see buffer_pool.go), this log is never replayed for
// crash recovery.
//
// Records are a type byte, a 4-byte transaction ID, a type-specific body,
// and an 8-byte trailing copy of the record's own starting offset (which
// is what lets ReverseIterator walk the log backwards without an index).
// An Update record's body is two page images: a 4-byte table ID, a 4-byte
// page number, and PageSize bytes of page contents, repeated for the
// before and after image.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

type LogFile struct {
	file    *os.File
	buf     bytes.Buffer
	offset  int64
	bufPool *BufferPool
	catalog *Catalog
}

type LogRecordType int8

const (
	AbortRecord LogRecordType = iota
	CommitRecord
	UpdateRecord
	BeginRecord
)

func (t LogRecordType) String() string {
	switch t {
	case AbortRecord:
		return "abort"
	case CommitRecord:
		return "commit"
	case UpdateRecord:
		return "update"
	case BeginRecord:
		return "begin"
	}
	return "unknown"
}

// NewLogFile opens (creating if necessary) a log file backed by fileName.
func NewLogFile(fileName string, bufPool *BufferPool, catalog *Catalog) (*LogFile, error) {
	if bufPool == nil || catalog == nil {
		return nil, GoDBError{IllegalOperationError, "log file requires a buffer pool and catalog"}
	}
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, GoDBError{IOError, err.Error()}
	}
	return &LogFile{file: file, bufPool: bufPool, catalog: catalog}, nil
}

func (w *LogFile) write(data any) {
	binary.Write(&w.buf, binary.BigEndian, data)
	w.offset += int64(binary.Size(data))
}

// Force flushes buffered writes to the underlying file and syncs it.
func (w *LogFile) Force() error {
	if w.buf.Len() == 0 {
		return nil
	}
	if _, err := w.file.Write(w.buf.Bytes()); err != nil {
		return GoDBError{IOError, err.Error()}
	}
	w.buf.Reset()
	return w.file.Sync()
}

func (f *LogFile) seek(offset int64, whence int) error {
	if err := f.Force(); err != nil {
		return err
	}
	newOffset, err := f.file.Seek(offset, whence)
	if err != nil {
		return GoDBError{IOError, fmt.Sprintf("invalid seek (%d, %d): %v", offset, whence, err)}
	}
	f.offset = newOffset
	return nil
}

func (f *LogFile) read(data any) error {
	if err := f.Force(); err != nil {
		return err
	}
	if err := binary.Read(f.file, binary.BigEndian, data); err != nil {
		return err
	}
	f.offset += int64(binary.Size(data))
	return nil
}

func (w *LogFile) readTransactionID(tid *TransactionID) error {
	var v int32
	if err := w.read(&v); err != nil {
		return err
	}
	*tid = TransactionID(v)
	return nil
}

func (w *LogFile) writeHeader(typ LogRecordType, tid TransactionID) {
	w.write(int8(typ))
	w.write(int32(tid))
}

func (w *LogFile) writeFooter(offset int64) {
	w.write(offset)
}

func (w *LogFile) writePage(page Page) error {
	hp, ok := page.(*heapPage)
	if !ok {
		return GoDBError{IllegalOperationError, fmt.Sprintf("log file only supports heap pages, got %T", page)}
	}
	w.write(int32(hp.pid.TableID))
	w.write(int32(hp.pid.PageNo))
	buf, err := hp.toBuffer()
	if err != nil {
		return err
	}
	w.write(buf.Bytes())
	return nil
}

func (w *LogFile) readPage() (Page, error) {
	var tableID, pageNo int32
	if err := w.read(&tableID); err != nil {
		return nil, err
	}
	if err := w.read(&pageNo); err != nil {
		return nil, err
	}
	f, err := w.catalog.GetTableByID(int(tableID))
	if err != nil {
		return nil, err
	}
	data := make([]byte, PageSize)
	if err := w.read(data); err != nil {
		return nil, err
	}
	return parseHeapPage(data, int(pageNo), f.Descriptor(), f)
}

// LogBegin records the start of a transaction.
func (w *LogFile) LogBegin(tid TransactionID) {
	offset := w.offset
	w.writeHeader(BeginRecord, tid)
	w.writeFooter(offset)
}

// LogCommit records that a transaction committed.
func (w *LogFile) LogCommit(tid TransactionID) {
	offset := w.offset
	w.writeHeader(CommitRecord, tid)
	w.writeFooter(offset)
}

// LogAbort records that a transaction aborted.
func (w *LogFile) LogAbort(tid TransactionID) {
	offset := w.offset
	w.writeHeader(AbortRecord, tid)
	w.writeFooter(offset)
}

// LogUpdate records a page's before and after image as part of tid's
// changes. Does not force the log to disk; callers typically Force once
// after logging a transaction's commit or abort record.
func (w *LogFile) LogUpdate(tid TransactionID, before, after Page) error {
	if before == nil || after == nil {
		return GoDBError{IllegalOperationError, "update record requires non-nil before and after images"}
	}
	offset := w.offset
	w.writeHeader(UpdateRecord, tid)
	if err := w.writePage(before); err != nil {
		return err
	}
	if err := w.writePage(after); err != nil {
		return err
	}
	w.writeFooter(offset)
	return nil
}

// LogRecord is one parsed record from the log.
type LogRecord interface {
	Offset() int64
	Type() LogRecordType
	Tid() TransactionID
}

type GenericLogRecord struct {
	offset int64
	typ    LogRecordType
	tid    TransactionID
}

func (r GenericLogRecord) Offset() int64       { return r.offset }
func (r GenericLogRecord) Type() LogRecordType { return r.typ }
func (r GenericLogRecord) Tid() TransactionID  { return r.tid }

type UpdateLogRecord struct {
	GenericLogRecord
	Before Page
	After  Page
}

// ForwardIterator returns a function that yields log records starting from
// the file's current position, in the order they were written, (nil, nil)
// at end of file, or an error if the file ends mid-record. Callers that
// want the whole log should seek to the start first; OutputPrettyLog does
// this for you.
func (f *LogFile) ForwardIterator() func() (LogRecord, error) {
	partial := func(msg string, err error) (LogRecord, error) {
		return nil, GoDBError{MalformedDataError, fmt.Sprintf("partial record at offset %d reading %s: %v", f.offset, msg, err)}
	}
	return func() (LogRecord, error) {
		var record GenericLogRecord
		var ret LogRecord = &record
		record.offset = f.offset

		err := f.read(&record.typ)
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return partial("record type", err)
		}
		if err := f.readTransactionID(&record.tid); err != nil {
			return partial("transaction id", err)
		}
		if record.Type() == UpdateRecord {
			var update UpdateLogRecord
			update.GenericLogRecord = record
			var err error
			if update.Before, err = f.readPage(); err != nil {
				return partial("before page", err)
			}
			if update.After, err = f.readPage(); err != nil {
				return partial("after page", err)
			}
			ret = &update
		}
		var recordOffset int64
		if err := f.read(&recordOffset); err != nil || recordOffset != record.offset {
			return partial("trailing offset", err)
		}
		return ret, nil
	}
}

// ReverseIterator walks the log from its current end backwards to the
// start, using each record's trailing offset to find the previous one.
func (f *LogFile) ReverseIterator() (func() (LogRecord, error), error) {
	if err := f.seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	return func() (LogRecord, error) {
		if f.offset < 8 {
			return nil, nil
		}
		if err := f.seek(-8, io.SeekCurrent); err != nil {
			return nil, err
		}
		var offset int64
		if err := f.read(&offset); err != nil {
			return nil, err
		}
		if err := f.seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
		record, err := f.ForwardIterator()()
		if err != nil {
			return nil, err
		}
		if err := f.seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
		return record, nil
	}, nil
}

// OutputPrettyLog writes a human-readable dump of every record in the log
// to the package logger, restoring the file's read position afterward.
func (f *LogFile) OutputPrettyLog() error {
	oldPos := f.offset
	defer f.seek(oldPos, io.SeekStart)
	if err := f.seek(0, io.SeekStart); err != nil {
		return err
	}

	iter := f.ForwardIterator()
	for {
		pos := f.offset
		record, err := iter()
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		switch record.Type() {
		case UpdateRecord:
			update := record.(*UpdateLogRecord)
			log.WithFields(map[string]any{
				"offset": pos, "type": record.Type().String(), "tid": record.Tid(),
				"page": update.Before.(*heapPage).pid,
			}).Info("log record")
		default:
			log.WithFields(map[string]any{
				"offset": pos, "type": record.Type().String(), "tid": record.Tid(),
			}).Info("log record")
		}
	}
}
