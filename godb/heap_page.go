package godb

import (
	"bytes"
	"encoding/binary"
)

/*
heapPage implements the Page interface for pages of a HeapFile.

A page is a fixed PageSize-byte block laid out as:

	[header: ceil(N/8) bytes][slot 0][slot 1]...[slot N-1][zero padding]

N, the number of tuple slots, is the largest value such that the header
plus N fixed-width tuple slots fit in PageSize bytes:

	N = floor(PageSize*8 / (bytesPerTuple*8 + 1))

(each slot costs bytesPerTuple*8 data bits plus one header bit). Bit i of
header byte i/8, counting from the LSB, is 1 iff slot i is occupied. Slots
keep their position on disk whether or not they're in use, so a tuple's
RecordID.Slot stays valid across a write/read round-trip and across
deletions of other slots on the same page.
*/
type heapPage struct {
	pid      PageID
	numSlots int
	header   []byte
	desc     *TupleDesc
	file     *HeapFile
	tuples   []*Tuple

	dirty    bool
	dirtyTID TransactionID

	// beforeImage is the serialized form of the page the last time it was
	// read clean from disk or flushed at commit. getBeforeImage
	// reconstructs a Page from it for the before/after pair BufferPool
	// writes to the log.
	beforeImage []byte
}

func headerLen(numSlots int) int {
	return (numSlots + 7) / 8
}

func numSlotsFor(desc *TupleDesc) int {
	tupleBits := desc.bytesPerTuple()*8 + 1
	return (PageSize * 8) / tupleBits
}

// newHeapPage constructs an empty page for slot pageNo of f.
func newHeapPage(desc *TupleDesc, pageNo int, f *HeapFile) (*heapPage, error) {
	numSlots := numSlotsFor(desc)
	if numSlots <= 0 {
		return nil, GoDBError{IllegalOperationError, "tuple is too large to fit on a page"}
	}
	tableID := 0
	if f != nil {
		tableID = f.tableID
	}
	p := &heapPage{
		pid:      PageID{TableID: tableID, PageNo: pageNo},
		numSlots: numSlots,
		header:   make([]byte, headerLen(numSlots)),
		desc:     desc,
		file:     f,
		tuples:   make([]*Tuple, numSlots),
	}
	p.setBeforeImage()
	return p, nil
}

// parseHeapPage reads a page from its on-disk byte representation.
func parseHeapPage(data []byte, pageNo int, desc *TupleDesc, f *HeapFile) (*heapPage, error) {
	p, err := newHeapPage(desc, pageNo, f)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(data)
	if err := binary.Read(buf, binary.BigEndian, p.header); err != nil {
		return nil, GoDBError{MalformedDataError, "short read of page header: " + err.Error()}
	}
	tupleSize := desc.bytesPerTuple()
	for slot := 0; slot < p.numSlots; slot++ {
		if !p.isSlotUsed(slot) {
			buf.Next(tupleSize)
			continue
		}
		t, err := readTupleFrom(buf, desc)
		if err != nil {
			return nil, GoDBError{MalformedDataError, "failed to parse tuple slot: " + err.Error()}
		}
		t.Rid = &RecordID{PID: p.pid, Slot: slot}
		p.tuples[slot] = t
	}
	p.setBeforeImage()
	return p, nil
}

func (p *heapPage) isSlotUsed(slot int) bool {
	return p.header[slot/8]&(1<<(uint(slot)%8)) != 0
}

// markSlotUsed sets or clears the occupancy bit for slot.
func (p *heapPage) markSlotUsed(slot int, used bool) {
	mask := byte(1 << (uint(slot) % 8))
	if used {
		p.header[slot/8] |= mask
	} else {
		p.header[slot/8] &^= mask
	}
}

func (p *heapPage) getNumSlots() int {
	return p.numSlots
}

func (p *heapPage) numUsedSlots() int {
	n := 0
	for slot := 0; slot < p.numSlots; slot++ {
		if p.isSlotUsed(slot) {
			n++
		}
	}
	return n
}

// insertTuple places t in the lowest-numbered free slot, sets t's RecordID
// and returns it. Fails with PageFullError if every slot is occupied.
func (p *heapPage) insertTuple(t *Tuple) (*RecordID, error) {
	if len(t.Fields) != len(p.desc.Fields) {
		return nil, GoDBError{TypeMismatchError, "tuple field count does not match page schema"}
	}
	for slot := 0; slot < p.numSlots; slot++ {
		if p.isSlotUsed(slot) {
			continue
		}
		rid := &RecordID{PID: p.pid, Slot: slot}
		p.tuples[slot] = &Tuple{Desc: *p.desc, Fields: t.Fields, Rid: rid}
		p.markSlotUsed(slot, true)
		p.dirty = true
		t.Rid = rid
		return rid, nil
	}
	return nil, GoDBError{PageFullError, "no free slot on page"}
}

// deleteTuple removes the tuple at rid.Slot. Fails with TupleNotFoundError
// if rid refers to a different page, an out-of-range slot, or an already
// empty slot.
func (p *heapPage) deleteTuple(rid *RecordID) error {
	if rid == nil || rid.PID != p.pid {
		return GoDBError{TupleNotFoundError, "record id does not belong to this page"}
	}
	if rid.Slot < 0 || rid.Slot >= p.numSlots {
		return GoDBError{TupleNotFoundError, "slot index out of range"}
	}
	if !p.isSlotUsed(rid.Slot) {
		return GoDBError{TupleNotFoundError, "slot is already empty"}
	}
	p.tuples[rid.Slot] = nil
	p.markSlotUsed(rid.Slot, false)
	p.dirty = true
	return nil
}

func (p *heapPage) isDirty() bool {
	return p.dirty
}

func (p *heapPage) setDirty(tid TransactionID, dirty bool) {
	p.dirty = dirty
	if dirty {
		p.dirtyTID = tid
	}
}

func (p *heapPage) dirtyTid() (TransactionID, bool) {
	return p.dirtyTID, p.dirty
}

func (p *heapPage) getFile() DBFile {
	return p.file
}

func (p *heapPage) PageNo() int {
	return p.pid.PageNo
}

// toBuffer serializes the page: header bitmap, then each of the N slots in
// order (an occupied slot writes its tuple, an empty one writes zero
// bytes), then zero padding out to PageSize.
func (p *heapPage) toBuffer() (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, p.header); err != nil {
		return nil, err
	}
	tupleSize := p.desc.bytesPerTuple()
	zeros := make([]byte, tupleSize)
	for slot := 0; slot < p.numSlots; slot++ {
		if p.tuples[slot] != nil {
			if err := p.tuples[slot].writeTo(buf); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := buf.Write(zeros); err != nil {
			return nil, err
		}
	}
	if buf.Len() > PageSize {
		return nil, GoDBError{MalformedDataError, "serialized page exceeds PageSize"}
	}
	if buf.Len() < PageSize {
		if _, err := buf.Write(make([]byte, PageSize-buf.Len())); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// tupleIter returns a function yielding the page's occupied slots in
// slot-index order, stopping (nil, nil) once every slot has been visited.
func (p *heapPage) tupleIter() func() (*Tuple, error) {
	slot := 0
	return func() (*Tuple, error) {
		for slot < p.numSlots {
			t := p.tuples[slot]
			slot++
			if t != nil {
				return t, nil
			}
		}
		return nil, nil
	}
}

// setBeforeImage snapshots the page's current serialized bytes. Called when
// the page is first read (or created), and again by BufferPool once it has
// flushed the page at commit.
func (p *heapPage) setBeforeImage() {
	buf, err := p.toBuffer()
	if err != nil {
		log.WithError(err).Warn("failed to capture before-image")
		return
	}
	snap := make([]byte, buf.Len())
	copy(snap, buf.Bytes())
	p.beforeImage = snap
}

// getBeforeImage reconstructs a Page from the last captured before-image.
func (p *heapPage) getBeforeImage() (Page, error) {
	if p.beforeImage == nil {
		return nil, GoDBError{IllegalOperationError, "no before-image captured for page"}
	}
	return parseHeapPage(p.beforeImage, p.pid.PageNo, p.desc, p.file)
}
