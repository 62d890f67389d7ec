package godb

// BufferPool caches pages read from disk, up to a fixed capacity, and is the
// mechanism through which transactions are isolated: every page access goes
// through GetPage, which acquires a page-level lock (see lock_manager.go)
// before returning the page, and through Commit/AbortTransaction, which
// release those locks together at the end of a transaction.
//
// The pool is NO-STEAL: a dirty page is never evicted, so an aborting
// transaction never has to undo anything already on disk. It is also FORCE:
// every page a transaction dirtied is flushed before its locks are released
// at commit, so a crash right after commit returns loses nothing. Both
// properties let this package skip write-ahead logging for crash recovery;
// log_file.go exists for auditing/debugging and is never replayed.

import (
	"container/list"
	"sync"
)

// RWPerm is the permission requested when fetching a page: shared (read) or
// exclusive (write).
type RWPerm int

const (
	ReadPerm RWPerm = iota
	WritePerm
)

type BufferPool struct {
	mu       sync.Mutex
	numPages int
	pages    map[any]Page
	// lru orders cached page keys from most (front) to least (back)
	// recently used. Eviction scans from the back looking for the first
	// clean page.
	lru      *list.List
	lruElems map[any]*list.Element

	locks  *lockManager
	active map[TransactionID]bool

	wal *LogFile
}

// SetLogFile attaches a log file that BeginTransaction/CommitTransaction/
// AbortTransaction will write Begin/Update/Commit/Abort records to. Purely
// an audit trail (see the package comment above); passing nil disables it,
// which is also the default.
func (bp *BufferPool) SetLogFile(wal *LogFile) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.wal = wal
}

// NewBufferPool creates a new BufferPool with the given page capacity.
func NewBufferPool(numPages int) (*BufferPool, error) {
	if numPages <= 0 {
		return nil, GoDBError{IllegalOperationError, "buffer pool must hold at least one page"}
	}
	return &BufferPool{
		numPages: numPages,
		pages:    make(map[any]Page),
		lru:      list.New(),
		lruElems: make(map[any]*list.Element),
		locks:    newLockManager(),
		active:   make(map[TransactionID]bool),
	}, nil
}

// FlushAllPages flushes every dirty page to its file and clears its dirty
// flag. Intended for tests; does not touch locks or transaction state.
func (bp *BufferPool) FlushAllPages() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range bp.pages {
		if !p.isDirty() {
			continue
		}
		if err := p.getFile().flushPage(p); err != nil {
			log.WithError(err).Error("FlushAllPages: flush failed")
			continue
		}
		p.setBeforeImage()
		p.setDirty(0, false)
	}
}

// BeginTransaction registers tid as active. Returns an error if tid is
// already running.
func (bp *BufferPool) BeginTransaction(tid TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.active[tid] {
		return GoDBError{IllegalOperationError, "transaction is already running"}
	}
	bp.active[tid] = true
	if bp.wal != nil {
		bp.wal.LogBegin(tid)
	}
	return nil
}

// CommitTransaction flushes every page tid dirtied, refreshes their
// before-images, and releases tid's locks.
func (bp *BufferPool) CommitTransaction(tid TransactionID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range bp.pages {
		dtid, dirty := p.dirtyTid()
		if !dirty || dtid != tid {
			continue
		}
		if bp.wal != nil {
			if before, err := p.getBeforeImage(); err == nil {
				if err := bp.wal.LogUpdate(tid, before, p); err != nil {
					log.WithError(err).WithField("tid", tid).Warn("commit: failed to log update")
				}
			}
		}
		if err := p.getFile().flushPage(p); err != nil {
			log.WithError(err).WithField("tid", tid).Error("commit: flush failed")
			continue
		}
		p.setBeforeImage()
		p.setDirty(tid, false)
	}
	if bp.wal != nil {
		bp.wal.LogCommit(tid)
		if err := bp.wal.Force(); err != nil {
			log.WithError(err).WithField("tid", tid).Error("commit: failed to force log")
		}
	}
	bp.locks.release(tid)
	delete(bp.active, tid)
}

// AbortTransaction discards the effects of tid's writes by replacing every
// page it dirtied with its before-image, then releases tid's locks. Because
// the pool is NO-STEAL, none of those pages were ever written to disk, so
// reverting the in-memory copy is sufficient.
func (bp *BufferPool) AbortTransaction(tid TransactionID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for key, p := range bp.pages {
		dtid, dirty := p.dirtyTid()
		if !dirty || dtid != tid {
			continue
		}
		before, err := p.getBeforeImage()
		if err != nil {
			log.WithError(err).WithField("tid", tid).Error("abort: no before-image, dropping page from cache")
			bp.evictKey(key)
			continue
		}
		bp.pages[key] = before
	}
	if bp.wal != nil {
		bp.wal.LogAbort(tid)
		if err := bp.wal.Force(); err != nil {
			log.WithError(err).WithField("tid", tid).Error("abort: failed to force log")
		}
	}
	bp.locks.release(tid)
	delete(bp.active, tid)
}

// GetPage retrieves the pageNumber'th page of file on behalf of tid, first
// acquiring the requested lock (blocking, with bounded retry; see
// lock_manager.go) and then serving it from cache or reading it from disk.
// If the pool is full, a clean page is evicted first; if every cached page
// is dirty, returns BufferPoolFullError.
func (bp *BufferPool) GetPage(file DBFile, pageNumber int, tid TransactionID, perm RWPerm) (Page, error) {
	key := file.pageKey(pageNumber)

	bp.mu.Lock()
	if !bp.active[tid] {
		bp.mu.Unlock()
		return nil, GoDBError{IllegalOperationError, "transaction is not active"}
	}
	bp.mu.Unlock()

	if err := bp.locks.acquire(key, tid, perm); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	if p, ok := bp.pages[key]; ok {
		bp.touch(key)
		bp.mu.Unlock()
		return p, nil
	}
	if len(bp.pages) >= bp.numPages {
		if err := bp.evictLocked(); err != nil {
			bp.mu.Unlock()
			return nil, err
		}
	}
	bp.mu.Unlock()

	p, err := file.readPage(pageNumber)
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if existing, ok := bp.pages[key]; ok {
		// Another goroutine raced us and read the page first.
		bp.touch(key)
		return existing, nil
	}
	bp.insertLocked(key, p)
	return p, nil
}

// cachePage registers a freshly allocated page (not yet backed by a prior
// readPage call) directly into the cache, evicting room for it if needed.
// Used by HeapFile when it appends a brand-new page to the end of a file.
// Returns BufferPoolFullError, without caching p, if every cached page is
// dirty -- the pool's "never exceed capacity" invariant holds even for a
// page that already exists on disk.
func (bp *BufferPool) cachePage(file DBFile, pageNumber int, p Page) error {
	key := file.pageKey(pageNumber)
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if _, ok := bp.pages[key]; ok {
		return nil
	}
	if len(bp.pages) >= bp.numPages {
		if err := bp.evictLocked(); err != nil {
			return err
		}
	}
	bp.insertLocked(key, p)
	return nil
}

// insertLocked adds key/p to the cache and the front of the LRU list.
// Caller must hold bp.mu.
func (bp *BufferPool) insertLocked(key any, p Page) {
	bp.pages[key] = p
	bp.lruElems[key] = bp.lru.PushFront(key)
}

// touch moves key to the front of the LRU list. Caller must hold bp.mu.
func (bp *BufferPool) touch(key any) {
	if e, ok := bp.lruElems[key]; ok {
		bp.lru.MoveToFront(e)
	}
}

// evictLocked scans from the least-recently-used end of the LRU list for
// the first clean page and drops it from the cache. Caller must hold bp.mu.
func (bp *BufferPool) evictLocked() error {
	for e := bp.lru.Back(); e != nil; e = e.Prev() {
		key := e.Value
		p, ok := bp.pages[key]
		if !ok || p.isDirty() {
			continue
		}
		bp.evictKey(key)
		return nil
	}
	return GoDBError{BufferPoolFullError, "every page in the buffer pool is dirty"}
}

// evictKey drops key from the cache and LRU list outright. Caller must hold
// bp.mu.
func (bp *BufferPool) evictKey(key any) {
	if e, ok := bp.lruElems[key]; ok {
		bp.lru.Remove(e)
		delete(bp.lruElems, key)
	}
	delete(bp.pages, key)
}
