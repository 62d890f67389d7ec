package godb

import (
	"fmt"
	"sync"
	"time"
)

// lockManager implements strict two-phase locking at page granularity:
// shared locks for reads, exclusive locks for writes, with in-place upgrade
// for a transaction that holds the sole shared lock on a page and then
// requests exclusive access to it. Locks are released together, at commit
// or abort, never individually mid-transaction (the "strict" in strict 2PL).
//
// Acquisition never blocks indefinitely. A request that conflicts polls with
// a bounded number of short sleeps (MaxLockRetries, LockRetrySleep) and then
// gives up with TransactionAbortedError rather than running real deadlock
// detection; the caller is expected to abort and let the transaction retry
// from scratch.
type lockManager struct {
	mu sync.Mutex
	// holders maps a page key to the set of transactions holding a lock on
	// it, and the mode (Read or Write) each holds it in. A Write entry is
	// always alone; any number of Read entries may coexist.
	holders map[any]map[TransactionID]RWPerm
	// held maps a transaction to the set of page keys it currently locks,
	// so release can find them all without scanning every page.
	held map[TransactionID]map[any]bool
}

func newLockManager() *lockManager {
	return &lockManager{
		holders: make(map[any]map[TransactionID]RWPerm),
		held:    make(map[TransactionID]map[any]bool),
	}
}

// acquire blocks (with bounded retry) until tid holds perm on key, or
// returns TransactionAbortedError once the retry budget is exhausted.
func (lm *lockManager) acquire(key any, tid TransactionID, perm RWPerm) error {
	for attempt := 0; ; attempt++ {
		lm.mu.Lock()
		granted := lm.tryGrant(key, tid, perm)
		lm.mu.Unlock()
		if granted {
			return nil
		}
		if attempt >= MaxLockRetries {
			return GoDBError{TransactionAbortedError, fmt.Sprintf("gave up waiting for lock on page after %d retries", MaxLockRetries)}
		}
		time.Sleep(time.Duration(LockRetrySleep) * time.Millisecond)
	}
}

// tryGrant attempts to grant perm on key to tid without blocking. Caller
// must hold lm.mu.
func (lm *lockManager) tryGrant(key any, tid TransactionID, perm RWPerm) bool {
	current := lm.holders[key]
	existing, alreadyHeld := current[tid]

	switch perm {
	case ReadPerm:
		if alreadyHeld {
			return true
		}
		for other, mode := range current {
			if other != tid && mode == WritePerm {
				return false
			}
		}
	case WritePerm:
		if alreadyHeld && existing == WritePerm {
			return true
		}
		for other := range current {
			if other != tid {
				return false
			}
		}
	}

	if current == nil {
		current = make(map[TransactionID]RWPerm)
		lm.holders[key] = current
	}
	current[tid] = perm

	if lm.held[tid] == nil {
		lm.held[tid] = make(map[any]bool)
	}
	lm.held[tid][key] = true
	return true
}

// holds reports whether tid currently holds any lock on key.
func (lm *lockManager) holds(key any, tid TransactionID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	_, ok := lm.holders[key][tid]
	return ok
}

// release drops every lock tid holds, all at once.
func (lm *lockManager) release(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for key := range lm.held[tid] {
		delete(lm.holders[key], tid)
		if len(lm.holders[key]) == 0 {
			delete(lm.holders, key)
		}
	}
	delete(lm.held, tid)
}
