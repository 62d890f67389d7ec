package godb

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Configuration knobs. These mirror the "Configuration" section of the
// storage core's contract: page size, buffer pool capacity, IO cost per
// page, histogram bucket count, and lock retry parameters. They are plain
// package vars (rather than a singleton config struct) because every
// component that reads them is constructed once, at process startup, by
// main or by a test.
var (
	// PageSize is the fixed size, in bytes, of every heap page and of the
	// unit of buffer-pool caching and disk I/O.
	PageSize int = 4096

	// StringLength is the fixed width, in bytes, of a StringType field,
	// not including its 4-byte length prefix.
	StringLength int = 128

	// DefaultBufferPoolPages is the default buffer pool capacity.
	DefaultBufferPoolPages = 50

	// DefaultIOCostPerPage is the estimated cost, in arbitrary units, of
	// reading one page from disk. Used by TableStats.EstimateScanCost.
	DefaultIOCostPerPage = 1000

	// DefaultHistogramBuckets is the number of buckets B used by equi-width
	// histograms.
	DefaultHistogramBuckets = 100

	// MaxLockRetries bounds the number of bounded-wait retries
	// lockManager.acquire will attempt before reporting
	// TransactionAbortedError.
	MaxLockRetries = 3

	// LockRetrySleep is the bounded wait between lock acquisition retries.
	LockRetrySleep = 10 // milliseconds
)

// TransactionID identifies a single transaction. IDs are allocated by NewTID
// in monotonically increasing order and are never reused, so they are safe
// to use as map keys for the lifetime of the process.
type TransactionID int64

var tidCounter int64

// NewTID allocates a fresh, globally unique, monotonically increasing
// transaction identifier.
func NewTID() TransactionID {
	return TransactionID(atomic.AddInt64(&tidCounter, 1))
}

// PageID identifies a single page within a single table. Equality is by
// value, so PageID is safe to use directly as a buffer-pool cache key and a
// lock-table key; each HeapFile allocates its own tableID at open time
// (see nextTableID in heap_file.go), so no separate hash or file-path mix
// is needed to disambiguate pages across tables.
type PageID struct {
	TableID int
	PageNo  int
}

// RecordID is the stable address of a tuple: the page it lives on and its
// slot index within that page's slot array. A nil *RecordID means the
// tuple has not been placed on a page (e.g. a tuple freshly built by a
// projection or aggregate).
type RecordID struct {
	PID  PageID
	Slot int
}

// log is the package-wide structured logger. Every component threads
// contextual fields (table, tid, page) through log.WithFields rather than
// formatting them into the message. Its level can be changed from outside
// the package with SetLogLevel; its text formatter is fixed.
var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetLogLevel adjusts the verbosity of the package logger (WarnLevel by
// default). Exposed so code outside the package can change it without
// reaching into package internals.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}
