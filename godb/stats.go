package godb

import (
	"fmt"

	boom "github.com/tylertreat/BoomFilters"
)

// TableStats holds the statistics the query planner's cost model needs for
// one table: per-field equi-width histograms for range selectivity, plus a
// CountMinSketch and a HyperLogLog per field for, respectively, a sharper
// per-value frequency estimate on equality predicates and an approximate
// distinct-value count independent of the histogram's bucketing.
type TableStats struct {
	tableName     string
	numTuples     int64
	ioCostPerPage int

	intHist    map[string]*IntHistogram
	stringHist map[string]*StringHistogram
	freq       map[string]*boom.CountMinSketch
	distinct   map[string]*boom.HyperLogLog
}

// ComputeTableStats builds a TableStats for f by scanning it twice under
// tid: once to find each int field's [min, max] so the histogram buckets
// can be sized, and once to populate the histograms, sketches, and
// HyperLogLogs.
func ComputeTableStats(tableName string, f DBFile, bp *BufferPool, tid TransactionID) (*TableStats, error) {
	desc := f.Descriptor()

	mins := make(map[string]int64)
	maxs := make(map[string]int64)
	seen := make(map[string]bool)

	scan := func(visit func(fname string, v DBValue)) error {
		iter, err := f.Iterator(tid)
		if err != nil {
			return err
		}
		for {
			t, err := iter()
			if err != nil {
				return err
			}
			if t == nil {
				return nil
			}
			for i, field := range desc.Fields {
				visit(field.Fname, t.Fields[i])
			}
		}
	}

	if err := scan(func(fname string, v DBValue) {
		iv, ok := v.(IntField)
		if !ok {
			return
		}
		if !seen[fname] || iv.Value < mins[fname] {
			mins[fname] = iv.Value
		}
		if !seen[fname] || iv.Value > maxs[fname] {
			maxs[fname] = iv.Value
		}
		seen[fname] = true
	}); err != nil {
		return nil, err
	}

	ts := &TableStats{
		tableName:     tableName,
		ioCostPerPage: DefaultIOCostPerPage,
		intHist:       make(map[string]*IntHistogram),
		stringHist:    make(map[string]*StringHistogram),
		freq:          make(map[string]*boom.CountMinSketch),
		distinct:      make(map[string]*boom.HyperLogLog),
	}
	for _, field := range desc.Fields {
		ts.freq[field.Fname] = boom.NewCountMinSketch(0.001, 0.99)
		hll, err := boom.NewHyperLogLog(256)
		if err != nil {
			return nil, GoDBError{IOError, fmt.Sprintf("failed to allocate HyperLogLog: %v", err)}
		}
		ts.distinct[field.Fname] = hll
		switch field.Ftype {
		case IntType:
			ts.intHist[field.Fname] = NewIntHistogram(DefaultHistogramBuckets, mins[field.Fname], maxs[field.Fname])
		case StringType:
			ts.stringHist[field.Fname] = NewStringHistogram(DefaultHistogramBuckets)
		}
	}

	if err := scan(func(fname string, v DBValue) {
		ts.numTuples++ // overcounts by len(fields); corrected below
		switch fv := v.(type) {
		case IntField:
			ts.intHist[fname].AddValue(fv.Value)
			ts.freq[fname].Add([]byte(fmt.Sprintf("%d", fv.Value)))
			ts.distinct[fname].Add([]byte(fmt.Sprintf("%d", fv.Value)))
		case StringField:
			ts.stringHist[fname].AddValue(fv.Value)
			ts.freq[fname].Add([]byte(fv.Value))
			ts.distinct[fname].Add([]byte(fv.Value))
		}
	}); err != nil {
		return nil, err
	}
	if len(desc.Fields) > 0 {
		ts.numTuples /= int64(len(desc.Fields))
	}

	return ts, nil
}

// EstimateSelectivity estimates the fraction of rows for which `field OP
// value` holds. For an equality predicate on a field with CountMinSketch
// coverage, the sketch's frequency estimate (which isn't limited by
// histogram bucket granularity) is used in preference to the histogram.
func (ts *TableStats) EstimateSelectivity(field string, op BoolOp, value DBValue) float64 {
	if op == OpEq {
		if sel, ok := ts.sketchSelectivity(field, value); ok {
			return sel
		}
	}
	switch v := value.(type) {
	case IntField:
		if h, ok := ts.intHist[field]; ok {
			return h.EstimateSelectivity(op, v.Value)
		}
	case StringField:
		if h, ok := ts.stringHist[field]; ok {
			return h.EstimateSelectivity(op, v.Value)
		}
	}
	return 1
}

func (ts *TableStats) sketchSelectivity(field string, value DBValue) (float64, bool) {
	cms, ok := ts.freq[field]
	if !ok || ts.numTuples == 0 {
		return 0, false
	}
	var key []byte
	switch v := value.(type) {
	case IntField:
		key = []byte(fmt.Sprintf("%d", v.Value))
	case StringField:
		key = []byte(v.Value)
	default:
		return 0, false
	}
	count := cms.Count(key)
	return float64(count) / float64(ts.numTuples), true
}

// EstimateDistinctCount returns the HyperLogLog's approximate count of
// distinct values seen in field.
func (ts *TableStats) EstimateDistinctCount(field string) uint64 {
	if hll, ok := ts.distinct[field]; ok {
		return hll.Count()
	}
	return 0
}

// EstimateTableCardinality scales the table's tuple count by selectivity.
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(ts.numTuples) * selectivity)
}

// EstimateScanCost returns the estimated I/O cost of a full sequential scan:
// one page read per page in the file, at ioCostPerPage units each.
func (ts *TableStats) EstimateScanCost(f DBFile) float64 {
	return float64(f.NumPages() * ts.ioCostPerPage)
}
