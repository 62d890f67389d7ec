package godb

import "math"

// IntHistogram is a fixed-width ("equi-width") histogram over an int64
// domain: [min, max] is divided into B equal-width buckets, and
// EstimateSelectivity answers "what fraction of the values added so far
// satisfy `field OP v`" by assuming values are spread uniformly within
// whatever bucket they land in.
type IntHistogram struct {
	buckets  []int64
	min, max int64
	width    float64
	ntuples  int64
}

// NewIntHistogram creates a histogram with the given bucket count over
// [min, max]. max must be >= min.
func NewIntHistogram(buckets int, min, max int64) *IntHistogram {
	if buckets < 1 {
		buckets = 1
	}
	if max < min {
		max = min
	}
	width := float64(max-min+1) / float64(buckets)
	if width < 1 {
		width = 1
	}
	return &IntHistogram{
		buckets: make([]int64, buckets),
		min:     min,
		max:     max,
		width:   width,
	}
}

func (h *IntHistogram) bucketOf(v int64) int {
	if v <= h.min {
		return 0
	}
	if v >= h.max {
		return len(h.buckets) - 1
	}
	idx := int(float64(v-h.min) / h.width)
	if idx >= len(h.buckets) {
		idx = len(h.buckets) - 1
	}
	return idx
}

// AddValue records an occurrence of v.
func (h *IntHistogram) AddValue(v int64) {
	h.buckets[h.bucketOf(v)]++
	h.ntuples++
}

// EstimateSelectivity estimates the fraction of recorded values for which
// `x OP v` holds.
func (h *IntHistogram) EstimateSelectivity(op BoolOp, v int64) float64 {
	if h.ntuples == 0 {
		return 0
	}
	switch op {
	case OpEq:
		return h.bucketFraction(v) / h.width / float64(h.ntuples)
	case OpNeq:
		return 1 - h.EstimateSelectivity(OpEq, v)
	case OpGt:
		return h.rangeAbove(v)
	case OpGe:
		return h.rangeAbove(v - 1)
	case OpLt:
		return 1 - h.rangeAbove(v-1)
	case OpLe:
		return 1 - h.rangeAbove(v)
	}
	return 0
}

// bucketFraction returns the height of the bucket v falls in, or 0 if v is
// outside [min, max]. EstimateSelectivity divides it by the bucket width
// (how many distinct values the bucket's count is spread across) to
// estimate the count of values equal to v, assuming uniform distribution
// within the bucket.
func (h *IntHistogram) bucketFraction(v int64) float64 {
	if v < h.min || v > h.max {
		return 0
	}
	return float64(h.buckets[h.bucketOf(v)])
}

// rangeAbove estimates the fraction of values strictly greater than v.
func (h *IntHistogram) rangeAbove(v int64) float64 {
	if v >= h.max {
		return 0
	}
	if v < h.min {
		return 1
	}
	b := h.bucketOf(v)
	bucketLo := h.min + int64(float64(b)*h.width)
	bucketHi := bucketLo + int64(h.width)
	frac := 0.0
	if bucketHi > bucketLo {
		frac = float64(bucketHi-v-1) / float64(bucketHi-bucketLo)
	}
	if frac < 0 {
		frac = 0
	}
	count := float64(h.buckets[b]) * frac
	for i := b + 1; i < len(h.buckets); i++ {
		count += float64(h.buckets[i])
	}
	return count / float64(h.ntuples)
}

// AvgSelectivity returns the selectivity of a typical equality predicate,
// used by the planner when no more specific estimate (e.g. a CountMinSketch
// lookup) is available.
func (h *IntHistogram) AvgSelectivity() float64 {
	if h.ntuples == 0 {
		return 1
	}
	return 1.0 / math.Max(1, float64(len(h.buckets)))
}

// StringHistogram estimates selectivity over strings by mapping each string
// to an integer with stringToInt (for strings whose first byte is below
// 0x80, s1 < s2 implies mapping(s1) <= mapping(s2)) and delegating to an
// IntHistogram over the mapped domain.
type StringHistogram struct {
	inner *IntHistogram
}

// stringToInt maps a string to an integer using its first 8 bytes as a
// big-endian integer (zero-padded if shorter). This is the classic "monotone
// string hash" used to put strings into an equi-width histogram without
// modeling the full domain of strings. Order is preserved only loosely:
// strings that share their first 8 bytes map to the same value, and a first
// byte of 0x80 or above sets the sign bit, so such strings map to negative
// values below every string whose first byte is under 0x80.
func stringToInt(s string) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v <<= 8
		if i < len(s) {
			v |= int64(s[i])
		}
	}
	return v
}

// NewStringHistogram creates a histogram with the given bucket count. The
// domain is [0, math.MaxInt64], the range stringToInt produces for strings
// whose first byte is below 0x80; negative codes fall into the first bucket.
func NewStringHistogram(buckets int) *StringHistogram {
	return &StringHistogram{inner: NewIntHistogram(buckets, 0, math.MaxInt64)}
}

func (h *StringHistogram) AddValue(s string) {
	h.inner.AddValue(stringToInt(s))
}

func (h *StringHistogram) EstimateSelectivity(op BoolOp, s string) float64 {
	return h.inner.EstimateSelectivity(op, stringToInt(s))
}

func (h *StringHistogram) AvgSelectivity() float64 {
	return h.inner.AvgSelectivity()
}
