package godb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntHistogramSelectivity(t *testing.T) {
	h := NewIntHistogram(10, 1, 10)
	for v := int64(1); v <= 10; v++ {
		h.AddValue(v)
	}

	require.InDelta(t, 0.1, h.EstimateSelectivity(OpEq, 5), 0.01)
	require.InDelta(t, 0.4, h.EstimateSelectivity(OpLt, 5), 0.01)
	require.InDelta(t, 0.5, h.EstimateSelectivity(OpGt, 5), 0.01)
}

func TestIntHistogramMonotonicity(t *testing.T) {
	h := NewIntHistogram(20, 0, 200)
	for v := int64(0); v <= 200; v += 3 {
		h.AddValue(v)
	}
	require.LessOrEqual(t, h.EstimateSelectivity(OpLt, 10), h.EstimateSelectivity(OpLt, 100))
	require.LessOrEqual(t, h.EstimateSelectivity(OpLt, 100), h.EstimateSelectivity(OpLt, 190))
}

func TestIntHistogramBucketTotals(t *testing.T) {
	h := NewIntHistogram(5, 0, 50)
	for v := int64(0); v <= 50; v++ {
		h.AddValue(v)
	}
	var total int64
	for _, c := range h.buckets {
		total += c
	}
	require.Equal(t, h.ntuples, total)
}

func TestStringHistogramOrderPreserving(t *testing.T) {
	require.Less(t, stringToInt("apple"), stringToInt("banana"))
	require.Less(t, stringToInt("a"), stringToInt("aa"))

	h := NewStringHistogram(10)
	for _, s := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		h.AddValue(s)
	}
	require.LessOrEqual(t, h.EstimateSelectivity(OpLt, "alpha"), h.EstimateSelectivity(OpLt, "zulu"))
}
