package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minDelta is the floor applied to every time span before it is used as a
// divisor, in clock units (ms).
const minDelta = 1.0

func floorDelta(dt float64) float64 {
	return math.Max(dt, minDelta)
}

// perMillisecond divides a count by a millisecond span.
func perMillisecond(count int, spanMs float64) float64 {
	return float64(count) / floorDelta(spanMs)
}

// perSecond converts a count over a millisecond span into events per second.
func perSecond(count int, spanMs float64) float64 {
	return float64(count) / floorDelta(spanMs) * 1000
}

type summary struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
	Sum  float64
	N    int
}

// summarize computes population statistics. values must be non-empty.
func summarize(values []float64) summary {
	mean, variance := stat.PopMeanVariance(values, nil)
	return summary{
		Mean: mean,
		// rounding can push the variance of near-constant data just below zero
		Std:  math.Sqrt(math.Max(variance, 0)),
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Sum:  floats.Sum(values),
		N:    len(values),
	}
}

// percentile returns the p-th percentile (0-100) using linear interpolation
// between closest ranks. values must be non-empty.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
