package metrics

import (
	"math"

	"biofeat-go/internal/models"
)

// calculatePointerMetrics computes velocity, distance and click cadence over
// the pointer log.
func calculatePointerMetrics(snap models.Snapshot, opts Options) map[string]MetricResult {
	metrics := make(map[string]MetricResult)
	entries := snap.Pointer
	if len(entries) == 0 {
		return metrics
	}

	var velocities, distances []float64
	var moves, clicks int
	var firstMove, lastMove float64

	for _, e := range entries {
		if e.IsClick() {
			clicks++
			continue
		}
		if moves == 0 {
			firstMove = e.Timestamp
		}
		lastMove = e.Timestamp
		moves++

		if v, ok := e.Velocity.Get(); ok {
			velocities = append(velocities, v)
		}
		if d, ok := e.Distance.Get(); ok {
			distances = append(distances, d)
		}
	}

	if len(velocities) > 0 {
		s := summarize(velocities)
		metrics[FeatureVelocityMean] = calculated(s.Mean, s.N)
		metrics[FeatureVelocityMax] = calculated(s.Max, s.N)
		if opts.Extended {
			metrics[FeatureVelocityStd] = calculated(s.Std, s.N)
			metrics[FeatureVelocityMin] = calculated(s.Min, s.N)
			metrics[FeatureVelocityMedian] = calculated(percentile(velocities, 50), s.N)
		}
	}

	if len(distances) > 0 {
		s := summarize(distances)
		metrics[FeatureDistanceTotal] = calculated(s.Sum, s.N)
		metrics[FeatureDistanceMean] = calculated(s.Sum/float64(s.N), s.N)
		if opts.Extended {
			metrics[FeatureDistanceStd] = calculated(s.Std, s.N)
			metrics[FeatureDistanceMin] = calculated(s.Min, s.N)
			metrics[FeatureDistanceMax] = calculated(s.Max, s.N)
			metrics[FeatureDistanceMedian] = calculated(percentile(distances, 50), s.N)
		}
	}

	// click_rate always measures against now, even when keystroke_rate does not
	if start, ok := snap.StartTime.Get(); ok {
		metrics[FeatureClickRate] = calculated(perSecond(clicks, snap.Now-start), clicks)
	}

	if opts.Extended {
		metrics[FeatureTotalMovements] = calculated(float64(moves), moves)
		metrics[FeatureTotalClicks] = calculated(float64(clicks), clicks)
		if moves >= 2 {
			metrics[FeatureMovementRate] = calculated(perMillisecond(moves, lastMove-firstMove), moves)
		}
	}

	return metrics
}

// calculateAcceleration averages |Δvelocity| / Δt over adjacent pointer log
// entries that both carry a velocity, starting at the third entry.
func calculateAcceleration(entries []models.PointerEntry) MetricResult {
	if len(entries) <= 2 {
		return MetricResult{}
	}

	accelerations := make([]float64, 0, len(entries)-2)
	for i := 2; i < len(entries); i++ {
		prev, curr := entries[i-1], entries[i]
		pv, okPrev := prev.Velocity.Get()
		cv, okCurr := curr.Velocity.Get()
		if !okPrev || !okCurr {
			continue
		}
		dt := floorDelta(curr.Timestamp - prev.Timestamp)
		accelerations = append(accelerations, math.Abs(cv-pv)/dt)
	}

	if len(accelerations) == 0 {
		return MetricResult{}
	}
	return calculated(summarize(accelerations).Mean, len(accelerations))
}
