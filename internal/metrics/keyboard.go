package metrics

import (
	"biofeat-go/internal/models"
)

// calculateKeyboardMetrics computes the keystroke timing group. Interval
// statistics and keystroke_rate need at least one defined inter-key interval;
// the counts need at least one key event.
func calculateKeyboardMetrics(snap models.Snapshot, opts Options) map[string]MetricResult {
	metrics := make(map[string]MetricResult)
	keys := snap.Keys
	if len(keys) == 0 {
		return metrics
	}

	intervals := keyIntervals(keys)
	if len(intervals) > 0 {
		s := summarize(intervals)
		metrics[FeatureIKIMean] = calculated(s.Mean, s.N)
		metrics[FeatureIKIStd] = calculated(s.Std, s.N)
		metrics[FeatureIKIMin] = calculated(s.Min, s.N)
		metrics[FeatureIKIMax] = calculated(s.Max, s.N)

		if rate, ok := keystrokeRate(snap, opts.KeystrokeRateBasis); ok {
			metrics[FeatureKeystrokeRate] = calculated(rate, len(keys))
		}

		if opts.Extended {
			metrics[FeatureIKIMedian] = calculated(percentile(intervals, 50), s.N)
			metrics[FeatureIKIQ25] = calculated(percentile(intervals, 25), s.N)
			metrics[FeatureIKIQ75] = calculated(percentile(intervals, 75), s.N)
		}
	}

	metrics[FeatureTotalKeystrokes] = calculated(float64(len(keys)), len(keys))

	labels := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		labels[k.Key] = struct{}{}
	}
	metrics[FeatureUniqueKeys] = calculated(float64(len(labels)), len(keys))

	return metrics
}

func keyIntervals(keys []models.KeyEvent) []float64 {
	intervals := make([]float64, 0, len(keys))
	for _, k := range keys {
		if iki, ok := k.Interval.Get(); ok {
			intervals = append(intervals, iki)
		}
	}
	return intervals
}

// keystrokeRate returns key events per second since the session start. With
// RateBasisLastEvent the span ends at the last pointer log entry when there
// is one.
func keystrokeRate(snap models.Snapshot, basis RateBasis) (float64, bool) {
	start, ok := snap.StartTime.Get()
	if !ok {
		return 0, false
	}
	end := snap.Now
	if basis != RateBasisWallClock && len(snap.Pointer) > 0 {
		end = snap.Pointer[len(snap.Pointer)-1].Timestamp
	}
	return perSecond(len(snap.Keys), end-start), true
}
