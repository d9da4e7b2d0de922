package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"biofeat-go/internal/models"
)

// ErrInvalidRateBasis is returned by ParseRateBasis for unknown names.
var ErrInvalidRateBasis = errors.New("invalid keystroke rate basis")

// RateBasis selects the end of the elapsed span used for keystroke_rate.
type RateBasis string

const (
	// RateBasisLastEvent ends the span at the last pointer log entry, or at
	// now when the pointer log is empty.
	RateBasisLastEvent RateBasis = "last_event"
	// RateBasisWallClock ends the span at now, like click_rate.
	RateBasisWallClock RateBasis = "wall_clock"
)

// ParseRateBasis parses a configured rate basis. Empty selects RateBasisLastEvent.
func ParseRateBasis(s string) (RateBasis, error) {
	switch RateBasis(strings.ToLower(strings.TrimSpace(s))) {
	case "", RateBasisLastEvent:
		return RateBasisLastEvent, nil
	case RateBasisWallClock:
		return RateBasisWallClock, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRateBasis, s)
}

// Options tune extraction.
type Options struct {
	Extended           bool
	KeystrokeRateBasis RateBasis
}

// Feature names.
const (
	FeatureIKIMean         = "iki_mean"
	FeatureIKIStd          = "iki_std"
	FeatureIKIMin          = "iki_min"
	FeatureIKIMax          = "iki_max"
	FeatureKeystrokeRate   = "keystroke_rate"
	FeatureTotalKeystrokes = "total_keystrokes"
	FeatureUniqueKeys      = "unique_keys"

	FeatureVelocityMean  = "mouse_velocity"
	FeatureVelocityMax   = "mouse_velocity_max"
	FeatureDistanceTotal = "mouse_distance"
	FeatureDistanceMean  = "mouse_distance_mean"
	FeatureClickRate     = "click_rate"
	FeatureAcceleration  = "mouse_acceleration"

	FeatureIKIMedian      = "iki_median"
	FeatureIKIQ25         = "iki_q25"
	FeatureIKIQ75         = "iki_q75"
	FeatureVelocityStd    = "mouse_velocity_std"
	FeatureVelocityMin    = "mouse_velocity_min"
	FeatureVelocityMedian = "mouse_velocity_median"
	FeatureDistanceStd    = "mouse_distance_std"
	FeatureDistanceMin    = "mouse_distance_min"
	FeatureDistanceMax    = "mouse_distance_max"
	FeatureDistanceMedian = "mouse_distance_median"
	FeatureTotalMovements = "total_movements"
	FeatureTotalClicks    = "total_clicks"
	FeatureMovementRate   = "movement_rate"
)

var baseFeatures = []string{
	FeatureIKIMean, FeatureIKIStd, FeatureIKIMin, FeatureIKIMax,
	FeatureKeystrokeRate, FeatureTotalKeystrokes, FeatureUniqueKeys,
	FeatureVelocityMean, FeatureVelocityMax, FeatureDistanceTotal, FeatureDistanceMean,
	FeatureClickRate, FeatureAcceleration,
}

var extendedFeatures = []string{
	FeatureIKIMedian, FeatureIKIQ25, FeatureIKIQ75,
	FeatureVelocityStd, FeatureVelocityMin, FeatureVelocityMedian,
	FeatureDistanceStd, FeatureDistanceMin, FeatureDistanceMax, FeatureDistanceMedian,
	FeatureTotalMovements, FeatureTotalClicks, FeatureMovementRate,
}

// FeatureNames returns the canonical feature order for model consumers.
func FeatureNames(extended bool) []string {
	names := append([]string{}, baseFeatures...)
	if extended {
		names = append(names, extendedFeatures...)
	}
	return names
}

// MetricResult is a single computed metric. Only results with Calculated set
// reach the feature vector.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

func calculated(value float64, n int) MetricResult {
	return MetricResult{Value: value, Calculated: true, SampleSize: n}
}

// Calculate runs every metric group over the snapshot.
func Calculate(snap models.Snapshot, opts Options) map[string]MetricResult {
	results := calculateKeyboardMetrics(snap, opts)
	for key, val := range calculatePointerMetrics(snap, opts) {
		results[key] = val
	}
	if acc := calculateAcceleration(snap.Pointer); acc.Calculated {
		results[FeatureAcceleration] = acc
	}
	return results
}

// Extract computes the feature vector for a snapshot. It only reads the
// snapshot and is safe to call while recording continues.
func Extract(snap models.Snapshot, opts Options) models.FeatureVector {
	features := make(models.FeatureVector)
	for key, result := range Calculate(snap, opts) {
		if result.Calculated {
			features[key] = result.Value
		}
	}
	return features
}

// Detailed returns the calculated metrics with their sample sizes, sorted by key.
func Detailed(snap models.Snapshot, opts Options) []models.FeatureMetric {
	var out []models.FeatureMetric
	for key, result := range Calculate(snap, opts) {
		if result.Calculated {
			out = append(out, models.FeatureMetric{
				Key:        key,
				Value:      result.Value,
				SampleSize: result.SampleSize,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}
