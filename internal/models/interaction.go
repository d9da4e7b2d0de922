// internal/models/interaction.go
package models

import (
	"slices"
	"sort"
)

// KeyEvent is one accepted key event. Interval is the time since the previous
// key event of the same collection cycle and is absent for the first one.
type KeyEvent struct {
	Timestamp float64 `json:"timestamp"`
	Key       string  `json:"key"`
	Code      string  `json:"code,omitempty"`
	Interval  Measure `json:"iki"`
}

// PointerKind distinguishes moves from clicks inside the pointer log.
type PointerKind string

const (
	PointerMove  PointerKind = "move"
	PointerClick PointerKind = "click"
)

// PointerEntry is one entry of the interleaved pointer log. Click entries never
// carry displacement, distance or velocity.
type PointerEntry struct {
	Kind      PointerKind `json:"type"`
	Timestamp float64     `json:"timestamp"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	DX        Measure     `json:"dx"`
	DY        Measure     `json:"dy"`
	Distance  Measure     `json:"distance"`
	Velocity  Measure     `json:"velocity"`
	Button    int         `json:"button,omitempty"`
}

// IsClick reports whether the entry is a click.
func (p PointerEntry) IsClick() bool {
	return p.Kind == PointerClick
}

// Snapshot is a read-only view of a session's logs at a given instant. Now is
// the clock reading taken when the snapshot was made.
type Snapshot struct {
	StartTime  Measure        `json:"startTime"`
	Now        float64        `json:"now"`
	Collecting bool           `json:"collecting"`
	Keys       []KeyEvent     `json:"keystrokes"`
	Pointer    []PointerEntry `json:"pointer"`
}

// Clone returns a snapshot whose logs do not share memory with s.
func (s Snapshot) Clone() Snapshot {
	s.Keys = slices.Clone(s.Keys)
	s.Pointer = slices.Clone(s.Pointer)
	return s
}

// SessionData is the composite read returned to collaborators.
type SessionData struct {
	Keys     []KeyEvent     `json:"keystrokes"`
	Pointer  []PointerEntry `json:"pointer"`
	Features FeatureVector  `json:"features"`
	Duration Measure        `json:"duration"`
}

// FeatureVector maps a metric name to its value. A key is present only when
// the data it needs existed.
type FeatureVector map[string]float64

// Has reports whether the named feature is present.
func (v FeatureVector) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Keys returns the feature names in sorted order.
func (v FeatureVector) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dense lays the vector out in the given order. present[i] is false when
// names[i] is missing; the matching value is then 0 and must not be read as a
// measurement.
func (v FeatureVector) Dense(names []string) (values []float64, present []bool) {
	values = make([]float64, len(names))
	present = make([]bool, len(names))
	for i, name := range names {
		values[i], present[i] = v[name]
	}
	return values, present
}

// FeatureMetric is a single extracted feature with the number of samples it
// was computed from.
type FeatureMetric struct {
	Key        string  `json:"key"`
	Value      float64 `json:"value"`
	SampleSize int     `json:"sampleSize,omitempty"`
}
