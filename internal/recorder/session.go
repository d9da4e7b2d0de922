// Package recorder ingests keyboard and pointer events into per-session logs
// and serves feature extraction over them.
//
// A Session has no internal locking: it expects a single sequential caller.
// Use Guarded when several goroutines feed the same session.
package recorder

import (
	"math"
	"time"

	"biofeat-go/internal/metrics"
	"biofeat-go/internal/models"

	"go.uber.org/zap"
)

// Options configure a Session.
type Options struct {
	// Clock supplies the current time for start and extraction. Defaults to time.Now.
	Clock      func() time.Time
	Logger     *zap.Logger
	Extraction metrics.Options
}

// position is the reference point for the next move delta.
type position struct {
	x, y float64
	t    float64
}

// Session owns the key and pointer logs of one monitored interaction window.
type Session struct {
	clock      func() time.Time
	log        *zap.Logger
	extraction metrics.Options

	collecting bool
	startTime  models.Measure
	keys       []models.KeyEvent
	pointer    []models.PointerEntry
	lastKey    models.Measure
	lastPos    *position
	dropped    int
}

// New creates an idle session.
func New(opts Options) *Session {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		clock:      clock,
		log:        log,
		extraction: opts.Extraction,
	}
}

// Millis converts a wall-clock time to the millisecond timestamps used by the logs.
func Millis(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Millisecond)
}

func (s *Session) now() float64 {
	return Millis(s.clock())
}

// Start discards all recorded data, resets the clock reference and begins
// collecting. Calling it again re-initializes the session.
func (s *Session) Start() {
	s.reset()
	s.startTime = models.Some(s.now())
	s.collecting = true
	s.log.Debug("Collection started", zap.Float64("start", s.startTime.Value))
}

// Stop disables ingestion. Recorded data is kept; events arriving afterwards
// are dropped.
func (s *Session) Stop() {
	s.collecting = false
	s.log.Debug("Collection stopped",
		zap.Int("keystrokes", len(s.keys)),
		zap.Int("pointer_entries", len(s.pointer)),
	)
}

// Clear discards recorded data and timestamps without changing whether the
// session is collecting.
func (s *Session) Clear() {
	s.reset()
	s.log.Debug("Session cleared", zap.Bool("collecting", s.collecting))
}

func (s *Session) reset() {
	if s.dropped > 0 {
		s.log.Debug("Dropped events received while idle", zap.Int("dropped", s.dropped))
	}
	s.keys = nil
	s.pointer = nil
	s.startTime = models.None()
	s.lastKey = models.None()
	s.lastPos = nil
	s.dropped = 0
}

// Collecting reports whether events are currently accepted.
func (s *Session) Collecting() bool {
	return s.collecting
}

// Dropped returns how many events were ignored while idle since the last
// start or clear.
func (s *Session) Dropped() int {
	return s.dropped
}

// SetExtraction replaces the options used by Extract and Data.
func (s *Session) SetExtraction(opts metrics.Options) {
	s.extraction = opts
}

// RecordKey appends a key event. The inter-key interval is measured from the
// previous key event of this collection cycle.
func (s *Session) RecordKey(timestamp float64, key, code string) {
	if !s.collecting {
		s.dropped++
		return
	}

	interval := models.None()
	if last, ok := s.lastKey.Get(); ok {
		interval = models.Some(timestamp - last)
	}
	s.lastKey = models.Some(timestamp)

	s.keys = append(s.keys, models.KeyEvent{
		Timestamp: timestamp,
		Key:       key,
		Code:      code,
		Interval:  interval,
	})
}

// RecordPointerMove tracks a pointer move. The first move after start or clear
// only sets the reference position; later moves append a sample with
// displacement and velocity relative to it.
func (s *Session) RecordPointerMove(timestamp, x, y float64) {
	if !s.collecting {
		s.dropped++
		return
	}

	if prev := s.lastPos; prev != nil {
		dx := x - prev.x
		dy := y - prev.y
		distance := math.Hypot(dx, dy)
		dt := timestamp - s.deltaOrigin(prev)
		velocity := distance / math.Max(dt, 1)

		s.pointer = append(s.pointer, models.PointerEntry{
			Kind:      models.PointerMove,
			Timestamp: timestamp,
			X:         x,
			Y:         y,
			DX:        models.Some(dx),
			DY:        models.Some(dy),
			Distance:  models.Some(distance),
			Velocity:  models.Some(velocity),
		})
	}

	s.lastPos = &position{x: x, y: y, t: timestamp}
}

// deltaOrigin is the timestamp a new move sample is timed against: the last
// pointer log entry, else the session start, else the reference move.
func (s *Session) deltaOrigin(ref *position) float64 {
	if n := len(s.pointer); n > 0 {
		return s.pointer[n-1].Timestamp
	}
	if start, ok := s.startTime.Get(); ok {
		return start
	}
	return ref.t
}

// RecordClick appends a click. Clicks do not move the reference position used
// for move deltas.
func (s *Session) RecordClick(timestamp, x, y float64, button int) {
	if !s.collecting {
		s.dropped++
		return
	}
	s.pointer = append(s.pointer, models.PointerEntry{
		Kind:      models.PointerClick,
		Timestamp: timestamp,
		X:         x,
		Y:         y,
		Button:    button,
	})
}

// Snapshot copies the current logs together with a clock reading.
func (s *Session) Snapshot() models.Snapshot {
	return models.Snapshot{
		StartTime:  s.startTime,
		Now:        s.now(),
		Collecting: s.collecting,
		Keys:       s.keys,
		Pointer:    s.pointer,
	}.Clone()
}

// Extract computes the feature vector over the logs recorded so far.
func (s *Session) Extract() models.FeatureVector {
	return metrics.Extract(s.Snapshot(), s.extraction)
}

// Data returns the logs, the feature vector and the time elapsed since start.
func (s *Session) Data() models.SessionData {
	return dataFor(s.Snapshot(), s.extraction)
}

func dataFor(snap models.Snapshot, opts metrics.Options) models.SessionData {
	duration := models.None()
	if start, ok := snap.StartTime.Get(); ok {
		duration = models.Some(snap.Now - start)
	}
	return models.SessionData{
		Keys:     snap.Keys,
		Pointer:  snap.Pointer,
		Features: metrics.Extract(snap, opts),
		Duration: duration,
	}
}
