// Package replay drives recorded input events through recorders. It stands in
// for the host input layer: it owns the event source and forwards each event
// to the recorder that should receive it.
package replay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"biofeat-go/internal/models"
)

// ErrUnknownEvent is returned for events whose type no recorder method handles.
var ErrUnknownEvent = errors.New("unknown event type")

// Recorder is the ingestion surface of a session.
type Recorder interface {
	Start()
	Stop()
	Clear()
	RecordKey(timestamp float64, key, code string)
	RecordPointerMove(timestamp, x, y float64)
	RecordClick(timestamp, x, y float64, button int)
}

// Clock is a manually advanced clock in trace milliseconds. Pass Now as the
// session clock so start and extraction times follow the trace.
type Clock struct {
	mu sync.Mutex
	ms float64
}

// NewClock returns a clock reading ms.
func NewClock(ms float64) *Clock {
	return &Clock{ms: ms}
}

// Set moves the clock to ms.
func (c *Clock) Set(ms float64) {
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
}

// Millis returns the current reading.
func (c *Clock) Millis() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Now returns the current reading as a time.
func (c *Clock) Now() time.Time {
	return time.Unix(0, int64(math.Round(c.Millis()*float64(time.Millisecond))))
}

// Result summarizes a replay.
type Result struct {
	Applied  int
	Sessions []string
}

// Apply forwards one event to rec.
func Apply(rec Recorder, ev models.TraceEvent) error {
	switch ev.Type {
	case models.TraceStart:
		rec.Start()
	case models.TraceStop:
		rec.Stop()
	case models.TraceClear:
		rec.Clear()
	case models.TraceKey:
		rec.RecordKey(ev.T, ev.Key, ev.Code)
	case models.TraceMove:
		rec.RecordPointerMove(ev.T, ev.X, ev.Y)
	case models.TraceClick:
		rec.RecordClick(ev.T, ev.X, ev.Y, ev.Button)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

// player applies events in order, starting each session implicitly when its
// first event is not a start. The implicit start is at origin when set, else at
// that first event.
type player struct {
	resolve func(id string) Recorder
	clock   *Clock
	origin  models.Measure
	started map[string]bool
	order   []string
}

func newPlayer(resolve func(id string) Recorder, clock *Clock, origin models.Measure) *player {
	return &player{
		resolve: resolve,
		clock:   clock,
		origin:  origin,
		started: make(map[string]bool),
	}
}

func (p *player) play(ev models.TraceEvent) error {
	rec := p.resolve(ev.Session)
	if !p.started[ev.Session] {
		p.started[ev.Session] = true
		p.order = append(p.order, ev.Session)
		if ev.Type != models.TraceStart {
			origin := ev.T
			if o, ok := p.origin.Get(); ok {
				origin = o
			}
			p.tick(origin)
			rec.Start()
		}
	}
	p.tick(ev.T)
	return Apply(rec, ev)
}

func (p *player) tick(ms float64) {
	if p.clock != nil {
		p.clock.Set(ms)
	}
}

// Run replays a validated trace. resolve returns the recorder for a session
// id; clock, when non-nil, is advanced to each event time and finally to the
// trace end.
func Run(ctx context.Context, trace *models.Trace, resolve func(id string) Recorder, clock *Clock) (Result, error) {
	var res Result
	if len(trace.Events) == 0 {
		return res, models.ErrEmptyTrace
	}

	// Without an explicit trace start each session starts at its own first event.
	p := newPlayer(resolve, clock, trace.Start)

	for i, ev := range trace.Events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.play(ev); err != nil {
			return res, fmt.Errorf("event %d: %w", i, err)
		}
		res.Applied++
	}

	end := trace.Events[len(trace.Events)-1].T
	if e, ok := trace.End.Get(); ok {
		end = e
	}
	p.tick(end)

	res.Sessions = p.order
	return res, nil
}
