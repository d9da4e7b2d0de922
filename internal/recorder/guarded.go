package recorder

import (
	"sync"

	"biofeat-go/internal/metrics"
	"biofeat-go/internal/models"
)

// Guarded serializes access to a Session so several producers may feed it.
// Reads copy the logs under the lock and extract outside it.
type Guarded struct {
	mu      sync.Mutex
	session *Session
}

// NewGuarded wraps a new Session built from opts.
func NewGuarded(opts Options) *Guarded {
	return &Guarded{session: New(opts)}
}

func (g *Guarded) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.Start()
}

func (g *Guarded) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.Stop()
}

func (g *Guarded) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.Clear()
}

func (g *Guarded) Collecting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Collecting()
}

func (g *Guarded) RecordKey(timestamp float64, key, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.RecordKey(timestamp, key, code)
}

func (g *Guarded) RecordPointerMove(timestamp, x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.RecordPointerMove(timestamp, x, y)
}

func (g *Guarded) RecordClick(timestamp, x, y float64, button int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.RecordClick(timestamp, x, y, button)
}

func (g *Guarded) SetExtraction(opts metrics.Options) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.SetExtraction(opts)
}

// Snapshot returns a consistent copy of the logs.
func (g *Guarded) Snapshot() models.Snapshot {
	snap, _ := g.snapshot()
	return snap
}

func (g *Guarded) snapshot() (models.Snapshot, metrics.Options) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Snapshot(), g.session.extraction
}

// Extract computes features over a consistent copy of the logs.
func (g *Guarded) Extract() models.FeatureVector {
	snap, opts := g.snapshot()
	return metrics.Extract(snap, opts)
}

// Data is the composite read of Session.Data over a consistent copy.
func (g *Guarded) Data() models.SessionData {
	snap, opts := g.snapshot()
	return dataFor(snap, opts)
}
