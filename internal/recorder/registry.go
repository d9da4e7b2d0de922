package recorder

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry holds one Guarded session per client id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Guarded
	opts     Options
	log      *zap.Logger
}

// NewRegistry creates an empty registry; new sessions are built from opts.
func NewRegistry(opts Options) *Registry {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Guarded),
		opts:     opts,
		log:      log,
	}
}

// Open returns the session for id, creating an idle one if needed.
func (r *Registry) Open(id string) (session *Guarded, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.sessions[id]; ok {
		return g, false
	}
	opts := r.opts
	opts.Logger = r.log.With(zap.String("session", id))
	g := NewGuarded(opts)
	r.sessions[id] = g
	r.log.Debug("Session opened", zap.String("session", id))
	return g, true
}

// Get returns the session for id if it exists.
func (r *Registry) Get(id string) (*Guarded, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.sessions[id]
	return g, ok
}

// Close stops and forgets the session for id.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	g, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	g.Stop()
	r.log.Debug("Session closed", zap.String("session", id))
	return true
}

// IDs returns the open session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
