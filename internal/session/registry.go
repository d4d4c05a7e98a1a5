package session

import (
	"sync"

	"github.com/sahilrm794/Context-QA/internal/model"
)

// Registry holds each live session's conversation history in process
// memory. It has no durability: a restart forgets every conversation,
// and only the on-disk index and metadata survive. All methods are safe
// for concurrent use; an entry is always observed fully present or
// fully absent, never partially written.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string][]model.Turn
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string][]model.Turn)}
}

// Init creates an empty history for the session, replacing any
// existing entry.
func (r *Registry) Init(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = []model.Turn{}
}

// Has reports whether the session is known to the registry.
func (r *Registry) Has(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sessionID]
	return ok
}

// History returns a copy of the session's turns in insertion order.
func (r *Registry) History(sessionID string) ([]model.Turn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	turns, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]model.Turn, len(turns))
	copy(out, turns)
	return out, true
}

// Append adds turns to the session's history. It reports false without
// mutating anything when the session is absent, which is how a chat
// request observes that the reaper reclaimed its session mid-flight.
func (r *Registry) Append(sessionID string, turns ...model.Turn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	r.sessions[sessionID] = append(existing, turns...)
	return true
}

// Remove drops the session's entry if present.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
