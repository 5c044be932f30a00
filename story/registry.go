package story

import (
	"sort"
	"sync"
	"time"
)

// Registry maps session ids to sessions. It is safe for concurrent use; each
// session guards its own state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     options
}

// NewRegistry returns an empty registry whose sessions are all built with
// opts.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     buildOptions(opts),
	}
}

// Create starts a new session under id.
func (r *Registry) Create(id string, n Notifier) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, ErrSessionExists
	}

	s := newSession(id, n, r.opts)
	r.sessions[id] = s

	return s, nil
}

func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Open returns the session for id, creating it with n if it does not exist
// yet. The second result reports whether it was created.
func (r *Registry) Open(id string, n Notifier) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, false
	}

	s := newSession(id, n, r.opts)
	r.sessions[id] = s

	return s, true
}

func (r *Registry) Evict(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)

	return true
}

// Idle returns, sorted, the ids of sessions with no activity since cutoff.
func (r *Registry) Idle(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}
