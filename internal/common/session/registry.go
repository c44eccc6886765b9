package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quote-workflow/internal/common/cache"
	apperrors "quote-workflow/internal/common/errors"
)

// Registry keeps the live sessions of one process, keyed by uuid.
type Registry struct {
	store cache.Store

	mu       sync.RWMutex
	sessions map[string]*State
	now      func() time.Time
}

func NewRegistry(store cache.Store) *Registry {
	return &Registry{
		store:    store,
		sessions: make(map[string]*State),
		now:      time.Now,
	}
}

// Create starts a new session with a random id.
func (r *Registry) Create() *State {
	st := newState(uuid.NewString(), r.store, r.now)

	r.mu.Lock()
	r.sessions[st.id] = st
	r.mu.Unlock()
	return st
}

// Get returns an existing session and marks it as in use.
func (r *Registry) Get(id string) (*State, error) {
	r.mu.RLock()
	st, ok := r.sessions[normalizeID(id)]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	st.touch()
	return st, nil
}

// GetOrCreate returns the session for id, creating it when unknown. The id
// must be a uuid; cached entries of a session outlive the process, so a
// known id resumes its drafts.
func (r *Registry) GetOrCreate(id string) (*State, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	key := parsed.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[key]; ok {
		st.touch()
		return st, nil
	}
	st := newState(key, r.store, r.now)
	r.sessions[key] = st
	return st, nil
}

// Remove forgets a session. Its cached entries are kept.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, normalizeID(id))
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were dropped. Any lookup through Get or GetOrCreate counts as activity.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, st := range r.sessions {
		if st.lastUpdate().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func normalizeID(id string) string {
	if parsed, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
		return parsed.String()
	}
	return id
}
