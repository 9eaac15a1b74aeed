package app

import (
	"sync"

	"github.com/dkeye/Trivia/internal/domain"
	"github.com/rs/zerolog/log"
)

// Entry owns one live session. Every read or write of the session happens
// between Lock and Unlock. The registry never takes an entry lock, so an
// entry holder may call into the registry.
type Entry struct {
	mu       sync.Mutex
	session  *domain.Session
	gen      uint64
	closed   bool
	starting bool
}

func (e *Entry) Lock()   { e.mu.Lock() }
func (e *Entry) Unlock() { e.mu.Unlock() }

// Session must be called with the lock held.
func (e *Entry) Session() *domain.Session { return e.session }

// Closed reports whether the entry was removed. Must be called with the lock held.
func (e *Entry) Closed() bool { return e.closed }

// MarkClosed must be called with the lock held.
func (e *Entry) MarkClosed() { e.closed = true }

// BeginStart marks a question fetch in flight. Lock must be held.
func (e *Entry) BeginStart() bool {
	if e.starting {
		return false
	}
	e.starting = true
	return true
}

// EndStart must be called with the lock held.
func (e *Entry) EndStart() { e.starting = false }

// Starting must be called with the lock held.
func (e *Entry) Starting() bool { return e.starting }

// Generation identifies the currently armed round timer.
func (e *Entry) Generation() uint64 { return e.gen }

// NextGeneration invalidates every timer armed before it. Lock must be held.
func (e *Entry) NextGeneration() uint64 {
	e.gen++
	return e.gen
}

type Registry struct {
	mu      sync.RWMutex
	entries map[domain.SessionID]*Entry
	ids     *IDGenerator
}

func NewRegistry(ids *IDGenerator) *Registry {
	return &Registry{
		entries: make(map[domain.SessionID]*Entry),
		ids:     ids,
	}
}

// Create assigns a fresh id to s and registers it atomically.
func (r *Registry) Create(s *domain.Session) (domain.SessionID, *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.ids.Generate(func(candidate domain.SessionID) bool {
		_, taken := r.entries[candidate]
		return taken
	})
	s.ID = id
	e := &Entry{session: s}
	r.entries[id] = e
	log.Info().Str("module", "app.registry").Str("session", string(id)).Int("live", len(r.entries)).Msg("session registered")
	return id, e
}

func (r *Registry) Get(id domain.SessionID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

func (r *Registry) Remove(id domain.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	log.Info().Str("module", "app.registry").Str("session", string(id)).Int("live", len(r.entries)).Msg("session removed")
	return true
}

// Entries returns a point-in-time copy; entries may close right after.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
