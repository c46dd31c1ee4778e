// internal/session/registry.go
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/game"
)

// Registry maps session ids to live sessions. It is the only structure shared across sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// RegisterIfAbsent stores s under its id unless the id is taken.
func (r *Registry) RegisterIfAbsent(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.id]; exists {
		return false
	}
	r.sessions[s.id] = s
	return true
}

// Get looks up a live session.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the entry for id only while it still points at s, so a stale owner cannot
// evict a newer session registered under the same id.
func (r *Registry) Remove(id uuid.UUID, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[id]; ok && cur == s {
		delete(r.sessions, id)
		return true
	}
	return false
}

// Len counts live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// All returns the live sessions in no particular order.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// PlayerSummary is a seat as shown in session listings.
type PlayerSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsAI      bool      `json:"isAi"`
	Connected bool      `json:"connected"`
}

// Summary is a lock-free, possibly slightly stale description of a session.
type Summary struct {
	ID         uuid.UUID       `json:"id"`
	GameID     uuid.UUID       `json:"gameId"`
	HostID     uuid.UUID       `json:"hostId"`
	Status     game.Status     `json:"status"`
	MaxPlayers int             `json:"maxPlayers"`
	Players    []PlayerSummary `json:"players"`
	Turn       int             `json:"turn"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// List summarizes every live session, oldest first.
func (r *Registry) List() []Summary {
	sessions := r.All()
	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
