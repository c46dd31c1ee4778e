// internal/session/manager.go
package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/ai"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/jason-s-yu/rachel/internal/game"
)

// Manager addresses sessions by id. Commands for a missing or stopped session fail with
// game.ErrSessionUnavailable.
type Manager struct {
	deps     Deps
	defaults Config
}

// NewManager builds a manager. defaults fills in zero fields of every Config passed to Create.
func NewManager(deps Deps, defaults Config) *Manager {
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	return &Manager{deps: deps, defaults: defaults}
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *Registry { return m.deps.Registry }

// Create starts a new waiting session and returns its id.
func (m *Manager) Create(cfg Config) (uuid.UUID, error) {
	s, err := New(m.withDefaults(cfg), m.deps)
	if err != nil {
		return uuid.Nil, err
	}
	return s.ID(), nil
}

func (m *Manager) withDefaults(cfg Config) Config {
	d := m.defaults
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = d.MaxPlayers
	}
	if cfg.HandSize == 0 {
		cfg.HandSize = d.HandSize
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = d.IdleTimeout
	}
	if cfg.DisconnectGrace == 0 {
		cfg.DisconnectGrace = d.DisconnectGrace
	}
	if cfg.ThinkScale == 0 {
		cfg.ThinkScale = d.ThinkScale
	}
	return cfg
}

// Session looks up a live session.
func (m *Manager) Session(id uuid.UUID) (*Session, error) {
	s, ok := m.deps.Registry.Get(id)
	if !ok {
		return nil, game.ErrSessionUnavailable.WithReason("no session %s", id)
	}
	return s, nil
}

func (m *Manager) Join(ctx context.Context, id, playerID uuid.UUID, name string) (game.View, error) {
	s, err := m.Session(id)
	if err != nil {
		return game.View{}, err
	}
	return s.Join(ctx, playerID, name)
}

func (m *Manager) AddAI(ctx context.Context, id uuid.UUID, personality ai.Type) (uuid.UUID, error) {
	s, err := m.Session(id)
	if err != nil {
		return uuid.Nil, err
	}
	return s.AddAI(ctx, personality)
}

func (m *Manager) Start(ctx context.Context, id, requester uuid.UUID) (game.View, error) {
	s, err := m.Session(id)
	if err != nil {
		return game.View{}, err
	}
	return s.Start(ctx, requester)
}

func (m *Manager) Play(ctx context.Context, id, playerID uuid.UUID, indices []int) (game.View, error) {
	s, err := m.Session(id)
	if err != nil {
		return game.View{}, err
	}
	return s.Play(ctx, playerID, indices)
}

func (m *Manager) Draw(ctx context.Context, id, playerID uuid.UUID) (game.View, error) {
	s, err := m.Session(id)
	if err != nil {
		return game.View{}, err
	}
	return s.Draw(ctx, playerID)
}

func (m *Manager) Nominate(ctx context.Context, id, playerID uuid.UUID, suit card.Suit) (game.View, error) {
	s, err := m.Session(id)
	if err != nil {
		return game.View{}, err
	}
	return s.Nominate(ctx, playerID, suit)
}

func (m *Manager) Disconnect(ctx context.Context, id, playerID uuid.UUID) error {
	s, err := m.Session(id)
	if err != nil {
		return err
	}
	return s.Disconnect(ctx, playerID)
}

func (m *Manager) Reconnect(ctx context.Context, id, playerID uuid.UUID) (game.View, error) {
	s, err := m.Session(id)
	if err != nil {
		return game.View{}, err
	}
	return s.Reconnect(ctx, playerID)
}

func (m *Manager) Subscribe(ctx context.Context, id, playerID uuid.UUID) (*Subscription, error) {
	s, err := m.Session(id)
	if err != nil {
		return nil, err
	}
	return s.Subscribe(ctx, playerID)
}

// Stop terminates a session. Stopping an unknown session is not an error.
func (m *Manager) Stop(id uuid.UUID) {
	if s, ok := m.deps.Registry.Get(id); ok {
		s.Stop()
	}
}

// StopAll stops every live session, for shutdown.
func (m *Manager) StopAll() {
	for _, s := range m.deps.Registry.All() {
		s.Stop()
	}
}

// List summarizes every live session.
func (m *Manager) List() []Summary {
	return m.deps.Registry.List()
}
