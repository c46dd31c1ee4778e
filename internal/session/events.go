// internal/session/events.go
package session

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/game"
)

// EventType names what happened in a session.
type EventType string

const (
	EventStateChanged EventType = "state_changed"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventGameStarted  EventType = "game_started"
	EventGameFinished EventType = "game_finished"
	EventCardEffect   EventType = "card_effect"
	// EventSessionGone is the last event a subscriber receives before its channel closes.
	EventSessionGone EventType = "session_gone"
)

// Event is delivered to subscribers in the order the session produced it. Seq increases by one
// per event within a session, so a gap means the subscriber was too slow and events were dropped.
type Event struct {
	Type      EventType `json:"type"`
	SessionID uuid.UUID `json:"sessionId"`
	Seq       uint64    `json:"seq"`

	Player    uuid.UUID    `json:"player,omitempty"`
	State     *game.View   `json:"state,omitempty"`
	Effect    *game.Effect `json:"effect,omitempty"`
	Standings []uuid.UUID  `json:"standings,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// subscriberBuffer is how many undelivered events a subscriber may lag behind before
// further events are dropped for it.
const subscriberBuffer = 64

// Subscription is one observer of a session. State events carry the view for PlayerID;
// uuid.Nil subscribes as a spectator.
type Subscription struct {
	ID       uuid.UUID
	PlayerID uuid.UUID

	events  chan Event
	dropped int
}

func newSubscription(playerID uuid.UUID) *Subscription {
	return &Subscription{
		ID:       uuid.New(),
		PlayerID: playerID,
		events:   make(chan Event, subscriberBuffer),
	}
}

// Events is closed after EventSessionGone or when the subscription is canceled.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// deliver never blocks the session.
func (s *Subscription) deliver(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		s.dropped++
		return false
	}
}
