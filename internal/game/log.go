// internal/game/log.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
)

// EffectKind names a side effect produced by a transition.
type EffectKind string

const (
	EffectPickupAdded      EffectKind = "pickup_added"
	EffectPickupCountered  EffectKind = "pickup_countered"
	EffectPickupTaken      EffectKind = "pickup_taken"
	EffectSkip             EffectKind = "skip"
	EffectReverse          EffectKind = "reverse"
	EffectNominationNeeded EffectKind = "nomination_pending"
	EffectSuitNominated    EffectKind = "suit_nominated"
	EffectReshuffle        EffectKind = "reshuffle"
	EffectDeckExhausted    EffectKind = "deck_exhausted"
	EffectPlayerWon        EffectKind = "player_won"
	EffectGameFinished     EffectKind = "game_finished"
)

// Effect is one consequence of a play, draw or nomination. Magnitude is the count involved
// (cards added to a penalty, players skipped, cards short on an exhausted deck).
type Effect struct {
	Kind      EffectKind  `json:"kind"`
	Magnitude int         `json:"magnitude,omitempty"`
	Suit      card.Suit   `json:"suit,omitempty"`
	Players   []uuid.UUID `json:"players,omitempty"`
}

// ActionType is the verb recorded in the action log.
type ActionType string

const (
	ActionJoin       ActionType = "join"
	ActionStart      ActionType = "start"
	ActionPlay       ActionType = "play"
	ActionDraw       ActionType = "draw"
	ActionNominate   ActionType = "nominate"
	ActionDisconnect ActionType = "disconnect"
	ActionReconnect  ActionType = "reconnect"
)

// Action is one entry of the append-only game log handed to the historian when the game ends.
type Action struct {
	Index   int         `json:"index"`
	Turn    int         `json:"turn"`
	Actor   uuid.UUID   `json:"actor"`
	Action  ActionType  `json:"action"`
	Cards   []card.Card `json:"cards,omitempty"`
	Effects []Effect    `json:"effects,omitempty"`
	At      time.Time   `json:"at"`
}

// record appends to the log. Assumes g is a private clone.
func (g *Game) record(actor uuid.UUID, action ActionType, cards []card.Card, effects []Effect) {
	g.Log = append(g.Log, Action{
		Index:   len(g.Log),
		Turn:    g.Turn,
		Actor:   actor,
		Action:  action,
		Cards:   append([]card.Card(nil), cards...),
		Effects: append([]Effect(nil), effects...),
		At:      time.Now().UTC(),
	})
}
