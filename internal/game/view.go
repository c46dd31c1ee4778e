// internal/game/view.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
)

// PlayerView is one seat as seen by a particular recipient. Hand is only filled for the
// recipient's own seat.
type PlayerView struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	HandSize      int         `json:"handSize"`
	Hand          []card.Card `json:"hand,omitempty"`
	IsAI          bool        `json:"isAi"`
	Connected     bool        `json:"connected"`
	IsCurrentTurn bool        `json:"isCurrentTurn"`
	HasWon        bool        `json:"hasWon"`
}

// View is the snapshot broadcast to subscribers. Opponent hands are reduced to their size.
type View struct {
	GameID          uuid.UUID    `json:"gameId"`
	Status          Status       `json:"status"`
	Turn            int          `json:"turn"`
	HostID          uuid.UUID    `json:"hostId"`
	CurrentPlayerID uuid.UUID    `json:"currentPlayerId,omitempty"`
	Direction       Direction    `json:"direction"`
	CurrentCard     *card.Card   `json:"currentCard,omitempty"`
	DrawPileSize    int          `json:"drawPileSize"`
	DiscardSize     int          `json:"discardSize"`
	Pickups         Pickups      `json:"pendingPickups"`
	Skips           int          `json:"pendingSkips"`
	Nomination      Nomination   `json:"nomination"`
	Winners         []uuid.UUID  `json:"winners"`
	Players         []PlayerView `json:"players"`
}

// ViewFor builds the snapshot for forPlayer. uuid.Nil yields a spectator view with no hands.
func (g *Game) ViewFor(forPlayer uuid.UUID) View {
	v := View{
		GameID:     g.ID,
		Status:     g.Status,
		Turn:       g.Turn,
		HostID:     g.HostID,
		Direction:  g.Direction,
		Pickups:    g.Pickups,
		Skips:      g.Skips,
		Nomination: g.Nomination,
		Winners:    append([]uuid.UUID{}, g.Winners...),
		Players:    make([]PlayerView, 0, len(g.Players)),
	}
	if cur := g.CurrentPlayer(); cur != nil && g.Status == StatusPlaying {
		v.CurrentPlayerID = cur.ID
	}
	if top, ok := g.CurrentCard(); ok {
		v.CurrentCard = &top
	}
	if g.Deck != nil {
		v.DrawPileSize = len(g.Deck.Draw)
		v.DiscardSize = len(g.Deck.Discard)
	}
	for _, p := range g.Players {
		pv := PlayerView{
			ID:            p.ID,
			Name:          p.Name,
			HandSize:      len(p.Hand),
			IsAI:          p.IsAI,
			Connected:     p.Connected,
			IsCurrentTurn: p.ID == v.CurrentPlayerID,
			HasWon:        g.HasWon(p.ID),
		}
		if forPlayer != uuid.Nil && p.ID == forPlayer {
			pv.Hand = append([]card.Card{}, p.Hand...)
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
