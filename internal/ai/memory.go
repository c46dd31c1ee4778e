// internal/ai/memory.go
package ai

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/jason-s-yu/rachel/internal/game"
)

// maxObservations bounds the opponent action log kept per AI seat.
const maxObservations = 256

// Observation is one action seen at the table.
type Observation struct {
	Player uuid.UUID       `json:"player"`
	Action game.ActionType `json:"action"`
	Cards  []card.Card     `json:"cards,omitempty"`
	Turn   int             `json:"turn"`
}

// SpecialPlay records a special card played by anyone.
type SpecialPlay struct {
	Player uuid.UUID `json:"player"`
	Rank   card.Rank `json:"rank"`
	Count  int       `json:"count"`
}

// Memory is what one AI seat remembers about the game. It only informs scoring.
type Memory struct {
	Actions    []Observation      `json:"actions"`
	SuitPlayed map[card.Suit]int  `json:"suitPlayed"`
	Specials   []SpecialPlay      `json:"specials"`
	Seen       map[card.Card]bool `json:"-"`
	Draws      map[uuid.UUID]int  `json:"draws"`
	// Voids counts how often a player drew while a suit was demanded of them, a hint they lack it.
	Voids map[uuid.UUID]map[card.Suit]int `json:"voids"`

	lastIndex int
	top       card.Card
	hasTop    bool
	nominated card.Suit
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{
		SuitPlayed: make(map[card.Suit]int),
		Seen:       make(map[card.Card]bool),
		Draws:      make(map[uuid.UUID]int),
		Voids:      make(map[uuid.UUID]map[card.Suit]int),
		lastIndex:  -1,
	}
}

// Sync feeds every log entry of g not yet observed. It is safe to call after every transition,
// whoever acted.
func (m *Memory) Sync(g *game.Game) {
	if len(g.Log) < m.lastIndex+1 {
		// A shorter log means a new game on the same seat.
		*m = *NewMemory()
	}
	for _, a := range g.Log[m.lastIndex+1:] {
		m.observe(a)
		if len(a.Cards) > 0 && (a.Action == game.ActionPlay || a.Action == game.ActionStart) {
			m.top, m.hasTop = a.Cards[len(a.Cards)-1], true
		}
		if a.Action == game.ActionPlay {
			m.nominated = ""
		}
		for _, e := range a.Effects {
			if e.Kind == game.EffectSuitNominated {
				m.nominated = e.Suit
			}
		}
	}
	m.lastIndex = len(g.Log) - 1
}

func (m *Memory) observe(a game.Action) {
	m.Actions = append(m.Actions, Observation{Player: a.Actor, Action: a.Action, Cards: a.Cards, Turn: a.Turn})
	if len(m.Actions) > maxObservations {
		m.Actions = m.Actions[len(m.Actions)-maxObservations:]
	}

	switch a.Action {
	case game.ActionStart:
		for _, c := range a.Cards {
			m.Seen[c] = true
		}
	case game.ActionPlay:
		for _, c := range a.Cards {
			m.SuitPlayed[c.Suit]++
			m.Seen[c] = true
		}
		if len(a.Cards) > 0 && a.Cards[0].IsSpecial() {
			m.Specials = append(m.Specials, SpecialPlay{Player: a.Actor, Rank: a.Cards[0].Rank, Count: len(a.Cards)})
		}
	case game.ActionDraw:
		m.Draws[a.Actor]++
		// Drawing with no penalty pending means no card followed the demanded suit.
		penalty := false
		for _, e := range a.Effects {
			if e.Kind == game.EffectPickupTaken {
				penalty = true
			}
		}
		if penalty {
			return
		}
		demanded := m.nominated
		if demanded == "" && m.hasTop {
			demanded = m.top.Suit
		}
		if demanded != "" {
			if m.Voids[a.Actor] == nil {
				m.Voids[a.Actor] = make(map[card.Suit]int)
			}
			m.Voids[a.Actor][demanded]++
		}
	}
}

// Unseen is the number of cards of rank r that have not been played or turned over.
func (m *Memory) Unseen(r card.Rank) int {
	n := 4
	for _, s := range card.Suits {
		if m.Seen[card.New(r, s)] {
			n--
		}
	}
	return n
}

// LikelyVoid reports how strongly the player appears to lack suit s, in [0,1].
func (m *Memory) LikelyVoid(player uuid.UUID, s card.Suit) float64 {
	n := m.Voids[player][s]
	if n >= 3 {
		return 1
	}
	return float64(n) / 3
}

// SpecialsBy counts special plays made by player.
func (m *Memory) SpecialsBy(player uuid.UUID) int {
	n := 0
	for _, sp := range m.Specials {
		if sp.Player == player {
			n++
		}
	}
	return n
}

// Attacks counts penalty plays (twos and jacks) made by anyone but player.
func (m *Memory) Attacks(player uuid.UUID) int {
	n := 0
	for _, sp := range m.Specials {
		if sp.Player != player && (sp.Rank == card.Two || sp.Rank == card.Jack) {
			n++
		}
	}
	return n
}
