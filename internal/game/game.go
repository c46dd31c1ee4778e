// internal/game/game.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
)

const (
	// MinPlayers is the smallest table that can be started.
	MinPlayers = 2
	// DefaultMaxPlayers caps a table unless the session config says otherwise.
	DefaultMaxPlayers = 8
	// DefaultHandSize is the number of cards dealt to each player when the deck allows it.
	DefaultHandSize = 7
)

// Status is the lifecycle stage of a game.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Direction is the order in which turns pass around the table.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counterclockwise"
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

func (d Direction) step() int {
	if d == CounterClockwise {
		return -1
	}
	return 1
}

// PickupType tags which rank built the current pickup penalty.
type PickupType string

const (
	PickupNone      PickupType = ""
	PickupTwos      PickupType = "twos"
	PickupBlackJack PickupType = "black_jack"
)

// Pickups is the accumulated draw penalty waiting for the current player.
type Pickups struct {
	Count int        `json:"count"`
	Type  PickupType `json:"type,omitempty"`
}

// NominationState distinguishes no nomination, an Ace waiting for its suit, and a chosen suit.
type NominationState string

const (
	NominationNone    NominationState = "none"
	NominationPending NominationState = "pending"
	NominationSet     NominationState = "set"
)

// Nomination is the suit constraint attached to the last Ace played.
type Nomination struct {
	State NominationState `json:"state"`
	Suit  card.Suit       `json:"suit,omitempty"`
	By    uuid.UUID       `json:"by,omitempty"`
}

// Player is one seat at the table.
type Player struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	Hand             []card.Card `json:"hand"`
	IsAI             bool        `json:"isAi"`
	Connected        bool        `json:"connected"`
	HasDrawnThisTurn bool        `json:"hasDrawnThisTurn"`
}

func (p *Player) clone() *Player {
	cp := *p
	cp.Hand = append([]card.Card(nil), p.Hand...)
	return &cp
}

// Game is the authoritative state of one table. Transitions never mutate a Game in place:
// ApplyPlay, ApplyDraw, NominateSuit, AddPlayer and Start return a new value and leave the
// receiver untouched on error.
type Game struct {
	ID     uuid.UUID `json:"id"`
	HostID uuid.UUID `json:"hostId"`

	Players    []*Player   `json:"players"`
	Current    int         `json:"currentPlayerIndex"`
	Direction  Direction   `json:"direction"`
	Deck       *card.Deck  `json:"-"`
	Pickups    Pickups     `json:"pendingPickups"`
	Skips      int         `json:"pendingSkips"`
	Nomination Nomination  `json:"nomination"`
	Winners    []uuid.UUID `json:"winners"`
	Status     Status      `json:"status"`

	// Turn counts turn changes since the deal; timers use it to detect stale callbacks.
	Turn       int `json:"turn"`
	MaxPlayers int `json:"maxPlayers"`
	HandSize   int `json:"handSize"`

	Log []Action `json:"-"`
}

// Options configures a new game.
type Options struct {
	ID         uuid.UUID
	MaxPlayers int
	HandSize   int
	// Seed fixes the shuffle; zero means time-seeded.
	Seed int64
	// Deck overrides the shuffled deck entirely.
	Deck *card.Deck
}

// New builds a waiting game with a freshly shuffled deck and no players.
func New(opts Options) *Game {
	if opts.ID == uuid.Nil {
		opts.ID = uuid.New()
	}
	if opts.MaxPlayers < MinPlayers || opts.MaxPlayers > DefaultMaxPlayers {
		opts.MaxPlayers = DefaultMaxPlayers
	}
	if opts.HandSize <= 0 {
		opts.HandSize = DefaultHandSize
	}
	deck := opts.Deck
	if deck == nil {
		if opts.Seed != 0 {
			deck = card.NewSeededDeck(opts.Seed)
		} else {
			deck = card.NewDeck()
		}
	}
	return &Game{
		ID:         opts.ID,
		Direction:  Clockwise,
		Deck:       deck,
		Nomination: Nomination{State: NominationNone},
		Status:     StatusWaiting,
		MaxPlayers: opts.MaxPlayers,
		HandSize:   opts.HandSize,
	}
}

// Clone returns a deep copy safe to mutate.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.clone()
	}
	cp.Winners = append([]uuid.UUID(nil), g.Winners...)
	cp.Log = append([]Action(nil), g.Log...)
	if g.Deck != nil {
		cp.Deck = g.Deck.Clone()
	}
	return &cp
}

// CurrentCard is the top of the discard pile.
func (g *Game) CurrentCard() (card.Card, bool) {
	if g.Deck == nil {
		return card.Card{}, false
	}
	return g.Deck.Top()
}

// CurrentPlayer returns the player whose turn it is, or nil before the deal.
func (g *Game) CurrentPlayer() *Player {
	if g.Status == StatusWaiting || g.Current < 0 || g.Current >= len(g.Players) {
		return nil
	}
	return g.Players[g.Current]
}

// Player looks up a seat by id.
func (g *Game) Player(id uuid.UUID) (*Player, int) {
	for i, p := range g.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// HasWon reports whether the player is already in the winners list.
func (g *Game) HasWon(id uuid.UUID) bool {
	for _, w := range g.Winners {
		if w == id {
			return true
		}
	}
	return false
}

// ActivePlayers returns the players that have not emptied their hand, in seat order.
func (g *Game) ActivePlayers() []*Player {
	out := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !g.HasWon(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// CardCount sums every card in both piles and every hand. It is always card.DeckSize.
func (g *Game) CardCount() int {
	n := 0
	if g.Deck != nil {
		n = g.Deck.Count()
	}
	for _, p := range g.Players {
		n += len(p.Hand)
	}
	return n
}

// Standings is the finishing order: winners first, then any remaining players in seat order.
func (g *Game) Standings() []uuid.UUID {
	out := append([]uuid.UUID(nil), g.Winners...)
	for _, p := range g.ActivePlayers() {
		out = append(out, p.ID)
	}
	return out
}
