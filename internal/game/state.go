// internal/game/state.go
package game

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
)

// AddPlayer seats a new player while the game is waiting. The first player seated becomes host.
func AddPlayer(g *Game, id uuid.UUID, name string, isAI bool) (*Game, error) {
	if g.Status != StatusWaiting {
		return g, ErrAlreadyStarted
	}
	if p, _ := g.Player(id); p != nil {
		return g, ErrAlreadyJoined
	}
	if len(g.Players) >= g.MaxPlayers {
		return g, ErrGameFull.WithReason("table holds %d players", g.MaxPlayers)
	}
	ng := g.Clone()
	ng.Players = append(ng.Players, &Player{
		ID:        id,
		Name:      name,
		Hand:      []card.Card{},
		IsAI:      isAI,
		Connected: true,
	})
	// An AI only hosts until the first human sits down.
	if host, _ := g.Player(g.HostID); g.HostID == uuid.Nil || (!isAI && host != nil && host.IsAI) {
		ng.HostID = id
	}
	ng.record(id, ActionJoin, nil, nil)
	return ng, nil
}

// Start deals the hands and turns over the opening card. The opening card is neutral: its
// rank carries no effect and an opening Ace sets no nomination.
func Start(g *Game, requester uuid.UUID) (*Game, []Effect, error) {
	if g.Status != StatusWaiting {
		return g, nil, ErrAlreadyStarted
	}
	if requester != g.HostID {
		return g, nil, ErrNotHost
	}
	if len(g.Players) < MinPlayers {
		return g, nil, ErrNotEnoughPlayers.WithReason("need at least %d players, have %d", MinPlayers, len(g.Players))
	}

	ng := g.Clone()
	n := len(ng.Players)
	// One card is held back for the opening discard.
	total := min(ng.HandSize*n, ng.Deck.Len()-1)
	dealt, _, err := ng.Deck.Take(total)
	if err != nil {
		return g, nil, ErrDeckExhausted.WithReason("cannot deal %d cards", total)
	}
	// Round-robin from the first seat, so any remainder lands on the earliest seats.
	for i, c := range dealt {
		p := ng.Players[i%n]
		p.Hand = append(p.Hand, c)
	}
	opening, _, err := ng.Deck.Take(1)
	if err != nil {
		return g, nil, ErrDeckExhausted.WithReason("no opening card")
	}
	ng.Deck.Put(opening...)

	ng.Status = StatusPlaying
	ng.Current = 0
	ng.Direction = Clockwise
	ng.Turn = 1
	ng.record(requester, ActionStart, opening, nil)
	return ng, nil, nil
}

// ApplyPlay validates and applies a play of cards from the player's hand. The last card becomes
// the card in play. After an Ace the turn stays with the player until they nominate a suit.
func ApplyPlay(g *Game, playerID uuid.UUID, cards []card.Card) (*Game, []Effect, error) {
	if err := ValidPlay(g, playerID, cards); err != nil {
		return g, nil, err
	}

	ng := g.Clone()
	p, _ := ng.Player(playerID)
	idx, _ := handIndices(p.Hand, cards)
	p.Hand = removeIndices(p.Hand, idx)
	ng.Deck.Put(cards...)
	if ng.Nomination.State == NominationSet {
		ng.Nomination = Nomination{State: NominationNone}
	}

	effects := ng.resolveEffects(playerID, cards)

	if len(p.Hand) == 0 {
		if ng.Nomination.State == NominationPending {
			// A player who goes out on an Ace is not asked for a suit.
			ng.Nomination = Nomination{State: NominationNone}
			effects = dropEffect(effects, EffectNominationNeeded)
		}
		effects = append(effects, ng.markWinner(playerID)...)
	}

	if ng.Status == StatusPlaying && ng.Nomination.State != NominationPending {
		effects = append(effects, ng.advance()...)
	}
	ng.record(playerID, ActionPlay, cards, effects)
	return ng, effects, nil
}

// PlayIndices is ApplyPlay addressed by hand positions.
func PlayIndices(g *Game, playerID uuid.UUID, indices []int) (*Game, []Effect, error) {
	p, _ := g.Player(playerID)
	if p == nil {
		return g, nil, ErrUnknownPlayer
	}
	cards, err := CardsAt(p, indices)
	if err != nil {
		return g, nil, err
	}
	return ApplyPlay(g, playerID, cards)
}

// ApplyDraw takes the pending penalty, or one card when nothing is pending, and ends the turn.
// Drawing is refused while the player holds a legal play. A drawn card is never played in the
// same turn, even when it would be legal.
//
// When the deck cannot cover the draw the player receives whatever exists, the rest of the
// penalty is forgiven, and the turn still passes.
func ApplyDraw(g *Game, playerID uuid.UUID) (*Game, []Effect, error) {
	p, _, err := g.checkTurn(playerID)
	if err != nil {
		return g, nil, err
	}
	if g.Nomination.State == NominationPending {
		return g, nil, ErrNominationRequired.WithReason("nominate a suit before anything else")
	}
	if HasValidPlay(g, p.ID) {
		return g, nil, ErrMustPlayInstead
	}

	ng := g.Clone()
	np, _ := ng.Player(playerID)
	want := 1
	penalty := ng.Pickups.Count > 0
	if penalty {
		want = ng.Pickups.Count
	}

	drawn, moved, derr := ng.Deck.Take(want)
	var effects []Effect
	if moved > 0 {
		effects = append(effects, Effect{Kind: EffectReshuffle, Magnitude: moved})
	}
	if derr != nil {
		if !errors.Is(derr, card.ErrDeckExhausted) {
			return g, nil, derr
		}
		effects = append(effects, Effect{Kind: EffectDeckExhausted, Magnitude: want - len(drawn)})
	}
	np.Hand = append(np.Hand, drawn...)
	np.HasDrawnThisTurn = true
	if penalty {
		effects = append(effects, Effect{Kind: EffectPickupTaken, Magnitude: len(drawn)})
		ng.Pickups = Pickups{}
	}

	effects = append(effects, ng.advance()...)
	ng.record(playerID, ActionDraw, drawn, effects)
	return ng, effects, nil
}

// NominateSuit completes an Ace play by choosing the suit the next player must follow.
func NominateSuit(g *Game, playerID uuid.UUID, suit card.Suit) (*Game, []Effect, error) {
	if _, _, err := g.checkTurn(playerID); err != nil {
		return g, nil, err
	}
	if g.Nomination.State != NominationPending || g.Nomination.By != playerID {
		return g, nil, ErrInvalidSuitNomination.WithReason("no ace waiting for a suit")
	}
	if !suit.Valid() {
		return g, nil, ErrInvalidSuitNomination.WithReason("unknown suit %q", suit)
	}

	ng := g.Clone()
	ng.Nomination = Nomination{State: NominationSet, Suit: suit, By: playerID}
	effects := []Effect{{Kind: EffectSuitNominated, Suit: suit}}
	effects = append(effects, ng.advance()...)
	ng.record(playerID, ActionNominate, nil, effects)
	return ng, effects, nil
}

// SetConnected flips a player's connection flag without touching hand or seat order.
func SetConnected(g *Game, playerID uuid.UUID, connected bool) (*Game, error) {
	p, _ := g.Player(playerID)
	if p == nil {
		return g, ErrUnknownPlayer
	}
	if p.Connected == connected {
		return g, nil
	}
	ng := g.Clone()
	np, _ := ng.Player(playerID)
	np.Connected = connected
	action := ActionDisconnect
	if connected {
		action = ActionReconnect
	}
	ng.record(playerID, action, nil, nil)
	return ng, nil
}

// markWinner appends the player to winners once and finishes the game when at most one active
// player is left.
func (g *Game) markWinner(playerID uuid.UUID) []Effect {
	if g.HasWon(playerID) {
		return nil
	}
	g.Winners = append(g.Winners, playerID)
	effects := []Effect{{Kind: EffectPlayerWon, Magnitude: len(g.Winners), Players: []uuid.UUID{playerID}}}
	if len(g.ActivePlayers()) <= 1 {
		g.finish()
		effects = append(effects, Effect{Kind: EffectGameFinished, Players: g.Standings()})
	}
	return effects
}

func (g *Game) finish() {
	g.Status = StatusFinished
	g.Pickups = Pickups{}
	g.Skips = 0
	g.Nomination = Nomination{State: NominationNone}
}

// nextActive returns the seat after from in the current direction that has not won.
// Assumes at least one active player exists.
func (g *Game) nextActive(from int) int {
	n := len(g.Players)
	idx := from
	for i := 0; i < n; i++ {
		idx = ((idx+g.Direction.step())%n + n) % n
		if !g.HasWon(g.Players[idx].ID) {
			return idx
		}
	}
	return from
}

// advance passes the turn, consuming pending skips: each skipped player gets no turn at all.
func (g *Game) advance() []Effect {
	if g.Status != StatusPlaying {
		return nil
	}
	var effects []Effect
	idx := g.nextActive(g.Current)
	if g.Skips > 0 {
		skipped := make([]uuid.UUID, 0, g.Skips)
		for i := 0; i < g.Skips; i++ {
			skipped = append(skipped, g.Players[idx].ID)
			idx = g.nextActive(idx)
		}
		effects = append(effects, Effect{Kind: EffectSkip, Magnitude: g.Skips, Players: skipped})
		g.Skips = 0
	}
	g.Current = idx
	g.Players[idx].HasDrawnThisTurn = false
	g.Turn++
	return effects
}

func removeIndices(hand []card.Card, idx []int) []card.Card {
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	out := make([]card.Card, 0, len(hand)-len(idx))
	for i, c := range hand {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

func dropEffect(effects []Effect, kind EffectKind) []Effect {
	out := effects[:0]
	for _, e := range effects {
		if e.Kind != kind {
			out = append(out, e)
		}
	}
	return out
}
