// internal/card/deck.go
package card

import (
	"errors"
	"math/rand"
	"time"
)

// DeckSize is the number of cards in a standard deck with no jokers.
const DeckSize = 52

// ErrDeckExhausted is returned by Draw when the draw pile and the reshufflable part of the
// discard pile together hold fewer cards than requested.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck holds the draw pile and the discard pile of one game.
// Draw[0] is the next card drawn; Discard[len-1] is the card currently in play.
type Deck struct {
	Draw    []Card `json:"draw"`
	Discard []Card `json:"discard"`

	rng *rand.Rand
}

// NewDeck builds all 52 cards and shuffles them with a time-seeded source.
func NewDeck() *Deck {
	return NewSeededDeck(time.Now().UnixNano())
}

// NewSeededDeck builds and shuffles a deck from a fixed seed, so games can be replayed.
func NewSeededDeck(seed int64) *Deck {
	d := &Deck{
		Draw: make([]Card, 0, DeckSize),
		rng:  rand.New(rand.NewSource(seed)),
	}
	for _, s := range Suits {
		for _, r := range Ranks {
			d.Draw = append(d.Draw, Card{Suit: s, Rank: r})
		}
	}
	d.Shuffle()
	return d
}

// NewStackedDeck builds a deck whose draw pile is exactly the given order, for tests and replays.
// Reshuffles use the given seed.
func NewStackedDeck(draw []Card, seed int64) *Deck {
	d := &Deck{
		Draw: append([]Card(nil), draw...),
		rng:  rand.New(rand.NewSource(seed)),
	}
	return d
}

// Shuffle randomizes the draw pile in place.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.Draw), func(i, j int) {
		d.Draw[i], d.Draw[j] = d.Draw[j], d.Draw[i]
	})
}

// Len is the number of cards left in the draw pile.
func (d *Deck) Len() int { return len(d.Draw) }

// Top returns the card in play and false when the discard pile is empty.
func (d *Deck) Top() (Card, bool) {
	if len(d.Discard) == 0 {
		return Card{}, false
	}
	return d.Discard[len(d.Discard)-1], true
}

// Put places cards on the discard pile in order; the last one becomes the card in play.
func (d *Deck) Put(cards ...Card) {
	d.Discard = append(d.Discard, cards...)
}

// Reshuffle moves every discard except the card in play back into the draw pile, then shuffles
// the draw pile. It returns the number of cards moved.
func (d *Deck) Reshuffle() int {
	if len(d.Discard) <= 1 {
		return 0
	}
	top := d.Discard[len(d.Discard)-1]
	moved := d.Discard[:len(d.Discard)-1]
	d.Draw = append(d.Draw, moved...)
	d.Discard = []Card{top}
	d.Shuffle()
	return len(moved)
}

// Take removes and returns the top n cards. If the draw pile is short it reshuffles first and
// reports how many discards were moved back. When even a reshuffle cannot cover n, every
// remaining card is returned together with ErrDeckExhausted; those cards have left the deck.
func (d *Deck) Take(n int) ([]Card, int, error) {
	if n <= 0 {
		return nil, 0, nil
	}
	moved := 0
	if len(d.Draw) < n {
		moved = d.Reshuffle()
	}
	if len(d.Draw) < n {
		out := d.Draw
		d.Draw = []Card{}
		return out, moved, ErrDeckExhausted
	}
	out := make([]Card, n)
	copy(out, d.Draw[:n])
	d.Draw = d.Draw[n:]
	return out, moved, nil
}

// Count is the number of cards held by the deck across both piles.
func (d *Deck) Count() int { return len(d.Draw) + len(d.Discard) }

// Clone copies both piles. The clone shares the random source, which is only safe because a
// game is mutated by a single owner at a time.
func (d *Deck) Clone() *Deck {
	return &Deck{
		Draw:    append([]Card(nil), d.Draw...),
		Discard: append([]Card(nil), d.Discard...),
		rng:     d.rng,
	}
}
