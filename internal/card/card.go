// internal/card/card.go
package card

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit is one of the four French suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists every suit in deck-building order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Valid reports whether s names one of the four suits.
func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Red reports whether the suit is hearts or diamonds.
func (s Suit) Red() bool { return s == Hearts || s == Diamonds }

// Black reports whether the suit is clubs or spades.
func (s Suit) Black() bool { return s == Clubs || s == Spades }

// Symbol returns the single-glyph form used in logs and the simulator.
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	}
	return "?"
}

// ParseSuit accepts the full name or the first letter of a suit, case-insensitively.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hearts", "h":
		return Hearts, nil
	case "diamonds", "d":
		return Diamonds, nil
	case "clubs", "c":
		return Clubs, nil
	case "spades", "s":
		return Spades, nil
	}
	return "", fmt.Errorf("unknown suit %q", s)
}

// Rank is the face value of a card. Numeric ranks use their pip value.
type Rank int

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Ranks lists every rank from Two to Ace.
var Ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// Valid reports whether r is between Two and Ace.
func (r Rank) Valid() bool { return r >= Two && r <= Ace }

func (r Rank) String() string {
	switch r {
	case Jack:
		return "jack"
	case Queen:
		return "queen"
	case King:
		return "king"
	case Ace:
		return "ace"
	}
	if r.Valid() {
		return fmt.Sprintf("%d", int(r))
	}
	return fmt.Sprintf("rank(%d)", int(r))
}

// Short is the one or two character label ("2".."10", "J", "Q", "K", "A").
func (r Rank) Short() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	return fmt.Sprintf("%d", int(r))
}

// MarshalText encodes the rank by name so JSON payloads stay readable.
func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts names ("queen"), short labels ("Q") and pip values ("7").
func (r *Rank) UnmarshalText(b []byte) error {
	parsed, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRank parses the forms accepted by UnmarshalText.
func ParseRank(s string) (Rank, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jack", "j":
		return Jack, nil
	case "queen", "q":
		return Queen, nil
	case "king", "k":
		return King, nil
	case "ace", "a":
		return Ace, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	r := Rank(n)
	if !r.Valid() || r > Ten {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	return r, nil
}

// Card is an immutable playing card.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// New is a convenience constructor used heavily by tests.
func New(r Rank, s Suit) Card { return Card{Suit: s, Rank: r} }

func (c Card) String() string { return c.Rank.Short() + c.Suit.Symbol() }

// Valid reports whether both rank and suit are in range.
func (c Card) Valid() bool { return c.Rank.Valid() && c.Suit.Valid() }

// IsBlackJack reports whether the card is the jack of spades or clubs.
func (c Card) IsBlackJack() bool { return c.Rank == Jack && c.Suit.Black() }

// IsRedJack reports whether the card is the jack of hearts or diamonds.
func (c Card) IsRedJack() bool { return c.Rank == Jack && c.Suit.Red() }

// IsSpecial reports whether playing the card carries a side effect.
func (c Card) IsSpecial() bool {
	switch c.Rank {
	case Two, Seven, Jack, Queen, Ace:
		return true
	}
	return false
}

// SameRank reports whether every card in cards shares one rank. Empty input is not same-rank.
func SameRank(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	for _, c := range cards[1:] {
		if c.Rank != cards[0].Rank {
			return false
		}
	}
	return true
}
