// internal/game/rules.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
)

// canLead reports whether c may be the first card of a play against the current state,
// ignoring whose turn it is.
func (g *Game) canLead(c card.Card) bool {
	if g.Nomination.State == NominationPending {
		return false
	}
	if g.Pickups.Count > 0 {
		switch g.Pickups.Type {
		case PickupTwos:
			return c.Rank == card.Two
		case PickupBlackJack:
			return c.Rank == card.Jack
		}
		return false
	}
	if c.Rank == card.Ace {
		return true
	}
	if g.Nomination.State == NominationSet {
		return c.Suit == g.Nomination.Suit
	}
	top, ok := g.CurrentCard()
	if !ok {
		return true
	}
	return c.Suit == top.Suit || c.Rank == top.Rank
}

// LegalCards reports whether cards form a legal play on the current state. The first card must
// lead; the rest only need to share its rank.
func (g *Game) LegalCards(cards []card.Card) *Error {
	if len(cards) == 0 {
		return ErrInvalidPlay.WithReason("no cards selected")
	}
	if !card.SameRank(cards) {
		return ErrCardsNotSameRank
	}
	if g.Nomination.State == NominationPending {
		return ErrNominationRequired.WithReason("waiting for a suit to be nominated")
	}
	if g.canLead(cards[0]) {
		return nil
	}
	switch {
	case g.Pickups.Count > 0 && g.Pickups.Type == PickupTwos:
		return ErrInvalidPlay.WithReason("%d pending from twos: only a 2 can be played", g.Pickups.Count)
	case g.Pickups.Count > 0 && g.Pickups.Type == PickupBlackJack:
		return ErrInvalidPlay.WithReason("%d pending from black jacks: only a jack can be played", g.Pickups.Count)
	case g.Nomination.State == NominationSet:
		return ErrInvalidPlay.WithReason("%s does not follow nominated suit %s", cards[0], g.Nomination.Suit)
	}
	top, _ := g.CurrentCard()
	return ErrInvalidPlay.WithReason("%s does not match %s", cards[0], top)
}

// checkTurn verifies the game is running and it is the player's turn.
func (g *Game) checkTurn(playerID uuid.UUID) (*Player, int, *Error) {
	if g.Status != StatusPlaying {
		return nil, -1, ErrNotPlaying.WithReason("game is %s", g.Status)
	}
	p, idx := g.Player(playerID)
	if p == nil {
		return nil, -1, ErrUnknownPlayer
	}
	if g.HasWon(playerID) {
		return nil, -1, ErrNotYourTurn.WithReason("player already finished")
	}
	if idx != g.Current {
		return nil, -1, ErrNotYourTurn
	}
	return p, idx, nil
}

// ValidPlay decides whether the player may play exactly these cards now. The cards must all be
// held by the player.
func ValidPlay(g *Game, playerID uuid.UUID, cards []card.Card) error {
	p, _, err := g.checkTurn(playerID)
	if err != nil {
		return err
	}
	if _, ok := handIndices(p.Hand, cards); !ok {
		return ErrInvalidPlay.WithReason("cards not in hand")
	}
	if err := g.LegalCards(cards); err != nil {
		return err
	}
	return nil
}

// HasValidPlay reports whether any same-rank subset of the player's hand is a legal play.
// A set is legal exactly when its first card can lead, so a single leading card decides it.
func HasValidPlay(g *Game, playerID uuid.UUID) bool {
	p, _ := g.Player(playerID)
	if p == nil || g.Status != StatusPlaying {
		return false
	}
	for _, c := range p.Hand {
		if g.canLead(c) {
			return true
		}
	}
	return false
}

// PlayableSets enumerates every legal play from hand. Plays that differ only in the order of
// their middle cards are listed once; lead and last card are distinguished because the last
// card becomes the card in play.
func PlayableSets(g *Game, hand []card.Card) [][]card.Card {
	byRank := make(map[card.Rank][]card.Card)
	var order []card.Rank
	for _, c := range hand {
		if _, ok := byRank[c.Rank]; !ok {
			order = append(order, c.Rank)
		}
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	var out [][]card.Card
	for _, r := range order {
		group := byRank[r]
		for mask := 1; mask < 1<<len(group); mask++ {
			var subset []card.Card
			for i, c := range group {
				if mask&(1<<i) != 0 {
					subset = append(subset, c)
				}
			}
			for li, lead := range subset {
				if !g.canLead(lead) {
					continue
				}
				if len(subset) == 1 {
					out = append(out, []card.Card{lead})
					continue
				}
				for ti, last := range subset {
					if ti == li {
						continue
					}
					play := []card.Card{lead}
					for mi, mid := range subset {
						if mi != li && mi != ti {
							play = append(play, mid)
						}
					}
					out = append(out, append(play, last))
				}
			}
		}
	}
	return out
}

// resolveEffects applies the side effects of a legal play to g. Assumes g is a private clone,
// the cards are already on the discard pile, and the nomination being answered is cleared.
func (g *Game) resolveEffects(playerID uuid.UUID, cards []card.Card) []Effect {
	k := len(cards)
	var effects []Effect
	switch cards[0].Rank {
	case card.Two:
		g.Pickups.Count += 2 * k
		g.Pickups.Type = PickupTwos
		effects = append(effects, Effect{Kind: EffectPickupAdded, Magnitude: 2 * k})
	case card.Jack:
		// The whole play resolves at once, so the order of the jacks never matters. Red jacks
		// only counter a black jack penalty that was pending before this play.
		var black, red int
		for _, c := range cards {
			if c.IsBlackJack() {
				black++
			} else {
				red++
			}
		}
		before := g.Pickups.Count
		countering := before > 0 && g.Pickups.Type == PickupBlackJack
		if black > 0 {
			effects = append(effects, Effect{Kind: EffectPickupAdded, Magnitude: 5 * black})
		}
		total := before + 5*black
		if countering && red > 0 {
			cancelled := min(total, 5*red)
			total -= cancelled
			effects = append(effects, Effect{Kind: EffectPickupCountered, Magnitude: cancelled})
		}
		if total > 0 {
			g.Pickups = Pickups{Count: total, Type: PickupBlackJack}
		} else {
			g.Pickups = Pickups{}
		}
	case card.Seven:
		// Reported by advance, which knows who was skipped.
		g.Skips += k
	case card.Queen:
		if k%2 == 1 {
			g.Direction = g.Direction.Flip()
			effects = append(effects, Effect{Kind: EffectReverse, Magnitude: k})
		}
	case card.Ace:
		g.Nomination = Nomination{State: NominationPending, By: playerID}
		effects = append(effects, Effect{Kind: EffectNominationNeeded})
	}
	return effects
}

// handIndices maps each card to a distinct position in hand.
func handIndices(hand, cards []card.Card) ([]int, bool) {
	used := make([]bool, len(hand))
	idx := make([]int, 0, len(cards))
	for _, c := range cards {
		found := -1
		for i, h := range hand {
			if !used[i] && h == c {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		used[found] = true
		idx = append(idx, found)
	}
	return idx, true
}

// CardsAt resolves hand positions to cards, preserving the caller's order.
func CardsAt(p *Player, indices []int) ([]card.Card, error) {
	if len(indices) == 0 {
		return nil, ErrInvalidPlay.WithReason("no cards selected")
	}
	seen := make(map[int]bool, len(indices))
	out := make([]card.Card, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(p.Hand) {
			return nil, ErrInvalidPlay.WithReason("card index %d out of range", i)
		}
		if seen[i] {
			return nil, ErrInvalidPlay.WithReason("card index %d selected twice", i)
		}
		seen[i] = true
		out = append(out, p.Hand[i])
	}
	return out, nil
}
