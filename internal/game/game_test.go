// internal/game/game_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGame seats numPlayers players on a seeded deck and starts the game.
func setupTestGame(t *testing.T, numPlayers int) (*Game, []uuid.UUID) {
	t.Helper()
	g := New(Options{Seed: 1234})
	ids := make([]uuid.UUID, numPlayers)
	var err error
	for i := range ids {
		ids[i] = uuid.New()
		g, err = AddPlayer(g, ids[i], "player", false)
		require.NoError(t, err)
	}
	g, _, err = Start(g, ids[0])
	require.NoError(t, err)
	require.Equal(t, StatusPlaying, g.Status)
	return g, ids
}

// rig rearranges a started game so seats hold exactly the given hands and top is in play.
// Every other card goes to the draw pile, so the 52-card total is preserved.
func rig(t *testing.T, g *Game, hands [][]card.Card, top card.Card) *Game {
	t.Helper()
	require.Len(t, hands, len(g.Players))
	ng := g.Clone()
	pool := make(map[card.Card]bool, card.DeckSize)
	for _, c := range ng.Deck.Draw {
		pool[c] = true
	}
	for _, c := range ng.Deck.Discard {
		pool[c] = true
	}
	for _, p := range ng.Players {
		for _, c := range p.Hand {
			pool[c] = true
		}
	}
	require.Len(t, pool, card.DeckSize)

	take := func(c card.Card) {
		require.True(t, pool[c], "card %v used twice in rig", c)
		delete(pool, c)
	}
	take(top)
	for i, h := range hands {
		for _, c := range h {
			take(c)
		}
		ng.Players[i].Hand = append([]card.Card{}, h...)
	}
	ng.Deck.Draw = ng.Deck.Draw[:0]
	for _, s := range card.Suits {
		for _, r := range card.Ranks {
			if c := card.New(r, s); pool[c] {
				ng.Deck.Draw = append(ng.Deck.Draw, c)
			}
		}
	}
	ng.Deck.Discard = []card.Card{top}
	require.Equal(t, card.DeckSize, ng.CardCount())
	return ng
}

func c(r card.Rank, s card.Suit) card.Card { return card.New(r, s) }

func TestNewGameIsWaiting(t *testing.T) {
	g := New(Options{})
	assert.Equal(t, StatusWaiting, g.Status)
	assert.Equal(t, card.DeckSize, g.Deck.Len())
	assert.Equal(t, card.DeckSize, g.CardCount())
	assert.Nil(t, g.CurrentPlayer())
}

func TestAddPlayerRules(t *testing.T) {
	g := New(Options{MaxPlayers: 2})
	a, b := uuid.New(), uuid.New()

	g, err := AddPlayer(g, a, "a", false)
	require.NoError(t, err)
	assert.Equal(t, a, g.HostID, "first player hosts")

	_, err = AddPlayer(g, a, "a", false)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	g, err = AddPlayer(g, b, "b", true)
	require.NoError(t, err)

	_, err = AddPlayer(g, uuid.New(), "c", false)
	assert.ErrorIs(t, err, ErrGameFull)

	g, _, err = Start(g, a)
	require.NoError(t, err)
	_, err = AddPlayer(g, uuid.New(), "late", false)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestFirstHumanTakesHostFromAI(t *testing.T) {
	g := New(Options{})
	bot, other, human, late := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	g, err := AddPlayer(g, bot, "bot", true)
	require.NoError(t, err)
	assert.Equal(t, bot, g.HostID, "an AI hosts an empty table")
	g, err = AddPlayer(g, other, "bot2", true)
	require.NoError(t, err)
	assert.Equal(t, bot, g.HostID)

	g, err = AddPlayer(g, human, "ann", false)
	require.NoError(t, err)
	assert.Equal(t, human, g.HostID)

	g, err = AddPlayer(g, late, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, human, g.HostID, "a human host keeps the seat")

	_, _, err = Start(g, bot)
	assert.ErrorIs(t, err, ErrNotHost)
	_, _, err = Start(g, human)
	require.NoError(t, err)
}

func TestStartPreconditions(t *testing.T) {
	g := New(Options{})
	a, b := uuid.New(), uuid.New()
	g, _ = AddPlayer(g, a, "a", false)

	_, _, err := Start(g, a)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	g, _ = AddPlayer(g, b, "b", false)
	_, _, err = Start(g, b)
	assert.ErrorIs(t, err, ErrNotHost)

	started, _, err := Start(g, a)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, g.Status, "original value untouched")
	_, _, err = Start(started, a)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStartDealsEvenlyWithRemainder(t *testing.T) {
	tests := []struct {
		name     string
		players  int
		handSize int
		want     []int
	}{
		{"seven each", 4, 7, []int{7, 7, 7, 7}},
		{"capped by deck", 8, 7, []int{7, 7, 7, 6, 6, 6, 6, 6}},
		{"large hands", 3, 20, []int{17, 17, 17}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(Options{Seed: 5, HandSize: tt.handSize})
			var host uuid.UUID
			for i := 0; i < tt.players; i++ {
				id := uuid.New()
				if i == 0 {
					host = id
				}
				var err error
				g, err = AddPlayer(g, id, "p", false)
				require.NoError(t, err)
			}
			g, _, err := Start(g, host)
			require.NoError(t, err)
			for i, p := range g.Players {
				assert.Len(t, p.Hand, tt.want[i], "seat %d", i)
			}
			_, ok := g.CurrentCard()
			assert.True(t, ok, "opening card turned over")
			assert.Equal(t, card.DeckSize, g.CardCount())
			assert.Equal(t, 0, g.Current)
			assert.Equal(t, Clockwise, g.Direction)
		})
	}
}

func TestOpeningCardIsNeutral(t *testing.T) {
	// Stack the deck so the opening card is the two of spades.
	var draw []card.Card
	for _, s := range card.Suits {
		for _, r := range card.Ranks {
			if r == card.Two && s == card.Spades {
				continue
			}
			draw = append(draw, c(r, s))
		}
	}
	opening := c(card.Two, card.Spades)
	// 2 players * 7 cards are dealt first, then the opening card.
	draw = append(draw[:14], append([]card.Card{opening}, draw[14:]...)...)

	g := New(Options{Deck: card.NewStackedDeck(draw, 1)})
	a, b := uuid.New(), uuid.New()
	g, _ = AddPlayer(g, a, "a", false)
	g, _ = AddPlayer(g, b, "b", false)
	g, _, err := Start(g, a)
	require.NoError(t, err)

	top, _ := g.CurrentCard()
	require.Equal(t, opening, top)
	assert.Zero(t, g.Pickups.Count, "opening two adds no penalty")
	assert.Equal(t, NominationNone, g.Nomination.State)
	assert.Equal(t, 0, g.Current)
}

// Scenario A: two 2s stack four and pass the turn.
func TestPlayTwosStacksPickups(t *testing.T) {
	g, ids := setupTestGame(t, 4)
	g = rig(t, g, [][]card.Card{
		{c(card.Two, card.Hearts), c(card.Two, card.Clubs), c(card.Nine, card.Spades)},
		{c(card.Five, card.Clubs)},
		{c(card.Six, card.Clubs)},
		{c(card.Eight, card.Clubs)},
	}, c(card.Four, card.Hearts))

	ng, effects, err := ApplyPlay(g, ids[0], []card.Card{c(card.Two, card.Hearts), c(card.Two, card.Clubs)})
	require.NoError(t, err)
	assert.Equal(t, Pickups{Count: 4, Type: PickupTwos}, ng.Pickups)
	assert.Equal(t, 1, ng.Current)
	top, _ := ng.CurrentCard()
	assert.Equal(t, c(card.Two, card.Clubs), top, "last card played is in play")
	require.NotEmpty(t, effects)
	assert.Equal(t, Effect{Kind: EffectPickupAdded, Magnitude: 4}, effects[0])
	assert.Equal(t, card.DeckSize, ng.CardCount())
}

// Scenario B: a black jack cannot answer twos; the player takes all four.
func TestTwosPendingRejectsJackThenDraws(t *testing.T) {
	g, ids := setupTestGame(t, 4)
	g = rig(t, g, [][]card.Card{
		{c(card.Nine, card.Spades)},
		{c(card.Jack, card.Spades), c(card.Five, card.Clubs)},
		{c(card.Six, card.Clubs)},
		{c(card.Eight, card.Clubs)},
	}, c(card.Two, card.Clubs))
	g.Current = 1
	g.Pickups = Pickups{Count: 4, Type: PickupTwos}

	_, _, err := ApplyPlay(g, ids[1], []card.Card{c(card.Jack, card.Spades)})
	require.ErrorIs(t, err, ErrInvalidPlay)
	assert.Equal(t, KindValidation, AsError(err).Kind)

	ng, effects, err := ApplyDraw(g, ids[1])
	require.NoError(t, err)
	assert.Len(t, ng.Players[1].Hand, 6)
	assert.Zero(t, ng.Pickups.Count)
	assert.Equal(t, PickupNone, ng.Pickups.Type)
	assert.Equal(t, 2, ng.Current)
	assert.Contains(t, effects, Effect{Kind: EffectPickupTaken, Magnitude: 4})
	assert.Equal(t, card.DeckSize, ng.CardCount())
}

// Scenario C: one red jack cancels a single black jack.
func TestRedJackCountersBlackJack(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	g = rig(t, g, [][]card.Card{
		{c(card.Jack, card.Spades), c(card.Three, card.Clubs)},
		{c(card.Jack, card.Hearts), c(card.Five, card.Clubs)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Spades))

	g, _, err := ApplyPlay(g, ids[0], []card.Card{c(card.Jack, card.Spades)})
	require.NoError(t, err)
	require.Equal(t, Pickups{Count: 5, Type: PickupBlackJack}, g.Pickups)
	require.Equal(t, 1, g.Current)

	g, effects, err := ApplyPlay(g, ids[1], []card.Card{c(card.Jack, card.Hearts)})
	require.NoError(t, err)
	assert.Equal(t, Pickups{}, g.Pickups)
	assert.Equal(t, 2, g.Current, "normal advance, nobody draws")
	assert.Len(t, g.Players[1].Hand, 1)
	assert.Contains(t, effects, Effect{Kind: EffectPickupCountered, Magnitude: 5})
}

func TestRedJacksClampAtZero(t *testing.T) {
	tests := []struct {
		name    string
		pending int
		reds    []card.Card
		want    Pickups
	}{
		{"one red against ten", 10, []card.Card{c(card.Jack, card.Hearts)}, Pickups{Count: 5, Type: PickupBlackJack}},
		{"two reds against five", 5, []card.Card{c(card.Jack, card.Hearts), c(card.Jack, card.Diamonds)}, Pickups{}},
		{"two reds against ten", 10, []card.Card{c(card.Jack, card.Hearts), c(card.Jack, card.Diamonds)}, Pickups{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ids := setupTestGame(t, 3)
			hand := append([]card.Card{c(card.Three, card.Clubs)}, tt.reds...)
			g = rig(t, g, [][]card.Card{
				hand,
				{c(card.Five, card.Clubs)},
				{c(card.Six, card.Clubs)},
			}, c(card.Jack, card.Spades))
			g.Pickups = Pickups{Count: tt.pending, Type: PickupBlackJack}

			ng, _, err := ApplyPlay(g, ids[0], tt.reds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ng.Pickups)
		})
	}
}

func permutations(cards []card.Card) [][]card.Card {
	if len(cards) <= 1 {
		return [][]card.Card{append([]card.Card{}, cards...)}
	}
	var out [][]card.Card
	for i := range cards {
		rest := append(append([]card.Card{}, cards[:i]...), cards[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]card.Card{cards[i]}, p...))
		}
	}
	return out
}

// A mixed jack play resolves as a whole: black jacks add, red jacks only cancel a penalty that
// was already pending, and the order the cards are laid down never changes the outcome.
func TestMixedJacksIgnoreOrder(t *testing.T) {
	tests := []struct {
		name    string
		pending Pickups
		play    []card.Card
		want    Pickups
	}{
		{"black and two reds against five", Pickups{Count: 5, Type: PickupBlackJack},
			[]card.Card{c(card.Jack, card.Spades), c(card.Jack, card.Hearts), c(card.Jack, card.Diamonds)}, Pickups{}},
		{"black and red with nothing pending", Pickups{},
			[]card.Card{c(card.Jack, card.Spades), c(card.Jack, card.Hearts)}, Pickups{Count: 5, Type: PickupBlackJack}},
		{"black and red against ten", Pickups{Count: 10, Type: PickupBlackJack},
			[]card.Card{c(card.Jack, card.Spades), c(card.Jack, card.Hearts)}, Pickups{Count: 10, Type: PickupBlackJack}},
		{"black and two reds with nothing pending", Pickups{},
			[]card.Card{c(card.Jack, card.Spades), c(card.Jack, card.Hearts), c(card.Jack, card.Diamonds)}, Pickups{Count: 5, Type: PickupBlackJack}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, order := range permutations(tt.play) {
				g, ids := setupTestGame(t, 3)
				hand := append([]card.Card{c(card.Three, card.Clubs)}, tt.play...)
				g = rig(t, g, [][]card.Card{
					hand,
					{c(card.Five, card.Clubs)},
					{c(card.Six, card.Clubs)},
				}, c(card.Jack, card.Clubs))
				g.Pickups = tt.pending

				ng, _, err := ApplyPlay(g, ids[0], order)
				require.NoError(t, err, "order %v", order)
				assert.Equal(t, tt.want, ng.Pickups, "order %v", order)
			}
		})
	}
}

func TestRedJackWithoutPendingIsPlain(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Jack, card.Hearts), c(card.Three, card.Clubs)},
		{c(card.Five, card.Clubs)},
	}, c(card.Four, card.Hearts))

	ng, effects, err := ApplyPlay(g, ids[0], []card.Card{c(card.Jack, card.Hearts)})
	require.NoError(t, err)
	assert.Equal(t, Pickups{}, ng.Pickups)
	assert.Empty(t, effects)
}

func TestBlackJacksStackFiveEach(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	g = rig(t, g, [][]card.Card{
		{c(card.Jack, card.Spades), c(card.Jack, card.Clubs), c(card.Three, card.Hearts)},
		{c(card.Five, card.Clubs)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Clubs))

	ng, _, err := ApplyPlay(g, ids[0], []card.Card{c(card.Jack, card.Clubs), c(card.Jack, card.Spades)})
	require.NoError(t, err)
	assert.Equal(t, Pickups{Count: 10, Type: PickupBlackJack}, ng.Pickups)
}

func TestQueenParityFlipsDirection(t *testing.T) {
	queens := []card.Card{c(card.Queen, card.Hearts), c(card.Queen, card.Clubs), c(card.Queen, card.Spades)}
	for k := 1; k <= 3; k++ {
		g, ids := setupTestGame(t, 4)
		g = rig(t, g, [][]card.Card{
			append([]card.Card{c(card.Three, card.Diamonds)}, queens[:k]...),
			{c(card.Five, card.Clubs)},
			{c(card.Six, card.Clubs)},
			{c(card.Eight, card.Clubs)},
		}, c(card.Four, card.Hearts))

		ng, _, err := ApplyPlay(g, ids[0], queens[:k])
		require.NoError(t, err)
		if k%2 == 1 {
			assert.Equal(t, CounterClockwise, ng.Direction, "k=%d", k)
			assert.Equal(t, 3, ng.Current, "k=%d", k)
		} else {
			assert.Equal(t, Clockwise, ng.Direction, "k=%d", k)
			assert.Equal(t, 1, ng.Current, "k=%d", k)
		}
	}
}

func TestSevensSkipPlayersEntirely(t *testing.T) {
	tests := []struct {
		sevens   int
		wantNext int
	}{
		{1, 2},
		{2, 3},
		{3, 0},
	}
	sevens := []card.Card{c(card.Seven, card.Hearts), c(card.Seven, card.Clubs), c(card.Seven, card.Spades)}
	for _, tt := range tests {
		g, ids := setupTestGame(t, 4)
		g = rig(t, g, [][]card.Card{
			append([]card.Card{c(card.Three, card.Diamonds)}, sevens...),
			{c(card.Five, card.Clubs)},
			{c(card.Six, card.Clubs)},
			{c(card.Eight, card.Clubs)},
		}, c(card.Four, card.Hearts))

		ng, effects, err := ApplyPlay(g, ids[0], sevens[:tt.sevens])
		require.NoError(t, err)
		assert.Equal(t, tt.wantNext, ng.Current, "sevens=%d", tt.sevens)
		assert.Zero(t, ng.Skips, "skips are consumed by the advance")
		require.NotEmpty(t, effects)
		last := effects[len(effects)-1]
		assert.Equal(t, EffectSkip, last.Kind)
		assert.Len(t, last.Players, tt.sevens)
		for _, skipped := range last.Players {
			assert.NotEqual(t, ng.Players[ng.Current].ID, skipped)
		}
	}
}

func TestPlayAfterSkipFollowsTopCard(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	g = rig(t, g, [][]card.Card{
		{c(card.Seven, card.Hearts), c(card.Three, card.Diamonds)},
		{c(card.Five, card.Clubs)},
		{c(card.Nine, card.Hearts), c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	ng, _, err := ApplyPlay(g, ids[0], []card.Card{c(card.Seven, card.Hearts)})
	require.NoError(t, err)
	require.Equal(t, 2, ng.Current)
	require.Zero(t, ng.Skips)

	ng, _, err = ApplyPlay(ng, ids[2], []card.Card{c(card.Nine, card.Hearts)})
	require.NoError(t, err, "a heart follows the 7 of hearts once the skip is spent")
	top, _ := ng.CurrentCard()
	assert.Equal(t, c(card.Nine, card.Hearts), top)
}

func TestSkipsJumpOverWinners(t *testing.T) {
	g, ids := setupTestGame(t, 4)
	g = rig(t, g, [][]card.Card{
		{c(card.Seven, card.Hearts), c(card.Three, card.Diamonds)},
		{},
		{c(card.Six, card.Clubs)},
		{c(card.Eight, card.Clubs), c(card.Five, card.Clubs)},
	}, c(card.Four, card.Hearts))
	g.Winners = []uuid.UUID{ids[1]}

	ng, _, err := ApplyPlay(g, ids[0], []card.Card{c(card.Seven, card.Hearts)})
	require.NoError(t, err)
	assert.Equal(t, 3, ng.Current, "seat 1 already won, seat 2 is skipped")
}

func TestAceRequiresNomination(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	g = rig(t, g, [][]card.Card{
		{c(card.Ace, card.Spades), c(card.Three, card.Diamonds)},
		{c(card.Five, card.Clubs), c(card.Nine, card.Hearts)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	g, effects, err := ApplyPlay(g, ids[0], []card.Card{c(card.Ace, card.Spades)})
	require.NoError(t, err)
	assert.Equal(t, NominationPending, g.Nomination.State)
	assert.Equal(t, 0, g.Current, "turn waits for the nomination")
	assert.Contains(t, effects, Effect{Kind: EffectNominationNeeded})

	_, _, err = ApplyDraw(g, ids[0])
	assert.ErrorIs(t, err, ErrNominationRequired)
	_, _, err = NominateSuit(g, ids[1], card.Hearts)
	assert.ErrorIs(t, err, ErrNotYourTurn)
	_, _, err = NominateSuit(g, ids[0], card.Suit("stars"))
	assert.ErrorIs(t, err, ErrInvalidSuitNomination)

	g, _, err = NominateSuit(g, ids[0], card.Hearts)
	require.NoError(t, err)
	assert.Equal(t, Nomination{State: NominationSet, Suit: card.Hearts, By: ids[0]}, g.Nomination)
	assert.Equal(t, 1, g.Current)

	_, _, err = ApplyPlay(g, ids[1], []card.Card{c(card.Five, card.Clubs)})
	assert.ErrorIs(t, err, ErrInvalidPlay, "clubs does not follow hearts")

	g, _, err = ApplyPlay(g, ids[1], []card.Card{c(card.Nine, card.Hearts)})
	require.NoError(t, err)
	assert.Equal(t, NominationNone, g.Nomination.State, "satisfied nomination clears")
}

func TestNominateWithoutAceFails(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	_, _, err := NominateSuit(g, ids[0], card.Spades)
	assert.ErrorIs(t, err, ErrInvalidSuitNomination)
}

func TestAceIsAlwaysPlayableOutsidePenalties(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Ace, card.Clubs), c(card.Three, card.Diamonds)},
		{c(card.Five, card.Clubs)},
	}, c(card.Four, card.Hearts))
	assert.NoError(t, ValidPlay(g, ids[0], []card.Card{c(card.Ace, card.Clubs)}))

	g.Pickups = Pickups{Count: 2, Type: PickupTwos}
	assert.ErrorIs(t, ValidPlay(g, ids[0], []card.Card{c(card.Ace, card.Clubs)}), ErrInvalidPlay)
}

func TestValidPlayRejections(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Four, card.Clubs), c(card.Five, card.Clubs), c(card.Four, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	assert.ErrorIs(t, ValidPlay(g, ids[1], []card.Card{c(card.Six, card.Clubs)}), ErrNotYourTurn)
	assert.ErrorIs(t, ValidPlay(g, uuid.New(), []card.Card{c(card.Six, card.Clubs)}), ErrUnknownPlayer)
	assert.ErrorIs(t, ValidPlay(g, ids[0], nil), ErrInvalidPlay)
	assert.ErrorIs(t, ValidPlay(g, ids[0], []card.Card{c(card.Four, card.Clubs), c(card.Five, card.Clubs)}), ErrCardsNotSameRank)
	assert.ErrorIs(t, ValidPlay(g, ids[0], []card.Card{c(card.King, card.Hearts)}), ErrInvalidPlay, "not in hand")
	assert.ErrorIs(t, ValidPlay(g, ids[0], []card.Card{c(card.Five, card.Clubs)}), ErrInvalidPlay, "no match")
	assert.NoError(t, ValidPlay(g, ids[0], []card.Card{c(card.Four, card.Clubs), c(card.Four, card.Spades)}))
}

func TestOnlyFirstCardMustMatch(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Nine, card.Hearts), c(card.Nine, card.Clubs), c(card.Three, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	assert.ErrorIs(t, ValidPlay(g, ids[0], []card.Card{c(card.Nine, card.Clubs), c(card.Nine, card.Hearts)}), ErrInvalidPlay)
	ng, _, err := ApplyPlay(g, ids[0], []card.Card{c(card.Nine, card.Hearts), c(card.Nine, card.Clubs)})
	require.NoError(t, err)
	top, _ := ng.CurrentCard()
	assert.Equal(t, c(card.Nine, card.Clubs), top)
}

func TestForcedPlay(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Four, card.Clubs), c(card.King, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	require.True(t, HasValidPlay(g, ids[0]))
	_, _, err := ApplyDraw(g, ids[0])
	assert.ErrorIs(t, err, ErrMustPlayInstead)
}

func TestDrawEndsTurnEvenWhenDrawnCardPlays(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.King, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))
	// Next card off the draw pile matches the card in play.
	g.Deck.Draw = append([]card.Card{c(card.Five, card.Hearts)}, removeCard(g.Deck.Draw, c(card.Five, card.Hearts))...)

	require.False(t, HasValidPlay(g, ids[0]))
	ng, _, err := ApplyDraw(g, ids[0])
	require.NoError(t, err)
	assert.Contains(t, ng.Players[0].Hand, c(card.Five, card.Hearts))
	assert.True(t, ng.Players[0].HasDrawnThisTurn)
	assert.Equal(t, 1, ng.Current, "turn passes after a draw")
	assert.Equal(t, card.DeckSize, ng.CardCount())
}

func TestDrawReshufflesKeepingCardInPlay(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.King, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))
	// Move the whole draw pile under the card in play.
	top, _ := g.CurrentCard()
	g.Deck.Discard = append(append([]card.Card{}, g.Deck.Draw...), top)
	n := len(g.Deck.Discard)
	g.Deck.Draw = nil

	ng, effects, err := ApplyDraw(g, ids[0])
	require.NoError(t, err)
	assert.Equal(t, n-2, ng.Deck.Len(), "n-1 reshuffled, one drawn")
	newTop, _ := ng.CurrentCard()
	assert.Equal(t, top, newTop)
	assert.Equal(t, EffectReshuffle, effects[0].Kind)
	assert.Equal(t, card.DeckSize, ng.CardCount())
}

func TestReshuffleReportsCardsMoved(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.King, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))
	// Leave two cards to draw and bury the rest under the card in play.
	top, _ := g.CurrentCard()
	rest := append([]card.Card{}, g.Deck.Draw...)
	g.Deck.Draw = append([]card.Card{}, rest[:2]...)
	g.Deck.Discard = append(append([]card.Card{}, rest[2:]...), top)
	g.Pickups = Pickups{Count: 4, Type: PickupTwos}
	require.False(t, HasValidPlay(g, ids[0]))

	ng, effects, err := ApplyDraw(g, ids[0])
	require.NoError(t, err)
	require.NotEmpty(t, effects)
	assert.Equal(t, Effect{Kind: EffectReshuffle, Magnitude: len(rest) - 2}, effects[0])
	assert.Len(t, ng.Players[0].Hand, 5)
	assert.Equal(t, card.DeckSize, ng.CardCount())
}

func TestDeckExhaustedForgivesRemainder(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Three, card.Spades)},
		{c(card.Six, card.Clubs)},
	}, c(card.Two, card.Hearts))
	// Park all but two spare cards in seat 1's hand.
	spare := g.Deck.Draw[:2]
	g.Players[1].Hand = append(g.Players[1].Hand, g.Deck.Draw[2:]...)
	g.Deck.Draw = append([]card.Card{}, spare...)
	for _, sc := range spare {
		require.NotEqual(t, card.Two, sc.Rank)
	}
	g.Pickups = Pickups{Count: 6, Type: PickupTwos}
	require.False(t, HasValidPlay(g, ids[0]))

	ng, effects, err := ApplyDraw(g, ids[0])
	require.NoError(t, err, "exhaustion degrades instead of failing")
	assert.Len(t, ng.Players[0].Hand, 3)
	assert.Equal(t, Pickups{}, ng.Pickups)
	assert.Contains(t, effects, Effect{Kind: EffectDeckExhausted, Magnitude: 4})
	assert.Equal(t, 1, ng.Current)
	assert.Equal(t, card.DeckSize, ng.CardCount())
}

// Scenario D: emptying the hand appends to winners; play continues while two remain.
func TestWinnerAppendedAndGameContinues(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	g = rig(t, g, [][]card.Card{
		{c(card.Five, card.Hearts)},
		{c(card.Six, card.Clubs)},
		{c(card.Eight, card.Clubs)},
	}, c(card.Four, card.Hearts))

	g, effects, err := ApplyPlay(g, ids[0], []card.Card{c(card.Five, card.Hearts)})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[0]}, g.Winners)
	assert.Equal(t, StatusPlaying, g.Status)
	assert.Equal(t, 1, g.Current)
	assert.Equal(t, EffectPlayerWon, effects[0].Kind)

	// Seat 1 cannot follow and draws; the winner is never given a turn again.
	g.Deck.Draw = append([]card.Card{c(card.King, card.Spades)}, removeCard(g.Deck.Draw, c(card.King, card.Spades))...)
	if !HasValidPlay(g, ids[1]) {
		g, _, err = ApplyDraw(g, ids[1])
		require.NoError(t, err)
		assert.Equal(t, 2, g.Current)
	}
	for i := 0; i < 4; i++ {
		assert.NotEqual(t, 0, g.nextActive(i%3))
	}
}

func TestGameFinishesWhenOneActiveLeft(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Ace, card.Hearts)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Clubs))

	g, effects, err := ApplyPlay(g, ids[0], []card.Card{c(card.Ace, card.Hearts)})
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, g.Status)
	assert.Equal(t, []uuid.UUID{ids[0]}, g.Winners)
	assert.Equal(t, []uuid.UUID{ids[0], ids[1]}, g.Standings())
	assert.Equal(t, NominationNone, g.Nomination.State, "going out on an ace needs no suit")
	var finished bool
	for _, e := range effects {
		assert.NotEqual(t, EffectNominationNeeded, e.Kind)
		if e.Kind == EffectGameFinished {
			finished = true
		}
	}
	assert.True(t, finished)

	_, _, err = ApplyDraw(g, ids[1])
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestWinnersAppendOnlyNoDuplicates(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	g.Winners = []uuid.UUID{ids[2]}
	effects := g.Clone().markWinner(ids[2])
	assert.Empty(t, effects)
}

func TestFailedCommandLeavesStateUntouched(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	before := g.Clone()
	_, _, err := ApplyPlay(g, ids[1], g.Players[1].Hand[:1])
	require.Error(t, err)
	assert.Equal(t, before.Players, g.Players)
	assert.Equal(t, before.Deck.Draw, g.Deck.Draw)
	assert.Equal(t, before.Current, g.Current)
	assert.Equal(t, len(before.Log), len(g.Log))
}

func TestPendingEffectsNeverCombine(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Seven, card.Hearts), c(card.Two, card.Hearts)},
		{c(card.Seven, card.Clubs), c(card.Three, card.Clubs)},
	}, c(card.Four, card.Hearts))

	g, _, err := ApplyPlay(g, ids[0], []card.Card{c(card.Two, card.Hearts)})
	require.NoError(t, err)
	_, _, err = ApplyPlay(g, ids[1], []card.Card{c(card.Seven, card.Clubs)})
	assert.ErrorIs(t, err, ErrInvalidPlay, "a 7 cannot answer twos")
	assert.True(t, g.Pickups.Count == 0 || g.Skips == 0)
}

func TestPlayableSetsCoverEveryLegalLead(t *testing.T) {
	g, _ := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.Four, card.Clubs), c(card.Four, card.Spades), c(card.Nine, card.Hearts), c(card.King, card.Clubs)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	sets := PlayableSets(g, g.Players[0].Hand)
	// 4♣, 4♠, 4♣4♠, 4♠4♣, 9♥
	assert.Len(t, sets, 5)
	for _, s := range sets {
		assert.Nil(t, g.LegalCards(s), "%v should be legal", s)
	}
}

func TestPlayIndices(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	g = rig(t, g, [][]card.Card{
		{c(card.King, card.Clubs), c(card.Four, card.Clubs)},
		{c(card.Six, card.Clubs)},
	}, c(card.Four, card.Hearts))

	_, _, err := PlayIndices(g, ids[0], []int{5})
	assert.ErrorIs(t, err, ErrInvalidPlay)
	_, _, err = PlayIndices(g, ids[0], []int{1, 1})
	assert.ErrorIs(t, err, ErrInvalidPlay)
	ng, _, err := PlayIndices(g, ids[0], []int{1})
	require.NoError(t, err)
	assert.Equal(t, []card.Card{c(card.King, card.Clubs)}, ng.Players[0].Hand)
}

func TestViewHidesOpponentHands(t *testing.T) {
	g, ids := setupTestGame(t, 3)
	v := g.ViewFor(ids[1])
	require.Len(t, v.Players, 3)
	assert.Nil(t, v.Players[0].Hand)
	assert.Equal(t, g.Players[1].Hand, v.Players[1].Hand)
	assert.Equal(t, len(g.Players[0].Hand), v.Players[0].HandSize)
	assert.Equal(t, ids[0], v.CurrentPlayerID)

	spectator := g.ViewFor(uuid.Nil)
	for _, p := range spectator.Players {
		assert.Nil(t, p.Hand)
	}
}

func TestSetConnected(t *testing.T) {
	g, ids := setupTestGame(t, 2)
	ng, err := SetConnected(g, ids[1], false)
	require.NoError(t, err)
	assert.False(t, ng.Players[1].Connected)
	assert.True(t, g.Players[1].Connected)
	assert.Equal(t, g.Players[1].Hand, ng.Players[1].Hand)
	assert.Equal(t, g.Current, ng.Current)

	_, err = SetConnected(g, uuid.New(), true)
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func removeCard(cards []card.Card, target card.Card) []card.Card {
	out := make([]card.Card, 0, len(cards))
	for _, x := range cards {
		if x != target {
			out = append(out, x)
		}
	}
	return out
}
