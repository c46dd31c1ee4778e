package card

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHasEveryCardOnce(t *testing.T) {
	d := NewSeededDeck(42)
	require.Len(t, d.Draw, DeckSize)
	seen := make(map[Card]bool)
	for _, c := range d.Draw {
		assert.True(t, c.Valid(), "card %v should be valid", c)
		assert.False(t, seen[c], "card %v dealt twice", c)
		seen[c] = true
	}
	assert.Empty(t, d.Discard)
}

func TestSeededDecksAreReproducible(t *testing.T) {
	a := NewSeededDeck(7)
	b := NewSeededDeck(7)
	assert.Equal(t, a.Draw, b.Draw)
}

func TestTakeRemovesFromTop(t *testing.T) {
	d := NewSeededDeck(1)
	first := d.Draw[0]
	second := d.Draw[1]

	got, moved, err := d.Take(2)
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Equal(t, []Card{first, second}, got)
	assert.Equal(t, DeckSize-2, d.Len())
}

func TestTakeReshufflesKeepingCardInPlay(t *testing.T) {
	d := NewStackedDeck(nil, 3)
	top := New(Nine, Clubs)
	d.Put(New(Two, Hearts), New(Three, Hearts), New(Four, Hearts), top)

	n := d.Reshuffle()
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, d.Len(), "draw pile gets every discard but the card in play")
	got, ok := d.Top()
	require.True(t, ok)
	assert.Equal(t, top, got)
	assert.Len(t, d.Discard, 1)
}

func TestTakeReshufflesWhenShort(t *testing.T) {
	d := NewStackedDeck([]Card{New(Five, Spades)}, 3)
	d.Put(New(Two, Hearts), New(Three, Hearts), New(King, Diamonds))

	got, moved, err := d.Take(3)
	require.NoError(t, err)
	assert.Equal(t, 2, moved, "both discards under the king go back")
	assert.Len(t, got, 3)
	assert.Equal(t, 0, d.Len())
	top, _ := d.Top()
	assert.Equal(t, New(King, Diamonds), top)
}

func TestTakeExhaustedReturnsWhatExists(t *testing.T) {
	d := NewStackedDeck([]Card{New(Five, Spades)}, 3)
	d.Put(New(Two, Hearts), New(King, Diamonds))

	got, _, err := d.Take(5)
	require.ErrorIs(t, err, ErrDeckExhausted)
	assert.ElementsMatch(t, []Card{New(Five, Spades), New(Two, Hearts)}, got)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 1, d.Count(), "only the card in play is left")
}

func TestCloneIsIndependent(t *testing.T) {
	d := NewSeededDeck(9)
	c := d.Clone()
	_, _, err := c.Take(10)
	require.NoError(t, err)
	assert.Equal(t, DeckSize, d.Len())
	assert.Equal(t, DeckSize-10, c.Len())
}

func TestRankText(t *testing.T) {
	tests := []struct {
		in   string
		want Rank
	}{
		{"queen", Queen},
		{"Q", Queen},
		{"7", Seven},
		{"10", Ten},
		{"a", Ace},
	}
	for _, tt := range tests {
		got, err := ParseRank(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseRank("11")
	assert.Error(t, err, "face cards are only accepted by name")
	_, err = ParseRank("1")
	assert.Error(t, err)

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"suit":"spades","rank":"jack"}`), &c))
	assert.True(t, c.IsBlackJack())
}

func TestSameRank(t *testing.T) {
	assert.False(t, SameRank(nil))
	assert.True(t, SameRank([]Card{New(Two, Hearts)}))
	assert.True(t, SameRank([]Card{New(Two, Hearts), New(Two, Clubs)}))
	assert.False(t, SameRank([]Card{New(Two, Hearts), New(Three, Hearts)}))
}
