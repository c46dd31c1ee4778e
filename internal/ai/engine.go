// internal/ai/engine.go
package ai

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/jason-s-yu/rachel/internal/game"
)

// DecisionKind is the command an AI seat will issue.
type DecisionKind string

const (
	DecidePlay     DecisionKind = "play"
	DecideDraw     DecisionKind = "draw"
	DecideNominate DecisionKind = "nominate"
)

// Decision is one chosen action together with the score that won it.
type Decision struct {
	Kind  DecisionKind `json:"kind"`
	Cards []card.Card  `json:"cards,omitempty"`
	Suit  card.Suit    `json:"suit,omitempty"`
	Score float64      `json:"score"`
	// Options is the number of legal plays that were weighed.
	Options int `json:"options"`
}

// Context carries short-term state between decisions of the same seat.
type Context struct {
	LastMoves   []Decision `json:"lastMoves"`
	ThreatLevel float64    `json:"threatLevel"`
	// OpportunityScore is how far the last chosen play beat the runner-up.
	OpportunityScore float64 `json:"opportunityScore"`
}

const maxLastMoves = 5

// Player is the decision state of one AI seat. It is not safe for concurrent use; the session
// actor owning the seat is its only caller.
type Player struct {
	ID          uuid.UUID
	Personality Personality
	Memory      *Memory
	Context     Context

	rng *rand.Rand
}

// NewPlayer builds an AI seat. A zero seed is replaced with a time-based one.
func NewPlayer(id uuid.UUID, p Personality, seed int64) *Player {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Player{
		ID:          id,
		Personality: p.Normalize(),
		Memory:      NewMemory(),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// candidate is one legal play with its score broken down by component.
type candidate struct {
	cards []card.Card
	parts components
	score float64
}

type components struct {
	cardValue      float64
	handSize       float64
	opponentImpact float64
	selfProtection float64
	special        float64
	suitControl    float64
}

// Decide picks the seat's next command for g. It returns game.ErrNotYourTurn when the seat
// does not hold the turn, so a stale callback can simply drop the result.
func (a *Player) Decide(g *game.Game) (Decision, error) {
	cur := g.CurrentPlayer()
	if g.Status != game.StatusPlaying || cur == nil || cur.ID != a.ID {
		return Decision{}, game.ErrNotYourTurn
	}
	a.Memory.Sync(g)
	a.Context.ThreatLevel = a.threatLevel(g)

	if g.Nomination.State == game.NominationPending {
		d := Decision{Kind: DecideNominate, Suit: a.ChooseSuit(g)}
		a.remember(d)
		return d, nil
	}

	sets := game.PlayableSets(g, cur.Hand)
	if len(sets) == 0 {
		d := Decision{Kind: DecideDraw}
		a.Context.OpportunityScore = 0
		a.remember(d)
		return d, nil
	}

	cands := make([]candidate, 0, len(sets))
	for _, s := range sets {
		c := candidate{cards: s, parts: a.evaluate(g, cur, s)}
		c.score = a.combine(c.parts, a.Context.ThreatLevel) - a.repetition(s[0])
		if len(s) == len(cur.Hand) {
			// Going out beats everything.
			c.score += 100
		}
		if j := a.Personality.jitter(); j > 0 {
			c.score += (a.rng.Float64()*2 - 1) * j
		}
		cands = append(cands, c)
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	best := cands[0]
	a.Context.OpportunityScore = 1
	if len(cands) > 1 {
		a.Context.OpportunityScore = clamp01(best.score - cands[1].score)
	}
	d := Decision{Kind: DecidePlay, Cards: best.cards, Score: best.score, Options: len(cands)}
	a.remember(d)
	return d, nil
}

func (a *Player) remember(d Decision) {
	a.Context.LastMoves = append(a.Context.LastMoves, d)
	if len(a.Context.LastMoves) > maxLastMoves {
		a.Context.LastMoves = a.Context.LastMoves[1:]
	}
}

// repetition penalizes leading the same rank as recent plays, so bluffing seats stay hard to read.
func (a *Player) repetition(lead card.Card) float64 {
	repeats := 0
	for _, d := range a.Context.LastMoves {
		if d.Kind == DecidePlay && len(d.Cards) > 0 && d.Cards[0].Rank == lead.Rank {
			repeats++
		}
	}
	return 0.2 * float64(repeats) * a.Personality.Traits.Bluffing
}

func (a *Player) combine(p components, threat float64) float64 {
	w := a.Personality.Weights
	t := a.Personality.Traits
	impact := w.OpponentImpact * (0.5 + t.Aggression)
	// Adaptive seats lean on attack when someone is close to going out.
	impact *= 1 + t.Adaptability*threat
	return w.CardValue*p.cardValue +
		w.HandSize*p.handSize +
		impact*p.opponentImpact +
		w.SelfProtection*p.selfProtection +
		w.SpecialEffects*p.special +
		w.SuitControl*p.suitControl
}

func (a *Player) evaluate(g *game.Game, self *game.Player, play []card.Card) components {
	t := a.Personality.Traits
	q := a.Personality.Quirks
	k := len(play)
	lead, last := play[0], play[len(play)-1]
	rest := remaining(self.Hand, play)

	next, prev := neighbours(g, self.ID)
	var p components

	points := 0.0
	for _, c := range play {
		points += cardPoints(c)
	}
	p.cardValue = points / float64(k) / 15
	if counting := t.CardCounting * a.Personality.Difficulty; counting > 0 {
		// Few unseen cards of the last rank means opponents are unlikely to match it by rank.
		others := a.Memory.Unseen(last.Rank) - countRank(rest, last.Rank)
		p.cardValue += counting * (1 - float64(min(max(others, 0), 3))/3) * 0.5
	}

	p.handSize = float64(k) / float64(len(self.Hand))
	if q.DumpsPairs && k > 1 {
		p.handSize += 0.2 * float64(k-1)
	}

	switch lead.Rank {
	case card.Two:
		p.opponentImpact = clamp01(float64(2*k)/6) * (0.5 + a.pressure(next))
	case card.Jack:
		black := 0
		for _, c := range play {
			if c.IsBlackJack() {
				black++
			}
		}
		p.opponentImpact = clamp01(float64(5*black)/10) * (0.5 + a.pressure(next))
	case card.Seven:
		p.opponentImpact = 0.2 + a.pressure(next)*clamp01(float64(k)/2)
	case card.Queen:
		if k%2 == 1 {
			p.opponentImpact = a.pressure(next) - a.pressure(prev)
		}
	case card.Ace:
		p.opponentImpact = 0.2
	}

	if g.Pickups.Count > 0 {
		// Any legal play under a penalty either passes it on or cancels it.
		p.selfProtection += clamp01(float64(g.Pickups.Count) / 5)
	}
	if len(rest) > 0 {
		spent := 0
		for _, c := range play {
			if isDefensive(c) {
				spent++
			}
		}
		// Defenses are worth more at a table that keeps attacking.
		attacks := float64(min(a.Memory.Attacks(self.ID), 5))
		p.selfProtection -= 0.3 * float64(spent) * (1 - t.RiskTolerance) * (1 + 0.1*attacks)
		if q.HoardsAces && lead.Rank == card.Ace && countRank(rest, card.Ace) == 0 {
			p.selfProtection -= 1
		}
	}

	if lead.IsSpecial() {
		p.special = t.SpecialFocus * (0.5 + 0.1*float64(k))
		if isAttack(lead) && len(rest) > 0 && g.Pickups.Count == 0 {
			// Bluffers sit on their attacks while nobody is close to going out.
			p.special -= 0.8 * t.Bluffing * (1 - a.Context.ThreatLevel)
		}
	}

	if len(rest) == 0 || last.Rank == card.Ace {
		p.suitControl = 1
	} else {
		follow := 0
		for _, c := range rest {
			if c.Suit == last.Suit || c.Rank == last.Rank || c.Rank == card.Ace {
				follow++
			}
		}
		p.suitControl = float64(follow) / float64(len(rest))
		if next != nil {
			p.suitControl += t.CardCounting * a.Memory.LikelyVoid(next.ID, last.Suit) * 0.5
		}
	}
	return p
}

// ChooseSuit picks the suit to nominate after an Ace: the suit best represented in the
// remaining hand, nudged toward suits the next player seems to lack.
func (a *Player) ChooseSuit(g *game.Game) card.Suit {
	self, _ := g.Player(a.ID)
	next, _ := neighbours(g, a.ID)
	t := a.Personality.Traits

	scores := make(map[card.Suit]float64, len(card.Suits))
	if self != nil {
		for _, c := range self.Hand {
			if c.Rank == card.Ace {
				continue
			}
			s := 1 + 0.1*float64(c.Rank)/float64(card.Ace)
			if c.IsSpecial() {
				s += 0.3 * t.SpecialFocus
			}
			scores[c.Suit] += s
		}
	}
	if next != nil {
		for _, s := range card.Suits {
			scores[s] += 1.5 * t.CardCounting * a.Memory.LikelyVoid(next.ID, s)
		}
	}

	best, bestScore := card.Suits[0], -1.0
	j := a.Personality.jitter()
	for _, s := range card.Suits {
		v := scores[s]
		if j > 0 {
			v += (a.rng.Float64()*2 - 1) * j
		}
		if v > bestScore {
			best, bestScore = s, v
		}
	}
	return best
}

// ThinkTime is how long the seat pretends to deliberate before acting. Scale multiplies the
// result; zero disables the delay.
func (a *Player) ThinkTime(options int, scale float64) time.Duration {
	if scale <= 0 {
		return 0
	}
	p := a.Personality
	var ms float64
	if p.Quirks.Chaotic {
		ms = 200 + a.rng.Float64()*1300
	} else {
		ms = 800 * (0.6 + 0.8*p.Traits.Patience)
		ms += 80 * float64(min(options, 10)) * p.Traits.CardCounting
		ms += a.rng.Float64() * 200
		// Clear-cut choices come quicker.
		ms *= 1 - 0.4*a.Context.OpportunityScore
	}
	return time.Duration(ms * scale * float64(time.Millisecond))
}

func (a *Player) threatLevel(g *game.Game) float64 {
	worst := 0.0
	for _, p := range g.ActivePlayers() {
		if p.ID == a.ID {
			continue
		}
		worst = max(worst, a.pressure(p))
	}
	return worst
}

// threat grows as an opponent's hand shrinks: one card left is 1, seven or more is 0.
func threat(p *game.Player) float64 {
	if p == nil {
		return 0
	}
	return clamp01(1 - float64(len(p.Hand)-1)/6)
}

// pressure is how dangerous an opponent looks: hand size first, then memory. Frequent special
// plays raise it and repeated draws lower it. Card counting decides how much memory counts.
func (a *Player) pressure(p *game.Player) float64 {
	if p == nil {
		return 0
	}
	specials := float64(min(a.Memory.SpecialsBy(p.ID), 4))
	draws := float64(min(a.Memory.Draws[p.ID], 5))
	return clamp01(threat(p) + a.Personality.Traits.CardCounting*(0.05*specials-0.03*draws))
}

// neighbours returns the active players after and before id in the current direction.
func neighbours(g *game.Game, id uuid.UUID) (next, prev *game.Player) {
	_, idx := g.Player(id)
	n := len(g.Players)
	if idx < 0 || n == 0 {
		return nil, nil
	}
	step := 1
	if g.Direction == game.CounterClockwise {
		step = -1
	}
	find := func(dir int) *game.Player {
		for i := 1; i < n; i++ {
			p := g.Players[((idx+dir*i)%n+n)%n]
			if !g.HasWon(p.ID) {
				return p
			}
		}
		return nil
	}
	return find(step), find(-step)
}

func cardPoints(c card.Card) float64 {
	switch {
	case c.Rank == card.Ace:
		return 15
	case c.Rank >= card.Jack:
		return 10
	}
	return float64(c.Rank)
}

func isDefensive(c card.Card) bool {
	return c.Rank == card.Two || c.Rank == card.Ace || c.IsRedJack()
}

// isAttack reports whether c hurts the next player.
func isAttack(c card.Card) bool {
	return c.Rank == card.Two || c.Rank == card.Seven || c.IsBlackJack()
}

func countRank(hand []card.Card, r card.Rank) int {
	n := 0
	for _, c := range hand {
		if c.Rank == r {
			n++
		}
	}
	return n
}

// remaining returns hand minus one copy of each played card.
func remaining(hand, play []card.Card) []card.Card {
	used := make(map[card.Card]int, len(play))
	for _, c := range play {
		used[c]++
	}
	out := make([]card.Card, 0, len(hand))
	for _, c := range hand {
		if used[c] > 0 {
			used[c]--
			continue
		}
		out = append(out, c)
	}
	return out
}

// Apply runs the transition a decision names for playerID.
func Apply(g *game.Game, playerID uuid.UUID, d Decision) (*game.Game, []game.Effect, error) {
	switch d.Kind {
	case DecidePlay:
		return game.ApplyPlay(g, playerID, d.Cards)
	case DecideNominate:
		return game.NominateSuit(g, playerID, d.Suit)
	default:
		return game.ApplyDraw(g, playerID)
	}
}
