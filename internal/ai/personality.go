// internal/ai/personality.go
package ai

import (
	"fmt"
	"math/rand"
	"strings"
)

// Type names a personality preset.
type Type string

const (
	Aggressive   Type = "aggressive"
	Conservative Type = "conservative"
	Balanced     Type = "balanced"
	Chaotic      Type = "chaotic"
	Calculating  Type = "calculating"
	Adaptive     Type = "adaptive"
)

// Types lists every preset in a stable order.
var Types = []Type{Aggressive, Conservative, Balanced, Chaotic, Calculating, Adaptive}

// ParseType accepts a preset name case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown personality %q", s)
}

// Traits are the behavioral knobs of a personality, each in [0,1].
type Traits struct {
	Aggression    float64 `json:"aggression"`
	Patience      float64 `json:"patience"`
	RiskTolerance float64 `json:"riskTolerance"`
	CardCounting  float64 `json:"cardCounting"`
	Bluffing      float64 `json:"bluffing"`
	Adaptability  float64 `json:"adaptability"`
	SpecialFocus  float64 `json:"specialFocus"`
}

// Weights scale each scoring component of a candidate play.
type Weights struct {
	CardValue      float64 `json:"cardValue"`
	HandSize       float64 `json:"handSize"`
	OpponentImpact float64 `json:"opponentImpact"`
	SelfProtection float64 `json:"selfProtection"`
	SpecialEffects float64 `json:"specialEffects"`
	SuitControl    float64 `json:"suitControl"`
}

// Quirks are small habits layered over the weighted score.
type Quirks struct {
	// HoardsAces keeps the last Ace unless it wins the game or nothing else is playable.
	HoardsAces bool `json:"hoardsAces"`
	// DumpsPairs prefers playing every card of a rank at once.
	DumpsPairs bool `json:"dumpsPairs"`
	// Chaotic widens the random jitter regardless of adaptability.
	Chaotic bool `json:"chaotic"`
}

// Personality is the full decision profile attached to one AI seat.
type Personality struct {
	Type    Type    `json:"type"`
	Name    string  `json:"name"`
	Traits  Traits  `json:"traits"`
	Weights Weights `json:"weights"`
	Quirks  Quirks  `json:"quirks"`
	// Difficulty in [0,1] sharpens play: higher values mean less jitter and more card counting.
	Difficulty float64 `json:"difficulty"`
}

// Preset returns the stock profile for t. Unknown types fall back to Balanced.
func Preset(t Type) Personality {
	switch t {
	case Aggressive:
		return Personality{
			Type: Aggressive, Name: "Blaze",
			Traits: Traits{Aggression: 0.9, Patience: 0.2, RiskTolerance: 0.8, CardCounting: 0.3,
				Bluffing: 0.6, Adaptability: 0.4, SpecialFocus: 0.9},
			Weights: Weights{CardValue: 0.6, HandSize: 1.0, OpponentImpact: 1.6, SelfProtection: 0.4,
				SpecialEffects: 1.4, SuitControl: 0.6},
			Quirks:     Quirks{DumpsPairs: true},
			Difficulty: 0.6,
		}
	case Conservative:
		return Personality{
			Type: Conservative, Name: "Sage",
			Traits: Traits{Aggression: 0.2, Patience: 0.9, RiskTolerance: 0.2, CardCounting: 0.5,
				Bluffing: 0.1, Adaptability: 0.6, SpecialFocus: 0.3},
			Weights: Weights{CardValue: 1.0, HandSize: 0.8, OpponentImpact: 0.5, SelfProtection: 1.5,
				SpecialEffects: 0.5, SuitControl: 1.2},
			Quirks:     Quirks{HoardsAces: true},
			Difficulty: 0.6,
		}
	case Chaotic:
		return Personality{
			Type: Chaotic, Name: "Jinx",
			Traits: Traits{Aggression: 0.6, Patience: 0.1, RiskTolerance: 0.9, CardCounting: 0.1,
				Bluffing: 0.9, Adaptability: 0.1, SpecialFocus: 0.6},
			Weights: Weights{CardValue: 0.7, HandSize: 0.9, OpponentImpact: 1.0, SelfProtection: 0.3,
				SpecialEffects: 1.0, SuitControl: 0.4},
			Quirks:     Quirks{Chaotic: true},
			Difficulty: 0.3,
		}
	case Calculating:
		return Personality{
			Type: Calculating, Name: "Cipher",
			Traits: Traits{Aggression: 0.5, Patience: 0.7, RiskTolerance: 0.4, CardCounting: 1.0,
				Bluffing: 0.3, Adaptability: 0.8, SpecialFocus: 0.5},
			Weights: Weights{CardValue: 1.1, HandSize: 1.0, OpponentImpact: 1.1, SelfProtection: 1.0,
				SpecialEffects: 0.8, SuitControl: 1.3},
			Quirks:     Quirks{HoardsAces: true},
			Difficulty: 0.9,
		}
	case Adaptive:
		return Personality{
			Type: Adaptive, Name: "Echo",
			Traits: Traits{Aggression: 0.5, Patience: 0.5, RiskTolerance: 0.5, CardCounting: 0.7,
				Bluffing: 0.4, Adaptability: 1.0, SpecialFocus: 0.5},
			Weights: Weights{CardValue: 1.0, HandSize: 1.0, OpponentImpact: 1.0, SelfProtection: 1.0,
				SpecialEffects: 1.0, SuitControl: 1.0},
			Difficulty: 0.8,
		}
	}
	return Personality{
		Type: Balanced, Name: "Ada",
		Traits: Traits{Aggression: 0.5, Patience: 0.5, RiskTolerance: 0.5, CardCounting: 0.5,
			Bluffing: 0.5, Adaptability: 0.5, SpecialFocus: 0.5},
		Weights: Weights{CardValue: 1.0, HandSize: 1.0, OpponentImpact: 1.0, SelfProtection: 1.0,
			SpecialEffects: 1.0, SuitControl: 1.0},
		Difficulty: 0.5,
	}
}

// RandomPreset picks one of the stock profiles.
func RandomPreset(rng *rand.Rand) Personality {
	return Preset(Types[rng.Intn(len(Types))])
}

// Normalize clamps every trait and the difficulty into [0,1] and floors weights at zero.
func (p Personality) Normalize() Personality {
	t := &p.Traits
	for _, f := range []*float64{&t.Aggression, &t.Patience, &t.RiskTolerance, &t.CardCounting,
		&t.Bluffing, &t.Adaptability, &t.SpecialFocus, &p.Difficulty} {
		*f = clamp01(*f)
	}
	w := &p.Weights
	for _, f := range []*float64{&w.CardValue, &w.HandSize, &w.OpponentImpact, &w.SelfProtection,
		&w.SpecialEffects, &w.SuitControl} {
		if *f < 0 {
			*f = 0
		}
	}
	if p.Type == "" {
		p.Type = Balanced
	}
	return p
}

// jitter is the half-width of the uniform noise added to each candidate's score.
func (p Personality) jitter() float64 {
	if p.Quirks.Chaotic {
		return 0.6
	}
	return 0.25 * (1 - p.Traits.Adaptability) * (1 - 0.5*p.Difficulty)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
