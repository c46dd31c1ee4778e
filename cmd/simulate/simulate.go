package main

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/ai"
	"github.com/jason-s-yu/rachel/internal/game"
)

// maxSteps bounds a single game; a healthy game finishes far sooner.
const maxSteps = 50000

// seatStats accumulates results for one personality across games.
type seatStats struct {
	Type     ai.Type
	Games    int
	Wins     int
	Losses   int
	PlaceSum int
}

func (s seatStats) AvgPlace() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.PlaceSum) / float64(s.Games)
}

// gameResult lists seat indices in finishing order.
type gameResult struct {
	Places []int
	Turns  int
}

// playGame runs one AI-only game to completion with no thinking delay.
func playGame(seats []ai.Type, handSize int, seed int64) (gameResult, error) {
	g := game.New(game.Options{MaxPlayers: len(seats), HandSize: handSize, Seed: seed})
	bots := make(map[uuid.UUID]*ai.Player, len(seats))
	seatOf := make(map[uuid.UUID]int, len(seats))
	for i, t := range seats {
		id := uuid.New()
		var err error
		g, err = game.AddPlayer(g, id, string(t), true)
		if err != nil {
			return gameResult{}, err
		}
		bots[id] = ai.NewPlayer(id, ai.Preset(t), seed*31+int64(i)+1)
		seatOf[id] = i
	}

	g, _, err := game.Start(g, g.HostID)
	if err != nil {
		return gameResult{}, err
	}
	for step := 0; g.Status == game.StatusPlaying; step++ {
		if step >= maxSteps {
			return gameResult{}, fmt.Errorf("game %d did not finish in %d steps", seed, maxSteps)
		}
		cur := g.CurrentPlayer()
		d, err := bots[cur.ID].Decide(g)
		if err != nil {
			return gameResult{}, err
		}
		if g, _, err = ai.Apply(g, cur.ID, d); err != nil {
			return gameResult{}, fmt.Errorf("seat %d (%s): %w", seatOf[cur.ID], seats[seatOf[cur.ID]], err)
		}
	}

	res := gameResult{Turns: g.Turn}
	for _, id := range g.Standings() {
		res.Places = append(res.Places, seatOf[id])
	}
	return res, nil
}

// simulate plays n games and aggregates results per personality, sorted by wins.
func simulate(seats []ai.Type, n, handSize int, seed int64, progress func()) ([]seatStats, float64, error) {
	stats := make([]seatStats, len(seats))
	for i, t := range seats {
		stats[i].Type = t
	}
	turns := 0
	for i := 0; i < n; i++ {
		// Rotate seating so no personality always moves first.
		k := i % len(seats)
		order := append(append([]ai.Type{}, seats[k:]...), seats[:k]...)

		res, err := playGame(order, handSize, seed+int64(i))
		if err != nil {
			return nil, 0, err
		}
		turns += res.Turns
		for place, seat := range res.Places {
			st := &stats[(seat+k)%len(seats)]
			st.Games++
			st.PlaceSum += place + 1
			if place == 0 {
				st.Wins++
			}
			if place == len(res.Places)-1 {
				st.Losses++
			}
		}
		if progress != nil {
			progress()
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Wins > stats[j].Wins })
	avgTurns := 0.0
	if n > 0 {
		avgTurns = float64(turns) / float64(n)
	}
	return stats, avgTurns, nil
}
