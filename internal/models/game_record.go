// internal/models/game_record.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rachel/internal/card"
	"github.com/jason-s-yu/rachel/internal/game"
)

// GameActionRecord is one entry of a finished game's action log as it travels through the
// historian queue and lands in the game_actions table.
type GameActionRecord struct {
	GameID      uuid.UUID     `json:"game_id"`
	ActionIndex int           `json:"action_index"`
	Turn        int           `json:"turn"`
	ActorUserID uuid.UUID     `json:"actor_user_id"`
	ActionType  string        `json:"action_type"`
	Cards       []card.Card   `json:"cards,omitempty"`
	Effects     []game.Effect `json:"effects,omitempty"`
	Timestamp   int64         `json:"timestamp"`
}

// GamePlayerRecord is a seat of a finished game. Place is 1-based finishing position.
type GamePlayerRecord struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	IsAI  bool      `json:"is_ai"`
	Place int       `json:"place"`
}

// GameRecord is the immutable summary handed to the historian when a game finishes.
type GameRecord struct {
	GameID     uuid.UUID          `json:"game_id"`
	SessionID  uuid.UUID          `json:"session_id"`
	Players    []GamePlayerRecord `json:"players"`
	Standings  []uuid.UUID        `json:"standings"`
	Actions    []GameActionRecord `json:"actions"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
}

// NewGameRecord snapshots g's seats, finishing order and full action log.
func NewGameRecord(sessionID uuid.UUID, g *game.Game, startedAt, finishedAt time.Time) GameRecord {
	standings := g.Standings()
	place := make(map[uuid.UUID]int, len(standings))
	for i, id := range standings {
		place[id] = i + 1
	}

	rec := GameRecord{
		GameID:     g.ID,
		SessionID:  sessionID,
		Standings:  standings,
		StartedAt:  startedAt.UTC(),
		FinishedAt: finishedAt.UTC(),
	}
	for _, p := range g.Players {
		rec.Players = append(rec.Players, GamePlayerRecord{ID: p.ID, Name: p.Name, IsAI: p.IsAI, Place: place[p.ID]})
	}
	for _, a := range g.Log {
		rec.Actions = append(rec.Actions, GameActionRecord{
			GameID:      g.ID,
			ActionIndex: a.Index,
			Turn:        a.Turn,
			ActorUserID: a.Actor,
			ActionType:  string(a.Action),
			Cards:       a.Cards,
			Effects:     a.Effects,
			Timestamp:   a.At.UnixMilli(),
		})
	}
	return rec
}

// Winner is the first player to go out, or uuid.Nil for an unfinished record.
func (r GameRecord) Winner() uuid.UUID {
	if len(r.Standings) == 0 {
		return uuid.Nil
	}
	return r.Standings[0]
}
