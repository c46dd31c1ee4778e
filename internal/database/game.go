// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/rachel/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          UUID PRIMARY KEY,
	session_id  UUID NOT NULL,
	status      TEXT NOT NULL DEFAULT 'completed',
	winner_id   UUID,
	start_time  TIMESTAMPTZ,
	end_time    TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS game_players (
	game_id   UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	player_id UUID NOT NULL,
	name      TEXT NOT NULL,
	is_ai     BOOLEAN NOT NULL,
	place     INT NOT NULL,
	PRIMARY KEY (game_id, player_id)
);
CREATE TABLE IF NOT EXISTS game_actions (
	game_id       UUID NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	action_index  INT NOT NULL,
	turn          INT NOT NULL,
	actor_user_id UUID NOT NULL,
	action_type   TEXT NOT NULL,
	cards         JSONB,
	effects       JSONB,
	created_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, action_index)
);
`

// Store persists finished games.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordGame stores a single finished game. It lets a server without a queue write directly.
func (s *Store) RecordGame(ctx context.Context, rec models.GameRecord) error {
	return s.SaveGames(ctx, []models.GameRecord{rec})
}

// SaveGames stores a batch of finished games in one transaction. Games already stored are
// skipped, so redelivered records are harmless.
func (s *Store) SaveGames(ctx context.Context, recs []models.GameRecord) error {
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertGameTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("game %s: %w", rec.GameID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx save games: %w", err)
	}
	return nil
}

func insertGameTx(ctx context.Context, tx pgx.Tx, rec models.GameRecord) error {
	insertGame := `
		INSERT INTO games (id, session_id, status, winner_id, start_time, end_time)
		VALUES ($1, $2, 'completed', $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insertGame, rec.GameID, rec.SessionID, rec.Winner(), rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	for _, p := range rec.Players {
		q := `
			INSERT INTO game_players (game_id, player_id, name, is_ai, place)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.Exec(ctx, q, rec.GameID, p.ID, p.Name, p.IsAI, p.Place); err != nil {
			return err
		}
	}

	batch := &pgx.Batch{}
	for _, a := range rec.Actions {
		cards, err := json.Marshal(a.Cards)
		if err != nil {
			return err
		}
		effects, err := json.Marshal(a.Effects)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO game_actions (game_id, action_index, turn, actor_user_id, action_type, cards, effects, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, to_timestamp($8::double precision / 1000))
		`, rec.GameID, a.ActionIndex, a.Turn, a.ActorUserID, a.ActionType, string(cards), string(effects), a.Timestamp)
	}
	return tx.SendBatch(ctx, batch).Close()
}
