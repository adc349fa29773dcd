package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"neontune/internal/player"
)

// Store persists player snapshots.
type Store interface {
	Load(ctx context.Context, id string) (player.State, error)
	Save(ctx context.Context, id string, state player.State) error
}

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func AutoMigrate(ctx context.Context, db DB) error {
	_, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS player_sessions (
          id          uuid PRIMARY KEY,
          state       JSONB NOT NULL,
          updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `)
	if err != nil {
		log.Printf("migrate player_sessions: %v", err)
		return err
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (player.State, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
		SELECT state
		FROM player_sessions
		WHERE id = $1
	`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return player.State{}, ErrSessionNotFound
	}
	if err != nil {
		return player.State{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var state player.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return player.State{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, state player.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO player_sessions (id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, updated_at = now()
	`, id, raw)
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}
