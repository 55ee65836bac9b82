// Package postgres persists room aggregates as one JSONB row per code, for
// deployments where several server processes poll the same database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS room_states (
	code       TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Store struct {
	pool *pgxpool.Pool
}

// New connects, verifies the connection and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure room_states table: %w", err)
	}

	log.Println("[postgres.New] Connected and room_states table ready")
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Get(ctx context.Context, code string) (*internal.GameState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM room_states WHERE code = $1`, code).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read room %s: %w", code, err)
	}

	var state internal.GameState
	if err := state.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", code, err)
	}
	return &state, nil
}

func (s *Store) Put(ctx context.Context, code string, state *internal.GameState) error {
	raw, err := state.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode room %s: %w", code, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO room_states (code, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (code) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		code, raw)
	if err != nil {
		return fmt.Errorf("failed to write room %s: %w", code, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM room_states WHERE code = $1`, code); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", code, err)
	}
	return nil
}

func (s *Store) Codes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT code FROM room_states`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
