package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        user_id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        email TEXT NOT NULL,
        points INT NOT NULL CHECK (points >= 0),
        rank TEXT NOT NULL,
        total_distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
        workouts_completed INT NOT NULL DEFAULT 0,
        streak_days INT NOT NULL DEFAULT 0,
        badges JSONB NOT NULL DEFAULT '[]',
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS outbox (
        event_id BIGSERIAL PRIMARY KEY,
        event_type TEXT NOT NULL,
        topic TEXT NOT NULL,
        partition_key TEXT NOT NULL,
        payload JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        claimed_at TIMESTAMPTZ,
        published_at TIMESTAMPTZ
    )`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox (event_id) WHERE published_at IS NULL`,
}

// EnsureSchema creates the users and outbox tables if missing. Intended
// for local development and integration tests.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
