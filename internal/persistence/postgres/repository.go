// Package postgres provides pgx-backed persistence for user snapshots and
// the engagement outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/engagement/internal/domain"
	"example.com/engagement/internal/events"
	"example.com/engagement/internal/observability"
)

// Repository implements domain.SessionStore and domain.UserCatalog over
// Postgres. Snapshot writes and their outbox events share one
// transaction, so a rank change can never be persisted without its
// notification event.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `user_id, name, email, points, rank, total_distance_km, workouts_completed, streak_days, badges, updated_at`

// Load implements domain.SessionStore. Absent users return nil.
func (r *Repository) Load(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE user_id=$1`

	row := r.pool.QueryRow(ctx, query, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Save upserts the snapshot and records the outbox events in a single
// transaction.
func (r *Repository) Save(ctx context.Context, user domain.User, envelopes ...events.Envelope) error {
	badges, err := json.Marshal(user.Badges)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	const upsert = `INSERT INTO users (` + userColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (user_id) DO UPDATE SET
            name=EXCLUDED.name, email=EXCLUDED.email, points=EXCLUDED.points,
            rank=EXCLUDED.rank, total_distance_km=EXCLUDED.total_distance_km,
            workouts_completed=EXCLUDED.workouts_completed,
            streak_days=EXCLUDED.streak_days, badges=EXCLUDED.badges,
            updated_at=EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, upsert,
		user.ID,
		user.Name,
		user.Email,
		user.Points,
		string(user.Rank),
		user.TotalDistanceKM,
		user.WorkoutsCompleted,
		user.StreakDays,
		badges,
		now,
	)
	if err != nil {
		return err
	}

	for _, envelope := range envelopes {
		if err = insertOutbox(ctx, tx, envelope); err != nil {
			return err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return err
	}
	observability.RecordSnapshotSaved(now)
	return nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, envelope events.Envelope) error {
	body, err := json.Marshal(envelope.Payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4)`

	_, err = tx.Exec(ctx, stmt, envelope.EventType, events.Topic, envelope.PartitionKey, body)
	return err
}

// Get implements domain.UserCatalog.
func (r *Repository) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.Load(ctx, userID)
}

// AllUsers returns the full population ordered by user id.
func (r *Repository) AllUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY user_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user      domain.User
		rank      string
		badges    []byte
		updatedAt time.Time
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Points, &rank, &user.TotalDistanceKM, &user.WorkoutsCompleted, &user.StreakDays, &badges, &updatedAt); err != nil {
		return nil, err
	}
	user.Rank = domain.Rank(rank)
	if err := json.Unmarshal(badges, &user.Badges); err != nil {
		return nil, err
	}
	return &user, nil
}
