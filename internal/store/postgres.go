package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/pinboard/backend/internal/models"
)

// PostgresStore keeps the mutation audit log in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the activity table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS activity (
			id      BIGSERIAL PRIMARY KEY,
			action  VARCHAR(32) NOT NULL,
			user_id CHAR(24)    NOT NULL,
			pin_id  CHAR(24),
			at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`CREATE INDEX IF NOT EXISTS activity_user_id_idx ON activity (user_id, at DESC)`)
	return err
}

// Record appends one audit entry.
func (s *PostgresStore) Record(ctx context.Context, a models.Activity) error {
	var pinID *string
	if a.PinID != "" {
		pinID = &a.PinID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity (action, user_id, pin_id, at) VALUES ($1, $2, $3, $4)`,
		a.Action, a.UserID, pinID, a.At,
	)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}
