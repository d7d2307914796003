package aiusage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Consume atomically checks the monthly quota and deducts one call.
// It resets the counter to DefaultCalls when last_reset_month is behind the current month.
// Returns ErrQuotaExhausted when 0 rows are updated (quota spent or session absent).
func (s *Store) Consume(ctx context.Context, sessionID string) error {
	now := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			calls_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE calls_remaining - 1 END,
			last_reset_month = $1
		WHERE session_id = $3 AND (last_reset_month < $1 OR calls_remaining > 0)
	`, now, DefaultCalls, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// EnsureSession inserts a new ai_usage row for the session with the default allowance.
// If the row already exists the insert is silently skipped (ON CONFLICT DO NOTHING).
func (s *Store) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (session_id, calls_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO NOTHING
	`, sessionID, DefaultCalls, time.Now().Format("2006-01"))
	return err
}
