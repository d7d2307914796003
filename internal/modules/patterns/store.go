// README: Postgres persistence for confirmed resolutions and patterns.
package patterns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists resolutions and patterns in Postgres.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) InsertConfirmed(ctx context.Context, res ConfirmedResolution) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO confirmed_resolutions
			(id, session_id, signature, destinations, duration_days,
			 travelers, budget_tier, trip_type, interests, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		res.ID, res.SessionID, res.Signature, res.Destinations, res.DurationDays,
		res.Travelers, res.BudgetTier, res.TripType, res.Interests, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert confirmed resolution: %w", err)
	}
	return nil
}

func (s *Store) RecentConfirmed(ctx context.Context, limit int) ([]ConfirmedResolution, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, signature, destinations, duration_days,
		       travelers, budget_tier, trip_type, interests, created_at
		FROM confirmed_resolutions
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent resolutions: %w", err)
	}
	defer rows.Close()

	var out []ConfirmedResolution
	for rows.Next() {
		var res ConfirmedResolution
		if err := rows.Scan(
			&res.ID, &res.SessionID, &res.Signature, &res.Destinations, &res.DurationDays,
			&res.Travelers, &res.BudgetTier, &res.TripType, &res.Interests, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (s *Store) UpsertPattern(ctx context.Context, p LearnedPattern) error {
	implications, err := json.Marshal(p.Implications)
	if err != nil {
		return fmt.Errorf("encode implications: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO learned_patterns
			(id, signature_key, signature, frequency, confidence,
			 examples, implications, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (signature_key) DO UPDATE SET
			frequency = EXCLUDED.frequency,
			confidence = EXCLUDED.confidence,
			examples = EXCLUDED.examples,
			implications = EXCLUDED.implications,
			updated_at = EXCLUDED.updated_at`,
		p.ID, SignatureKey(p.Signature), p.Signature, p.Frequency, p.Confidence,
		p.Examples, implications, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert pattern: %w", err)
	}
	return nil
}

func (s *Store) AllPatterns(ctx context.Context) ([]LearnedPattern, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, signature, frequency, confidence, examples, implications, updated_at
		FROM learned_patterns
		ORDER BY frequency DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var out []LearnedPattern
	for rows.Next() {
		var p LearnedPattern
		var implications []byte
		if err := rows.Scan(
			&p.ID, &p.Signature, &p.Frequency, &p.Confidence,
			&p.Examples, &implications, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		if len(implications) > 0 {
			if err := json.Unmarshal(implications, &p.Implications); err != nil {
				return nil, fmt.Errorf("decode implications: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
