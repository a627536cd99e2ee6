package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"alphaScope/internal/model"
)

// placeholderID marks the template row that is never a real tournament.
const placeholderID = -1

// Store reads tournament records from Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ListTournaments returns every tournament except the placeholder row, by id.
func (s *Store) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id,
			COALESCE(name, ''),
			COALESCE(contract, ''),
			COALESCE(status, ''),
			is_finalized,
			end_at,
			COALESCE(end_date, ''),
			COALESCE(end_time, ''),
			data
		FROM tournaments
		WHERE id <> $1
		ORDER BY id
	`, placeholderID)
	if err != nil {
		return nil, fmt.Errorf("query tournaments: %w", err)
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		var (
			t     model.Tournament
			endAt *time.Time
			data  []byte
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Contract, &t.Status, &t.IsFinalized, &endAt, &t.End, &t.EndTime, &data); err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		if endAt != nil {
			t.EndAt = endAt.UTC().Format(time.RFC3339)
		}
		t.Data = map[string]any{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &t.Data); err != nil || t.Data == nil {
				t.Data = map[string]any{}
			}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tournaments: %w", err)
	}
	return out, nil
}
