package territory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgPool is the slice of pgxpool.Pool the store needs.
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SettlementStore persists completed cycles to Postgres.
type SettlementStore struct {
	pg PgPool
}

// NewSettlementStore wraps a Postgres pool.
func NewSettlementStore(pg PgPool) *SettlementStore {
	return &SettlementStore{pg: pg}
}

// Record appends one settlement row.
func (s *SettlementStore) Record(ctx context.Context, st Settlement) error {
	winner := any(nil)
	if st.Winner != FactionNone {
		winner = string(st.Winner)
	}

	_, err := s.pg.Exec(ctx, `
		INSERT INTO settlements (zone_id, winner, neon_score, rose_score, tax_collected, cycle_end)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, st.ZoneID, winner, st.Neon, st.Rose, st.Tax, st.CycleEnd)
	if err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}
	return nil
}

// History returns the most recent settlements for a zone, newest first.
func (s *SettlementStore) History(ctx context.Context, zoneID string, limit int) ([]Settlement, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}

	rows, err := s.pg.Query(ctx, `
		SELECT zone_id, COALESCE(winner, ''), neon_score, rose_score, tax_collected, cycle_end
		FROM settlements
		WHERE zone_id = $1
		ORDER BY cycle_end DESC
		LIMIT $2
	`, zoneID, limit)
	if err != nil {
		return nil, fmt.Errorf("settlement history: %w", err)
	}
	defer rows.Close()

	var out []Settlement
	for rows.Next() {
		var st Settlement
		var winner string
		if err := rows.Scan(&st.ZoneID, &winner, &st.Neon, &st.Rose, &st.Tax, &st.CycleEnd); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		st.Winner = Faction(winner)
		out = append(out, st)
	}
	return out, rows.Err()
}
