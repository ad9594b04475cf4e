package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// DiscrepancyStore implements domain.DiscrepancyStore using PostgreSQL.
// The market quotes and news drivers are stored as JSONB documents; the
// scalar signal fields are kept as columns so scans can be queried and
// indexed directly.
type DiscrepancyStore struct {
	pool *pgxpool.Pool
}

// NewDiscrepancyStore creates a DiscrepancyStore backed by the given pool.
func NewDiscrepancyStore(pool *pgxpool.Pool) *DiscrepancyStore {
	return &DiscrepancyStore{pool: pool}
}

// Record stores a detected discrepancy.
func (s *DiscrepancyStore) Record(ctx context.Context, rec domain.DiscrepancyRecord) error {
	const query = `
		INSERT INTO discrepancies (
			id, scan_id, event_slug, event_title,
			max_spread, spread_percent, confidence,
			markets, likely_drivers, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	markets, err := json.Marshal(rec.Result.Markets)
	if err != nil {
		return fmt.Errorf("postgres: marshal discrepancy markets: %w", err)
	}
	var drivers []byte
	if len(rec.Result.LikelyDrivers) > 0 {
		drivers, err = json.Marshal(rec.Result.LikelyDrivers)
		if err != nil {
			return fmt.Errorf("postgres: marshal discrepancy drivers: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.ScanID, rec.Result.EventSlug, rec.Result.EventTitle,
		rec.Result.MaxSpread, rec.Result.SpreadPercent, rec.Result.Confidence,
		markets, drivers, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert discrepancy %s: %w", rec.ID, err)
	}
	return nil
}

const discrepancySelectCols = `id, scan_id, event_slug, event_title,
	max_spread, spread_percent, confidence, markets, likely_drivers, created_at`

// ListRecent returns the most recent discrepancies, newest first.
func (s *DiscrepancyStore) ListRecent(ctx context.Context, limit int) ([]domain.DiscrepancyRecord, error) {
	query := `SELECT ` + discrepancySelectCols + ` FROM discrepancies ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent discrepancies: %w", err)
	}
	defer rows.Close()

	return scanDiscrepancies(rows)
}

// ListBefore returns discrepancies created before the given time, oldest
// first, for archival batching.
func (s *DiscrepancyStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.DiscrepancyRecord, error) {
	query := `SELECT ` + discrepancySelectCols + `
		FROM discrepancies WHERE created_at < $1 ORDER BY created_at ASC`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list discrepancies before %s: %w", before, err)
	}
	defer rows.Close()

	return scanDiscrepancies(rows)
}

// DeleteBefore removes discrepancies created before the given time and
// returns the number of rows deleted.
func (s *DiscrepancyStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM discrepancies WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete discrepancies before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func scanDiscrepancies(rows pgx.Rows) ([]domain.DiscrepancyRecord, error) {
	var recs []domain.DiscrepancyRecord
	for rows.Next() {
		var (
			rec     domain.DiscrepancyRecord
			markets []byte
			drivers []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.ScanID, &rec.Result.EventSlug, &rec.Result.EventTitle,
			&rec.Result.MaxSpread, &rec.Result.SpreadPercent, &rec.Result.Confidence,
			&markets, &drivers, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan discrepancy: %w", err)
		}
		if err := json.Unmarshal(markets, &rec.Result.Markets); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal discrepancy markets: %w", err)
		}
		if len(drivers) > 0 {
			if err := json.Unmarshal(drivers, &rec.Result.LikelyDrivers); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal discrepancy drivers: %w", err)
			}
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate discrepancies: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.DiscrepancyStore = (*DiscrepancyStore)(nil)
