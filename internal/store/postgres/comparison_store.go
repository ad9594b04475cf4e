package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// ComparisonStore implements domain.ComparisonStore using PostgreSQL. The
// full comparison result is stored as a JSONB document; the market IDs and
// the arbitrage verdict are columns so history can be filtered cheaply.
type ComparisonStore struct {
	pool *pgxpool.Pool
}

// NewComparisonStore creates a ComparisonStore backed by the given pool.
func NewComparisonStore(pool *pgxpool.Pool) *ComparisonStore {
	return &ComparisonStore{pool: pool}
}

// Record stores a comparison result.
func (s *ComparisonStore) Record(ctx context.Context, rec domain.ComparisonRecord) error {
	const query = `
		INSERT INTO comparisons (id, market_a, market_b, is_arb, edge, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("postgres: marshal comparison result: %w", err)
	}

	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.Result.MarketA.MarketID, rec.Result.MarketB.MarketID,
		rec.Result.ApparentArbitrage, rec.Result.ArbitrageEdge,
		result, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert comparison %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recent comparisons, newest first.
func (s *ComparisonStore) ListRecent(ctx context.Context, limit int) ([]domain.ComparisonRecord, error) {
	query := `SELECT id, result, created_at FROM comparisons ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent comparisons: %w", err)
	}
	defer rows.Close()

	return scanComparisons(rows)
}

// GetByID returns a single comparison, or domain.ErrNotFound.
func (s *ComparisonStore) GetByID(ctx context.Context, id string) (domain.ComparisonRecord, error) {
	const query = `SELECT id, result, created_at FROM comparisons WHERE id = $1`

	var (
		rec    domain.ComparisonRecord
		result []byte
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(&rec.ID, &result, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ComparisonRecord{}, fmt.Errorf("postgres: comparison %s: %w", id, domain.ErrNotFound)
		}
		return domain.ComparisonRecord{}, fmt.Errorf("postgres: get comparison %s: %w", id, err)
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return domain.ComparisonRecord{}, fmt.Errorf("postgres: unmarshal comparison %s: %w", id, err)
	}
	return rec, nil
}

// ListBefore returns comparisons created before the given time, oldest
// first, for archival batching.
func (s *ComparisonStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.ComparisonRecord, error) {
	query := `SELECT id, result, created_at FROM comparisons WHERE created_at < $1 ORDER BY created_at ASC`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list comparisons before %s: %w", before, err)
	}
	defer rows.Close()

	return scanComparisons(rows)
}

// DeleteBefore removes comparisons created before the given time and returns
// the number of rows deleted.
func (s *ComparisonStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comparisons WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete comparisons before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func scanComparisons(rows pgx.Rows) ([]domain.ComparisonRecord, error) {
	var recs []domain.ComparisonRecord
	for rows.Next() {
		var (
			rec    domain.ComparisonRecord
			result []byte
		)
		if err := rows.Scan(&rec.ID, &result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan comparison: %w", err)
		}
		if err := json.Unmarshal(result, &rec.Result); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal comparison: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate comparisons: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.ComparisonStore = (*ComparisonStore)(nil)
