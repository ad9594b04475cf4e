package domain

import (
	"context"
	"time"
)

// DiscrepancyRecord is a persisted discrepancy detection with scan metadata.
type DiscrepancyRecord struct {
	ID        string            `json:"id"`
	ScanID    string            `json:"scan_id"`
	Result    DiscrepancyResult `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// ComparisonRecord is a persisted cross-market comparison.
type ComparisonRecord struct {
	ID        string                 `json:"id"`
	Result    MarketComparisonResult `json:"result"`
	CreatedAt time.Time              `json:"created_at"`
}

// DiscrepancyStore persists and queries discrepancy history.
type DiscrepancyStore interface {
	Record(ctx context.Context, rec DiscrepancyRecord) error
	ListRecent(ctx context.Context, limit int) ([]DiscrepancyRecord, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]DiscrepancyRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ComparisonStore persists and queries comparison history.
type ComparisonStore interface {
	Record(ctx context.Context, rec ComparisonRecord) error
	ListRecent(ctx context.Context, limit int) ([]ComparisonRecord, error)
	GetByID(ctx context.Context, id string) (ComparisonRecord, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]ComparisonRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
