package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// archiveBatchSize bounds how many rows are pulled from the store per
// archive run so a long retention backlog cannot balloon memory.
const archiveBatchSize = 5000

// ArchiveImpl implements domain.Archiver by querying the signal stores for
// aged records, serializing them to JSONL, and uploading the result to S3.
//
// Deletion from the primary store happens only after the upload succeeded,
// so a failed upload leaves the rows in place for the next run.
type ArchiveImpl struct {
	writer        domain.BlobWriter
	discrepancies domain.DiscrepancyStore
	comparisons   domain.ComparisonStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, d domain.DiscrepancyStore, c domain.ComparisonStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:        writer,
		discrepancies: d,
		comparisons:   c,
	}
}

// ArchiveDiscrepancies uploads all discrepancies recorded before the cutoff
// as one batch object under archive/discrepancies/ and then deletes them
// from the store. It returns the number of archived records.
func (a *ArchiveImpl) ArchiveDiscrepancies(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.discrepancies.ListBefore(ctx, before, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive discrepancies query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive discrepancies marshal: %w", err)
	}

	path := archivePath("discrepancies", recs[len(recs)-1].CreatedAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive discrepancies upload: %w", err)
	}

	cutoff := recs[len(recs)-1].CreatedAt.Add(time.Nanosecond)
	if _, err := a.discrepancies.DeleteBefore(ctx, cutoff); err != nil {
		return int64(len(recs)), fmt.Errorf("s3blob: archive discrepancies prune: %w", err)
	}

	return int64(len(recs)), nil
}

// ArchiveComparisons is the comparison-history counterpart of
// ArchiveDiscrepancies, writing under archive/comparisons/.
func (a *ArchiveImpl) ArchiveComparisons(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.comparisons.ListBefore(ctx, before, archiveBatchSize)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive comparisons query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive comparisons marshal: %w", err)
	}

	path := archivePath("comparisons", recs[len(recs)-1].CreatedAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive comparisons upload: %w", err)
	}

	cutoff := recs[len(recs)-1].CreatedAt.Add(time.Nanosecond)
	if _, err := a.comparisons.DeleteBefore(ctx, cutoff); err != nil {
		return int64(len(recs)), fmt.Errorf("s3blob: archive comparisons prune: %w", err)
	}

	return int64(len(recs)), nil
}

// SnapshotMarketBooks uploads one market's raw YES/NO books as evidence,
// keyed by market and fetch time:
//
//	snapshots/books/{marketID}/2026-08-31T12-00-00Z.json
func (a *ArchiveImpl) SnapshotMarketBooks(ctx context.Context, books domain.MarketBooks) error {
	data, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("s3blob: snapshot marshal: %w", err)
	}

	ts := books.FetchedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	path := fmt.Sprintf("snapshots/books/%s/%s.json", books.MarketID, ts.UTC().Format("2006-01-02T15-04-05Z"))

	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: snapshot upload: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// archivePath builds the S3 key for one archive batch, partitioned by
// year-month and keyed by the newest record in the batch. Batches are
// disjoint (each prune cuts just past its own newest record), so the key is
// unique per run and successive runs in the same month never overwrite an
// object whose rows are already gone from the store.
//
//	archive/discrepancies/2026-08/2026-08-07T10-00-00Z.jsonl
//	archive/comparisons/2026-08/2026-08-31T04-15-00Z.jsonl
func archivePath(kind string, last time.Time) string {
	last = last.UTC()
	return fmt.Sprintf("archive/%s/%s/%s.jsonl",
		kind, last.Format("2006-01"), last.Format("2006-01-02T15-04-05Z"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
