package service

import (
	"context"
	"testing"
	"time"

	"github.com/mihirgan06/Arbiter/internal/discrepancy"
	"github.com/mihirgan06/Arbiter/internal/domain"
)

type memDiscrepancyStore struct {
	recs []domain.DiscrepancyRecord
}

func (s *memDiscrepancyStore) Record(_ context.Context, rec domain.DiscrepancyRecord) error {
	s.recs = append(s.recs, rec)
	return nil
}
func (s *memDiscrepancyStore) ListRecent(context.Context, int) ([]domain.DiscrepancyRecord, error) {
	return s.recs, nil
}
func (s *memDiscrepancyStore) ListBefore(context.Context, time.Time, int) ([]domain.DiscrepancyRecord, error) {
	return nil, nil
}
func (s *memDiscrepancyStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memBus struct {
	published [][]byte
	appended  [][]byte
}

func (b *memBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.published = append(b.published, payload)
	return nil
}
func (b *memBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (b *memBus) StreamAppend(_ context.Context, _ string, payload []byte) error {
	b.appended = append(b.appended, payload)
	return nil
}
func (b *memBus) StreamRead(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func newDetector() *discrepancy.Engine {
	return discrepancy.New(discrepancy.DefaultConfig(), discrepancy.NewSlugMatcher(), nil, discardLogger())
}

func TestScanOnceDetectsAndFansOut(t *testing.T) {
	poly := &fakeVenue{
		platform: "polymarket",
		markets: []domain.NormalizedMarket{{
			ExternalID:     "m1",
			Platform:       "polymarket",
			Question:       "Will Candidate Smith win the election?",
			YesProbability: 0.40,
			Liquidity:      50_000,
		}},
	}
	kalshi := &fakeVenue{
		platform: "kalshi",
		markets: []domain.NormalizedMarket{{
			ExternalID:     "SMITH-26",
			Platform:       "kalshi",
			Question:       "Candidate Smith will win the election",
			YesProbability: 0.50,
			Liquidity:      20_000,
		}},
	}

	store := &memDiscrepancyStore{}
	bus := &memBus{}
	svc := NewScanService(
		[]domain.VenueClient{poly, kalshi},
		newDetector(),
		nil, store, bus, nil, nil,
		ScanConfig{Interval: time.Minute, MarketLimit: 100, NotifyConfidence: 0.6},
		discardLogger(),
	)

	results, err := svc.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d discrepancies, want 1", len(results))
	}
	if results[0].MaxSpread < 0.09 || results[0].MaxSpread > 0.11 {
		t.Errorf("MaxSpread = %v, want ~0.10", results[0].MaxSpread)
	}

	if len(store.recs) != 1 {
		t.Fatalf("store got %d records, want 1", len(store.recs))
	}
	if store.recs[0].ScanID == "" || store.recs[0].ID == "" {
		t.Errorf("record missing IDs: %+v", store.recs[0])
	}
	if len(bus.published) != 1 || len(bus.appended) != 1 {
		t.Errorf("bus fan-out: published=%d appended=%d, want 1 each", len(bus.published), len(bus.appended))
	}
}

func TestScanOnceSurvivesVenueFailure(t *testing.T) {
	broken := &fakeVenue{platform: "kalshi", listErr: domain.ErrBadUpstream}
	working := &fakeVenue{
		platform: "polymarket",
		markets: []domain.NormalizedMarket{{
			ExternalID:     "m1",
			Platform:       "polymarket",
			Question:       "Will it rain tomorrow in the city?",
			YesProbability: 0.5,
		}},
	}

	svc := NewScanService(
		[]domain.VenueClient{broken, working},
		newDetector(),
		nil, nil, nil, nil, nil,
		ScanConfig{Interval: time.Minute, MarketLimit: 100},
		discardLogger(),
	)

	results, err := svc.ScanOnce(context.Background())
	if err != nil {
		t.Fatalf("ScanOnce must degrade, got %v", err)
	}
	// One venue alone cannot produce a cross-venue discrepancy.
	if len(results) != 0 {
		t.Fatalf("got %d discrepancies, want 0", len(results))
	}
}

func TestScanOnceAllVenuesEmpty(t *testing.T) {
	svc := NewScanService(
		[]domain.VenueClient{&fakeVenue{platform: "polymarket"}},
		newDetector(),
		nil, nil, nil, nil, nil,
		ScanConfig{Interval: time.Minute},
		discardLogger(),
	)

	if _, err := svc.ScanOnce(context.Background()); err == nil {
		t.Fatalf("expected error when no venue returns markets")
	}
}
