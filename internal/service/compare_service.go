package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/engine"
)

// CompareService runs cross-market comparisons and efficiency checks on
// freshly fetched books and records the results.
type CompareService struct {
	books  *BookService
	store  domain.ComparisonStore
	snaps  domain.BookSnapshotter
	logger *slog.Logger
}

// NewCompareService creates a CompareService. store and snaps may each be
// nil to skip history recording and evidence snapshots.
func NewCompareService(books *BookService, store domain.ComparisonStore, snaps domain.BookSnapshotter, logger *slog.Logger) *CompareService {
	return &CompareService{
		books:  books,
		store:  store,
		snaps:  snaps,
		logger: logger.With(slog.String("component", "compare_service")),
	}
}

// Compare fetches both markets' books concurrently, runs the comparison at
// the given trade size, and records the result.
func (s *CompareService) Compare(ctx context.Context, a, b domain.MarketRef, tradeSize float64) (domain.MarketComparisonResult, error) {
	var booksA, booksB domain.MarketBooks

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		booksA, err = s.books.GetMarketBooks(gctx, a.Venue, a.MarketID)
		return err
	})
	g.Go(func() error {
		var err error
		booksB, err = s.books.GetMarketBooks(gctx, b.Venue, b.MarketID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MarketComparisonResult{}, fmt.Errorf("compare_service: fetch books: %w", err)
	}

	result := engine.CompareMarkets(booksA, booksB, tradeSize)

	if result.ApparentArbitrage {
		s.logger.InfoContext(ctx, "apparent arbitrage",
			slog.String("market_a", a.MarketID),
			slog.String("market_b", b.MarketID),
			slog.Float64("edge", result.ArbitrageEdge),
			slog.Float64("max_viable_size", result.MaxViableSize),
		)
		s.snapshot(ctx, booksA)
		s.snapshot(ctx, booksB)
	}

	if s.store != nil {
		rec := domain.ComparisonRecord{
			ID:        uuid.NewString(),
			Result:    result,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.Record(ctx, rec); err != nil {
			// History is best-effort; the caller still gets the result.
			s.logger.WarnContext(ctx, "comparison record failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}

// Efficiency fetches one market's books and classifies its YES+NO pricing
// at the given trade size.
func (s *CompareService) Efficiency(ctx context.Context, ref domain.MarketRef, tradeSize float64) (domain.EfficiencyResult, error) {
	books, err := s.books.GetMarketBooks(ctx, ref.Venue, ref.MarketID)
	if err != nil {
		return domain.EfficiencyResult{}, fmt.Errorf("compare_service: fetch books: %w", err)
	}
	return engine.MarketEfficiency(books, tradeSize), nil
}

// Exhaustion fetches both markets' YES books and walks the size ladder to
// find where combined slippage consumes the initial edge.
func (s *CompareService) Exhaustion(ctx context.Context, a, b domain.MarketRef, side domain.Side, initialEdge float64) (domain.ExhaustionResult, error) {
	var booksA, booksB domain.MarketBooks

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		booksA, err = s.books.GetMarketBooks(gctx, a.Venue, a.MarketID)
		return err
	})
	g.Go(func() error {
		var err error
		booksB, err = s.books.GetMarketBooks(gctx, b.Venue, b.MarketID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ExhaustionResult{}, fmt.Errorf("compare_service: fetch books: %w", err)
	}

	return engine.ExhaustionPoint(booksA.Yes, booksB.Yes, side, initialEdge), nil
}

// snapshot preserves the raw books behind an apparent-arbitrage flag so the
// signal can be audited after the books move. Best-effort.
func (s *CompareService) snapshot(ctx context.Context, books domain.MarketBooks) {
	if s.snaps == nil {
		return
	}
	if err := s.snaps.SnapshotMarketBooks(ctx, books); err != nil {
		s.logger.WarnContext(ctx, "book snapshot failed",
			slog.String("market_id", books.MarketID),
			slog.String("error", err.Error()),
		)
	}
}

// History returns recent comparison records, newest first.
func (s *CompareService) History(ctx context.Context, limit int) ([]domain.ComparisonRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRecent(ctx, limit)
}

// Get returns one recorded comparison by ID.
func (s *CompareService) Get(ctx context.Context, id string) (domain.ComparisonRecord, error) {
	if s.store == nil {
		return domain.ComparisonRecord{}, domain.ErrNotFound
	}
	return s.store.GetByID(ctx, id)
}
