package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mihirgan06/Arbiter/internal/discrepancy"
	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/notify"
)

// Signal bus channels and streams fed by the scanner.
const (
	discrepancyChannel = "signals:discrepancies"
	discrepancyStream  = "stream:discrepancies"
)

// archiveInterval is how often the retention archiver runs inside the scan
// loop.
const archiveInterval = 24 * time.Hour

// ScanConfig holds the periodic scan parameters.
type ScanConfig struct {
	Interval             time.Duration
	MarketLimit          int
	NotifyConfidence     float64
	ArchiveRetentionDays int
}

// ScanService periodically pulls markets from every configured venue, runs
// discrepancy detection across them, and fans detected signals out to the
// store, the signal bus, and the notifier.
type ScanService struct {
	venues   []domain.VenueClient
	detector *discrepancy.Engine
	markets  domain.MarketCache
	store    domain.DiscrepancyStore
	bus      domain.SignalBus
	notifier *notify.Notifier
	archiver domain.Archiver
	cfg      ScanConfig
	logger   *slog.Logger
}

// NewScanService creates a ScanService. markets, store, bus, notifier, and
// archiver may each be nil; the corresponding fan-out step is skipped.
func NewScanService(
	venues []domain.VenueClient,
	detector *discrepancy.Engine,
	markets domain.MarketCache,
	store domain.DiscrepancyStore,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	archiver domain.Archiver,
	cfg ScanConfig,
	logger *slog.Logger,
) *ScanService {
	return &ScanService{
		venues:   venues,
		detector: detector,
		markets:  markets,
		store:    store,
		bus:      bus,
		notifier: notifier,
		archiver: archiver,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "scan_service")),
	}
}

// Run executes scans at the configured interval until the context is
// cancelled. The first scan fires immediately.
func (s *ScanService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	archiveTicker := time.NewTicker(archiveInterval)
	defer archiveTicker.Stop()

	if _, err := s.ScanOnce(ctx); err != nil {
		s.scanFailed(ctx, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.ScanOnce(ctx); err != nil {
				s.scanFailed(ctx, err)
			}
		case <-archiveTicker.C:
			s.archive(ctx)
		}
	}
}

// ScanOnce pulls markets from all venues concurrently, runs detection, and
// fans out the results. A single venue failure degrades the scan to the
// remaining venues instead of aborting it.
func (s *ScanService) ScanOnce(ctx context.Context) ([]domain.DiscrepancyResult, error) {
	started := time.Now()
	scanID := uuid.NewString()

	var (
		mu  sync.Mutex
		all []domain.NormalizedMarket
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, v := range s.venues {
		g.Go(func() error {
			markets, err := v.ListMarkets(gctx, s.cfg.MarketLimit)
			if err != nil {
				s.logger.WarnContext(gctx, "venue listing failed",
					slog.String("venue", v.Platform()),
					slog.String("error", err.Error()),
				)
				return nil
			}

			if s.markets != nil {
				if err := s.markets.SetMarkets(gctx, v.Platform(), markets); err != nil {
					s.logger.WarnContext(gctx, "market cache write failed",
						slog.String("venue", v.Platform()),
						slog.String("error", err.Error()),
					)
				}
			}

			mu.Lock()
			all = append(all, markets...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan_service: venue fan-out: %w", err)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("scan_service: no markets listed from any venue")
	}

	results := s.detector.Detect(ctx, all)

	for _, res := range results {
		s.fanOut(ctx, scanID, res)
	}

	s.logger.InfoContext(ctx, "scan complete",
		slog.String("scan_id", scanID),
		slog.Int("markets", len(all)),
		slog.Int("discrepancies", len(results)),
		slog.Duration("elapsed", time.Since(started)),
	)

	return results, nil
}

// fanOut delivers one detected discrepancy to the store, the signal bus,
// and the notifier. Each step is best-effort.
func (s *ScanService) fanOut(ctx context.Context, scanID string, res domain.DiscrepancyResult) {
	if s.store != nil {
		rec := domain.DiscrepancyRecord{
			ID:        uuid.NewString(),
			ScanID:    scanID,
			Result:    res,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.store.Record(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "discrepancy record failed",
				slog.String("event_slug", res.EventSlug),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus != nil {
		payload, err := json.Marshal(res)
		if err != nil {
			s.logger.WarnContext(ctx, "signal marshal failed",
				slog.String("event_slug", res.EventSlug),
				slog.String("error", err.Error()),
			)
		} else {
			if err := s.bus.Publish(ctx, discrepancyChannel, payload); err != nil {
				s.logger.WarnContext(ctx, "signal publish failed", slog.String("error", err.Error()))
			}
			if err := s.bus.StreamAppend(ctx, discrepancyStream, payload); err != nil {
				s.logger.WarnContext(ctx, "stream append failed", slog.String("error", err.Error()))
			}
		}
	}

	if s.notifier != nil && res.Confidence >= s.cfg.NotifyConfidence {
		title, message := notify.FormatDiscrepancy(res)
		if err := s.notifier.Notify(ctx, notify.EventDiscrepancy, title, message); err != nil {
			s.logger.WarnContext(ctx, "discrepancy notify failed", slog.String("error", err.Error()))
		}

		if opp := s.arbitrage(res); opp.Exists {
			title, message := notify.FormatArbitrage(res.EventTitle, opp)
			if err := s.notifier.Notify(ctx, notify.EventArbitrage, title, message); err != nil {
				s.logger.WarnContext(ctx, "arbitrage notify failed", slog.String("error", err.Error()))
			}
		}
	}
}

// scanFailed logs a failed scan cycle and pushes a scan_error notification
// so a dead loop is noticed before the signals go quiet.
func (s *ScanService) scanFailed(ctx context.Context, err error) {
	s.logger.ErrorContext(ctx, "scan failed", slog.String("error", err.Error()))
	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.Notify(ctx, notify.EventScanError, "Scan failed", err.Error()); nerr != nil {
		s.logger.WarnContext(ctx, "scan error notify failed", slog.String("error", nerr.Error()))
	}
}

// arbitrage runs the simplified cross-venue check on the cheapest and
// dearest YES quotes of one discrepancy group.
func (s *ScanService) arbitrage(res domain.DiscrepancyResult) domain.ArbOpportunity {
	if len(res.Markets) < 2 {
		return domain.ArbOpportunity{}
	}

	low, high := res.Markets[0], res.Markets[0]
	for _, m := range res.Markets[1:] {
		if m.YesProbability < low.YesProbability {
			low = m
		}
		if m.YesProbability > high.YesProbability {
			high = m
		}
	}

	return discrepancy.CheckArbitrage(low.YesProbability, high.YesProbability, low.Liquidity, high.Liquidity)
}

// archive moves signal history older than the retention window to cold
// storage.
func (s *ScanService) archive(ctx context.Context) {
	if s.archiver == nil || s.cfg.ArchiveRetentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.ArchiveRetentionDays)

	n, err := s.archiver.ArchiveDiscrepancies(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "discrepancy archive failed", slog.String("error", err.Error()))
	} else if n > 0 {
		s.logger.InfoContext(ctx, "discrepancies archived", slog.Int64("count", n))
	}

	n, err = s.archiver.ArchiveComparisons(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "comparison archive failed", slog.String("error", err.Error()))
	} else if n > 0 {
		s.logger.InfoContext(ctx, "comparisons archived", slog.Int64("count", n))
	}
}
