package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mihirgan06/Arbiter/internal/feed"
	"github.com/mihirgan06/Arbiter/internal/platform/polymarket"
	"github.com/mihirgan06/Arbiter/internal/server"
	"github.com/mihirgan06/Arbiter/internal/server/handler"
	"github.com/mihirgan06/Arbiter/internal/server/ws"
	"github.com/mihirgan06/Arbiter/internal/service"
)

// shutdownTimeout bounds graceful HTTP server shutdown.
const shutdownTimeout = 10 * time.Second

// ServeMode runs the HTTP API only. Scans still run on demand through
// POST /api/discrepancies/scan, but no periodic loop is started.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "serve mode starting")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return waitGroup(g)
}

// ScanMode runs the periodic discrepancy scan loop without the HTTP API.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "scan mode starting",
		slog.Duration("interval", a.cfg.Scan.Interval.Duration),
		slog.Int("venues", len(deps.Venues)),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.newScanService(deps).Run(ctx)
	})
	return waitGroup(g)
}

// FullMode runs the HTTP API, the periodic scan loop, and the live book feed.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "full mode starting")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)

	g.Go(func() error {
		return a.newScanService(deps).Run(ctx)
	})

	if deps.Polymarket != nil && a.cfg.Polymarket.WsHost != "" {
		wsClient := polymarket.NewWSClient(a.cfg.Polymarket.WsHost + "/ws/market")
		bookFeed := feed.NewBookFeed(wsClient, deps.Polymarket, deps.BookCache, a.cfg.Scan.MarketLimit, a.logger)
		g.Go(func() error {
			return bookFeed.Run(ctx)
		})
	}

	return waitGroup(g)
}

// newScanService builds the scan service from wired dependencies.
func (a *App) newScanService(deps *Dependencies) *service.ScanService {
	return service.NewScanService(
		deps.Venues,
		deps.Detector,
		deps.MarketCache,
		deps.DiscrepancyStore,
		deps.SignalBus,
		deps.Notifier,
		deps.Archiver,
		service.ScanConfig{
			Interval:             a.cfg.Scan.Interval.Duration,
			MarketLimit:          a.cfg.Scan.MarketLimit,
			NotifyConfidence:     a.cfg.Scan.NotifyConfidence,
			ArchiveRetentionDays: a.cfg.Scan.ArchiveRetentionDays,
		},
		a.logger,
	)
}

// startHTTPServer wires the service layer into HTTP handlers and adds the
// server plus the WebSocket hub to the errgroup. The server shuts down
// gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	books := service.NewBookService(deps.Venues, deps.BookCache, deps.RateLimiter, a.logger)
	compare := service.NewCompareService(books, deps.ComparisonStore, deps.Snapshotter, a.logger)
	scan := a.newScanService(deps)

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger),
		Books:         handler.NewBookHandler(books, a.logger),
		Execution:     handler.NewExecutionHandler(books, a.logger),
		Compare:       handler.NewCompareHandler(compare, a.logger),
		Discrepancies: handler.NewDiscrepancyHandler(deps.DiscrepancyStore, scan, a.logger),
		Archives:      handler.NewArchiveHandler(deps.BlobReader, a.logger),
	}

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// waitGroup waits for all goroutines and treats context cancellation as a
// clean shutdown.
func waitGroup(g *errgroup.Group) error {
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
