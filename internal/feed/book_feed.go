// Package feed keeps the book cache warm from live venue streams.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
	"github.com/mihirgan06/Arbiter/internal/platform/polymarket"
)

// resubscribeInterval is how often the feed refreshes its token subscription
// set so newly listed markets get live coverage.
const resubscribeInterval = 15 * time.Minute

// TokenLister enumerates the outcome tokens worth streaming.
type TokenLister interface {
	ListTokenIDs(ctx context.Context, limit int) ([]string, error)
}

// BookFeed subscribes to the Polymarket market channel and writes every book
// snapshot into the shared cache, so API reads hit warm data instead of the
// REST API.
type BookFeed struct {
	ws     *polymarket.WSClient
	tokens TokenLister
	cache  domain.BookCache
	limit  int
	logger *slog.Logger
}

// NewBookFeed creates a BookFeed streaming the books of up to limit markets.
func NewBookFeed(ws *polymarket.WSClient, tokens TokenLister, cache domain.BookCache, limit int, logger *slog.Logger) *BookFeed {
	return &BookFeed{
		ws:     ws,
		tokens: tokens,
		cache:  cache,
		limit:  limit,
		logger: logger.With(slog.String("component", "book_feed")),
	}
}

// Run connects, subscribes to the current token set, and blocks until the
// context is cancelled. The WS client handles reconnection internally; Run
// only refreshes the subscription set periodically.
func (f *BookFeed) Run(ctx context.Context) error {
	f.ws.OnBook(func(book domain.OrderBook) {
		if err := f.cache.SetBook(ctx, book); err != nil {
			f.logger.WarnContext(ctx, "book cache write failed",
				slog.String("token_id", book.TokenID),
				slog.String("error", err.Error()),
			)
		}
	})

	if err := f.ws.Connect(ctx); err != nil {
		return err
	}
	defer f.ws.Close()

	seen := map[string]bool{}
	if err := f.subscribe(ctx, seen); err != nil {
		f.logger.WarnContext(ctx, "initial subscription failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(resubscribeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := f.subscribe(ctx, seen); err != nil {
				f.logger.WarnContext(ctx, "resubscribe failed", slog.String("error", err.Error()))
			}
		}
	}
}

// subscribe lists the current token set and subscribes to tokens not yet
// covered.
func (f *BookFeed) subscribe(ctx context.Context, seen map[string]bool) error {
	tokens, err := f.tokens.ListTokenIDs(ctx, f.limit)
	if err != nil {
		return err
	}

	fresh := tokens[:0:0]
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := f.ws.Subscribe(ctx, fresh); err != nil {
		return err
	}
	for _, t := range fresh {
		seen[t] = true
	}

	f.logger.InfoContext(ctx, "subscribed to live books", slog.Int("tokens", len(fresh)))
	return nil
}
