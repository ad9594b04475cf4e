// Package service contains the application services that tie the venue
// adapters, analytics engine, caches, and stores together.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// Per-venue request budget applied through the distributed rate limiter.
const (
	venueRateLimit  = 10
	venueRateWindow = time.Second
)

// BookService fetches orderbooks from the configured venues with caching
// and distributed rate limiting in front of the venue APIs.
type BookService struct {
	venues  map[string]domain.VenueClient
	cache   domain.BookCache
	limiter domain.RateLimiter
	logger  *slog.Logger
}

// NewBookService creates a BookService. cache and limiter may be nil, in
// which case every request goes straight to the venue.
func NewBookService(venues []domain.VenueClient, cache domain.BookCache, limiter domain.RateLimiter, logger *slog.Logger) *BookService {
	byName := make(map[string]domain.VenueClient, len(venues))
	for _, v := range venues {
		byName[v.Platform()] = v
	}
	return &BookService{
		venues:  byName,
		cache:   cache,
		limiter: limiter,
		logger:  logger.With(slog.String("component", "book_service")),
	}
}

// Venue returns the client for a venue name, or domain.ErrNotFound.
func (s *BookService) Venue(name string) (domain.VenueClient, error) {
	v, ok := s.venues[name]
	if !ok {
		return nil, fmt.Errorf("book_service: venue %q: %w", name, domain.ErrNotFound)
	}
	return v, nil
}

// GetBook returns the book for one outcome token, preferring the cache and
// falling through to the venue API on a miss. Fresh fetches are written
// back to the cache.
func (s *BookService) GetBook(ctx context.Context, venue, tokenID string) (domain.OrderBook, error) {
	v, err := s.Venue(venue)
	if err != nil {
		return domain.OrderBook{}, err
	}

	if s.cache != nil {
		book, err := s.cache.GetBook(ctx, tokenID)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "book cache read failed",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.allow(ctx, venue); err != nil {
		return domain.OrderBook{}, err
	}

	book, err := v.FetchBook(ctx, tokenID)
	if err != nil {
		return domain.OrderBook{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetBook(ctx, book); err != nil {
			s.logger.WarnContext(ctx, "book cache write failed",
				slog.String("token_id", tokenID),
				slog.String("error", err.Error()),
			)
		}
	}
	return book, nil
}

// GetMarketBooks returns both outcome books of a market, always fetched
// fresh so the YES and NO sides share one point in time.
func (s *BookService) GetMarketBooks(ctx context.Context, venue, marketID string) (domain.MarketBooks, error) {
	v, err := s.Venue(venue)
	if err != nil {
		return domain.MarketBooks{}, err
	}

	if err := s.allow(ctx, venue); err != nil {
		return domain.MarketBooks{}, err
	}

	return v.FetchMarketBooks(ctx, marketID)
}

// allow consumes one request slot from the venue's rate budget.
func (s *BookService) allow(ctx context.Context, venue string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, "venue:"+venue, venueRateLimit, venueRateWindow)
	if err != nil {
		// A broken limiter must not take the read path down with it.
		s.logger.WarnContext(ctx, "rate limiter unavailable",
			slog.String("venue", venue),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !ok {
		return fmt.Errorf("book_service: venue %s: %w", venue, domain.ErrRateLimited)
	}
	return nil
}
