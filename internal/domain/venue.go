package domain

import "context"

// VenueClient is a venue-specific ingestion adapter. Implementations own all
// unit conversion (cents to probability, string decimals) and must return
// books with bids sorted descending and asks ascending, zero-size levels
// removed; the analytics core relies on those preconditions.
type VenueClient interface {
	Platform() string
	ListMarkets(ctx context.Context, limit int) ([]NormalizedMarket, error)
	FetchBook(ctx context.Context, id string) (OrderBook, error)
	FetchMarketBooks(ctx context.Context, id string) (MarketBooks, error)
}

// NewsProvider returns news items related to a free-text query, best first.
// Implementations should degrade to an empty slice rather than fail a scan.
type NewsProvider interface {
	Search(ctx context.Context, query string, limit int) ([]NewsCorrelation, error)
}
