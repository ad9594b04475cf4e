package domain

import (
	"context"
	"time"
)

// BookCache stores the latest normalized orderbook per token.
type BookCache interface {
	SetBook(ctx context.Context, book OrderBook) error
	GetBook(ctx context.Context, tokenID string) (OrderBook, error)
}

// MarketCache stores the latest normalized market records per venue.
type MarketCache interface {
	SetMarkets(ctx context.Context, platform string, markets []NormalizedMarket) error
	GetMarkets(ctx context.Context, platform string) ([]NormalizedMarket, error)
}

// RateLimiter provides distributed rate limiting for venue API calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage is a single entry read back from a signal stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub fan-out and durable streams for detected
// signals (discrepancies, comparison results).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
