package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// MarketCache implements domain.MarketCache with one JSON-serialized market
// list per venue.
//
// Key schema:
//
//	markets:{platform} - JSON-encoded []domain.NormalizedMarket
type MarketCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMarketCache creates a MarketCache backed by the given Client.
func NewMarketCache(c *Client, ttl time.Duration) *MarketCache {
	return &MarketCache{rdb: c.Underlying(), ttl: ttl}
}

func marketsKey(platform string) string { return "markets:" + platform }

// SetMarkets replaces the cached market list for a venue.
func (mc *MarketCache) SetMarkets(ctx context.Context, platform string, markets []domain.NormalizedMarket) error {
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("redis: marshal markets %s: %w", platform, err)
	}

	if err := mc.rdb.Set(ctx, marketsKey(platform), data, mc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set markets %s: %w", platform, err)
	}
	return nil
}

// GetMarkets returns the cached market list for a venue, or domain.ErrNotFound
// if the venue has not been scanned within the TTL.
func (mc *MarketCache) GetMarkets(ctx context.Context, platform string) ([]domain.NormalizedMarket, error) {
	data, err := mc.rdb.Get(ctx, marketsKey(platform)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis: markets %s: %w", platform, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("redis: get markets %s: %w", platform, err)
	}

	var markets []domain.NormalizedMarket
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("redis: unmarshal markets %s: %w", platform, err)
	}
	return markets, nil
}

// Compile-time interface check.
var _ domain.MarketCache = (*MarketCache)(nil)
