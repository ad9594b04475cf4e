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

// BookCache implements domain.BookCache with one JSON-serialized snapshot
// per outcome token.
//
// Key schema:
//
//	book:{tokenID} - JSON-encoded domain.OrderBook
type BookCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBookCache creates a BookCache backed by the given Client. Snapshots
// expire after ttl so a stalled feed cannot serve hours-old books.
func NewBookCache(c *Client, ttl time.Duration) *BookCache {
	return &BookCache{rdb: c.Underlying(), ttl: ttl}
}

func bookKey(tokenID string) string { return "book:" + tokenID }

// SetBook stores the latest snapshot for a token, replacing any previous one.
func (bc *BookCache) SetBook(ctx context.Context, book domain.OrderBook) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("redis: marshal book %s: %w", book.TokenID, err)
	}

	if err := bc.rdb.Set(ctx, bookKey(book.TokenID), data, bc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set book %s: %w", book.TokenID, err)
	}
	return nil
}

// GetBook returns the cached snapshot for a token, or domain.ErrNotFound if
// none exists or it has expired.
func (bc *BookCache) GetBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	data, err := bc.rdb.Get(ctx, bookKey(tokenID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OrderBook{}, fmt.Errorf("redis: book %s: %w", tokenID, domain.ErrNotFound)
		}
		return domain.OrderBook{}, fmt.Errorf("redis: get book %s: %w", tokenID, err)
	}

	var book domain.OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: unmarshal book %s: %w", tokenID, err)
	}
	return book, nil
}

// Compile-time interface check.
var _ domain.BookCache = (*BookCache)(nil)
