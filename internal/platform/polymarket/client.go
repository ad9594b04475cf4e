// Package polymarket is the read-only ingestion adapter for the Polymarket
// CLOB and Gamma APIs. It fetches markets and orderbooks and normalizes them
// into domain types; it never places orders.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// PlatformName is the canonical venue identifier used across the system.
const PlatformName = "polymarket"

// Client talks to the Polymarket CLOB API (orderbooks) and Gamma API
// (market discovery). Both are unauthenticated for read access.
type Client struct {
	clobHost   string
	gammaHost  string
	httpClient *http.Client
}

// New creates a Polymarket client.
//
// clobHost is the CLOB API root, e.g. "https://clob.polymarket.com".
// gammaHost is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func New(clobHost, gammaHost string) *Client {
	return &Client{
		clobHost:  clobHost,
		gammaHost: gammaHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Platform implements domain.VenueClient.
func (c *Client) Platform() string { return PlatformName }

// ListMarkets returns up to limit active binary markets normalized into
// the cross-venue record. Markets without a parseable YES price are skipped.
func (c *Client) ListMarkets(ctx context.Context, limit int) ([]domain.NormalizedMarket, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := c.doGet(ctx, c.gammaHost, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: list markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket: decode markets: %w", err)
	}

	markets := make([]domain.NormalizedMarket, 0, len(apiMarkets))
	for i := range apiMarkets {
		nm := apiMarkets[i].ToNormalizedMarket()
		if nm.YesProbability <= 0 || nm.YesProbability >= 1 {
			continue
		}
		markets = append(markets, nm)
	}

	return markets, nil
}

// ListTokenIDs returns the outcome token IDs of up to limit active markets,
// for feeding live book subscriptions.
func (c *Client) ListTokenIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := c.doGet(ctx, c.gammaHost, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket: list token ids: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket: decode markets: %w", err)
	}

	var tokens []string
	for i := range apiMarkets {
		tokens = append(tokens, apiMarkets[i].TokenIDs()...)
	}
	return tokens, nil
}

// FetchBook returns the normalized orderbook for one outcome token.
func (c *Client) FetchBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, c.clobHost, "/book?"+params.Encode())
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket: fetch book %s: %w", tokenID, err)
	}

	var apiBook APIBook
	if err := json.Unmarshal(body, &apiBook); err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket: decode book: %w", err)
	}

	book := apiBook.ToOrderBook()
	if book.TokenID == "" {
		book.TokenID = tokenID
	}
	return book, nil
}

// FetchMarketBooks resolves a market's YES and NO token IDs via Gamma and
// fetches both books concurrently.
func (c *Client) FetchMarketBooks(ctx context.Context, marketID string) (domain.MarketBooks, error) {
	m, err := c.getMarket(ctx, marketID)
	if err != nil {
		return domain.MarketBooks{}, err
	}

	tokens := m.TokenIDs()
	if len(tokens) < 2 {
		return domain.MarketBooks{}, fmt.Errorf("polymarket: market %s: %w: missing outcome tokens", marketID, domain.ErrBadUpstream)
	}

	books := domain.MarketBooks{
		MarketID:  marketID,
		Question:  m.Question,
		FetchedAt: time.Now().UTC(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books.Yes, err = c.FetchBook(gctx, tokens[0])
		return err
	})
	g.Go(func() error {
		var err error
		books.No, err = c.FetchBook(gctx, tokens[1])
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MarketBooks{}, err
	}

	books.Yes.MarketID = marketID
	books.No.MarketID = marketID
	return books, nil
}

// getMarket fetches a single Gamma market by ID.
func (c *Client) getMarket(ctx context.Context, id string) (APIMarket, error) {
	body, err := c.doGet(ctx, c.gammaHost, "/markets/"+url.PathEscape(id))
	if err != nil {
		return APIMarket{}, fmt.Errorf("polymarket: get market %s: %w", id, err)
	}

	var m APIMarket
	if err := json.Unmarshal(body, &m); err != nil {
		return APIMarket{}, fmt.Errorf("polymarket: decode market: %w", err)
	}
	return m, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request and returns the raw body.
func (c *Client) doGet(ctx context.Context, host, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrBadUpstream, statusCode, bodyStr)
	}
}
