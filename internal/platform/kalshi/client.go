// Package kalshi is the read-only ingestion adapter for the Kalshi exchange
// API. Market-data requests must be RSA-signed even though no orders are
// ever placed.
package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// PlatformName is the canonical venue identifier used across the system.
const PlatformName = "kalshi"

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// apiKeyID is the Kalshi API key identifier.
func NewClient(baseURL, apiKeyID string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKeyID: apiKeyID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for RSA-signed authentication.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 as fallback.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// LoadRSAPrivateKeyFile reads and installs the PEM private key at path.
func (c *Client) LoadRSAPrivateKeyFile(path string) error {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("kalshi: read private key %s: %w", path, err)
	}
	return c.SetRSAPrivateKey(pemBytes)
}

// Platform implements domain.VenueClient.
func (c *Client) Platform() string { return PlatformName }

// ListMarkets returns up to limit open markets normalized into the
// cross-venue record. Markets without a usable YES probability are skipped.
func (c *Client) ListMarkets(ctx context.Context, limit int) ([]domain.NormalizedMarket, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("status", "open")

	body, err := c.doSignedRequest(ctx, http.MethodGet, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("kalshi: list markets: %w", err)
	}

	var resp struct {
		Markets []APIMarket `json:"markets"`
		Cursor  string      `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kalshi: decode markets: %w", err)
	}

	markets := make([]domain.NormalizedMarket, 0, len(resp.Markets))
	for i := range resp.Markets {
		nm := resp.Markets[i].ToNormalizedMarket()
		if nm.YesProbability <= 0 || nm.YesProbability >= 1 {
			continue
		}
		markets = append(markets, nm)
	}

	return markets, nil
}

// FetchBook returns the normalized book for one outcome. The id is the
// market ticker optionally suffixed with ":yes" or ":no"; a bare ticker
// means the YES outcome.
func (c *Client) FetchBook(ctx context.Context, id string) (domain.OrderBook, error) {
	ticker, outcome := splitTicker(id)

	raw, err := c.getOrderbook(ctx, ticker)
	if err != nil {
		return domain.OrderBook{}, err
	}

	if outcome == "no" {
		return raw.NoBook(ticker), nil
	}
	return raw.YesBook(ticker), nil
}

// FetchMarketBooks fetches the market title and orderbook concurrently and
// returns both outcome views of the single Kalshi book.
func (c *Client) FetchMarketBooks(ctx context.Context, ticker string) (domain.MarketBooks, error) {
	var (
		market APIMarket
		raw    APIOrderbook
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		market, err = c.getMarket(gctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		raw, err = c.getOrderbook(gctx, ticker)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.MarketBooks{}, err
	}

	return domain.MarketBooks{
		MarketID:  ticker,
		Question:  market.Title,
		Yes:       raw.YesBook(ticker),
		No:        raw.NoBook(ticker),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// getMarket returns a single market by its ticker.
func (c *Client) getMarket(ctx context.Context, ticker string) (APIMarket, error) {
	body, err := c.doSignedRequest(ctx, http.MethodGet, "/markets/"+url.PathEscape(ticker))
	if err != nil {
		return APIMarket{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market APIMarket `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return APIMarket{}, fmt.Errorf("kalshi: decode market: %w", err)
	}

	return resp.Market, nil
}

// getOrderbook returns the raw orderbook for the given market ticker.
func (c *Client) getOrderbook(ctx context.Context, ticker string) (APIOrderbook, error) {
	path := fmt.Sprintf("/markets/%s/orderbook", url.PathEscape(ticker))

	body, err := c.doSignedRequest(ctx, http.MethodGet, path)
	if err != nil {
		return APIOrderbook{}, fmt.Errorf("kalshi: get orderbook %s: %w", ticker, err)
	}

	var resp struct {
		Orderbook APIOrderbook `json:"orderbook"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return APIOrderbook{}, fmt.Errorf("kalshi: decode orderbook: %w", err)
	}

	return resp.Orderbook, nil
}

// splitTicker splits "TICKER:no" into ("TICKER", "no"). A bare ticker
// yields outcome "yes".
func splitTicker(id string) (ticker, outcome string) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == ':' {
			return id[:i], id[i+1:]
		}
	}
	return id, "yes"
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doSignedRequest builds, signs (RSA), sends, and reads a GET request
// against the Kalshi API.
func (c *Client) doSignedRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if err := c.signRequest(req, method, path); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// signRequest adds RSA authentication headers to the HTTP request.
// Kalshi uses RSA-PSS-SHA256 signatures over the timestamp + method + path
// message string. The query string is excluded from the signed path.
func (c *Client) signRequest(req *http.Request, method, path string) error {
	if c.privateKey == nil {
		return fmt.Errorf("kalshi: RSA private key not configured")
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)

	signedPath := path
	for i := range signedPath {
		if signedPath[i] == '?' {
			signedPath = signedPath[:i]
			break
		}
	}
	message := ts + method + signedPath

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	encodedSig := base64.StdEncoding.EncodeToString(signature)

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", encodedSig)
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)

	return nil
}

// checkStatus maps non-2xx HTTP status codes to domain errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr APIError
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, apiErr.Message, apiErr.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnauthorized, apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("%w: HTTP %d: %s (%s)", domain.ErrBadUpstream, statusCode, apiErr.Message, apiErr.Code)
	}
}
