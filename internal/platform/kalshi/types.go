package kalshi

import (
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Kalshi REST API. All
// prices are integer cents (1-99).
type APIMarket struct {
	Ticker         string `json:"ticker"`
	EventTicker    string `json:"event_ticker"`
	Title          string `json:"title"`
	Subtitle       string `json:"subtitle"`
	Status         string `json:"status"` // "open", "closed", "settled"
	YesBid         int64  `json:"yes_bid"`
	YesAsk         int64  `json:"yes_ask"`
	NoBid          int64  `json:"no_bid"`
	NoAsk          int64  `json:"no_ask"`
	LastPrice      int64  `json:"last_price"`
	Volume         int64  `json:"volume"`
	Liquidity      int64  `json:"liquidity"` // cents
	OpenInterest   int64  `json:"open_interest"`
	Category       string `json:"category"`
	Result         string `json:"result"` // "yes", "no", "" (unsettled)
	CloseTime      string `json:"close_time"`
	ExpirationTime string `json:"expiration_time"`
}

// APIOrderbook is the raw orderbook for a Kalshi market. Levels arrive as
// [price_cents, quantity] pairs, best price last.
type APIOrderbook struct {
	Yes [][2]int64 `json:"yes"`
	No  [][2]int64 `json:"no"`
}

// APIError represents a Kalshi API error response body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Conversion helpers
// --------------------------------------------------------------------------

// ToNormalizedMarket converts a Kalshi market to the canonical cross-venue
// record. The YES probability is the bid/ask midpoint when both sides are
// quoted, falling back to the last trade price.
func (m *APIMarket) ToNormalizedMarket() domain.NormalizedMarket {
	nm := domain.NormalizedMarket{
		ExternalID:  m.Ticker,
		Platform:    PlatformName,
		Question:    m.Title,
		Category:    m.Category,
		Volume:      float64(m.Volume),
		Liquidity:   float64(m.Liquidity) / 100,
		LastUpdated: time.Now().UTC(),
	}

	switch {
	case m.YesBid > 0 && m.YesAsk > 0:
		nm.YesProbability = float64(m.YesBid+m.YesAsk) / 2 / 100
	case m.LastPrice > 0:
		nm.YesProbability = float64(m.LastPrice) / 100
	}
	nm.NoProbability = 1 - nm.YesProbability

	if m.CloseTime != "" {
		if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
			nm.EndDate = &t
		}
	}

	return nm
}

// YesBook converts the raw orderbook into a normalized YES-outcome book.
// Kalshi only publishes resting bids on each side, so YES asks are derived
// from NO bids: a resting NO bid at c cents is willing to sell YES at 1-c/100.
func (b *APIOrderbook) YesBook(ticker string) domain.OrderBook {
	return domain.OrderBook{
		MarketID:  ticker,
		TokenID:   ticker + ":yes",
		Bids:      bidsFromCents(b.Yes),
		Asks:      asksFromOpposite(b.No),
		Timestamp: time.Now().UTC(),
	}
}

// NoBook is the mirror of YesBook for the NO outcome.
func (b *APIOrderbook) NoBook(ticker string) domain.OrderBook {
	return domain.OrderBook{
		MarketID:  ticker,
		TokenID:   ticker + ":no",
		Bids:      bidsFromCents(b.No),
		Asks:      asksFromOpposite(b.Yes),
		Timestamp: time.Now().UTC(),
	}
}

// bidsFromCents converts [price_cents, qty] pairs into probability-priced
// bids sorted descending. Kalshi lists levels best-last, so the slice is
// walked in reverse.
func bidsFromCents(levels [][2]int64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for i := len(levels) - 1; i >= 0; i-- {
		price, qty := levels[i][0], levels[i][1]
		if qty <= 0 {
			continue
		}
		out = append(out, domain.PriceLevel{
			Price: float64(price) / 100,
			Size:  float64(qty),
		})
	}
	return out
}

// asksFromOpposite derives the ask ladder for one outcome from the opposite
// outcome's resting bids (ask = 1 - opposite_bid), sorted ascending.
func asksFromOpposite(levels [][2]int64) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for i := len(levels) - 1; i >= 0; i-- {
		price, qty := levels[i][0], levels[i][1]
		if qty <= 0 {
			continue
		}
		out = append(out, domain.PriceLevel{
			Price: 1 - float64(price)/100,
			Size:  float64(qty),
		})
	}
	return out
}
