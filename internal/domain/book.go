package domain

import "time"

// Side is the direction of a hypothetical order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Outcome identifies which leg of a binary market an order targets.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// PriceLevel is a single price+size entry in an orderbook. Prices are
// probabilities in [0,1]; adapters drop zero-size levels before the core
// ever sees them.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is a normalized snapshot of one outcome token's book. Bids are
// sorted descending by price and asks ascending; the producing adapter
// enforces this, the level-walking code relies on it without re-checking.
type OrderBook struct {
	MarketID  string       `json:"market_id"`
	TokenID   string       `json:"token_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// MarketBooks pairs the YES and NO outcome books of one binary market.
// Built fresh per request, never persisted.
type MarketBooks struct {
	MarketID  string    `json:"market_id"`
	Question  string    `json:"question"`
	Yes       OrderBook `json:"yes"`
	No        OrderBook `json:"no"`
	FetchedAt time.Time `json:"fetched_at"`
}

// TradeInput describes a hypothetical order to simulate against a book.
// Constructed by the caller, consumed once, immutable.
type TradeInput struct {
	Side    Side    `json:"side"`
	Outcome Outcome `json:"outcome"`
	Size    float64 `json:"size"` // contracts, must be > 0
}
