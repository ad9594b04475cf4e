package domain

import "time"

// NormalizedMarket is the cross-venue canonical market record produced by
// ingestion adapters. Probabilities are already unit-converted (e.g. Kalshi
// cents divided by 100); the core treats the record as read-only input.
type NormalizedMarket struct {
	ExternalID     string     `json:"external_id"`
	Platform       string     `json:"platform"` // "polymarket", "kalshi"
	Question       string     `json:"question"`
	Category       string     `json:"category"`
	YesProbability float64    `json:"yes_probability"` // in [0,1]
	NoProbability  float64    `json:"no_probability"`  // in [0,1]
	Volume         float64    `json:"volume,omitempty"`
	Liquidity      float64    `json:"liquidity,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	LastUpdated    time.Time  `json:"last_updated"`
}

// MarketQuote is one platform's quoted probability inside a discrepancy group.
type MarketQuote struct {
	Platform       string  `json:"platform"`
	ExternalID     string  `json:"external_id"`
	Question       string  `json:"question"`
	YesProbability float64 `json:"yes_probability"`
	Liquidity      float64 `json:"liquidity,omitempty"`
	Volume         float64 `json:"volume,omitempty"`
}

// NewsCorrelation is a news item the news collaborator considers related to a
// market question.
type NewsCorrelation struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Relevance   float64   `json:"relevance"` // in [0,1]
}

// DiscrepancyResult is one matched question whose quoted probabilities
// diverge across venues.
type DiscrepancyResult struct {
	EventSlug     string            `json:"event_slug"`
	EventTitle    string            `json:"event_title"`
	Markets       []MarketQuote     `json:"markets"`
	MaxSpread     float64           `json:"max_spread"` // in [0,1]
	SpreadPercent float64           `json:"spread_percent"`
	Confidence    float64           `json:"confidence"` // in [0,1]
	LikelyDrivers []NewsCorrelation `json:"likely_drivers,omitempty"`
}

// ArbOpportunity is the simplified cross-platform check: buying YES cheap on
// one venue and NO on the other for a combined cost under 1.
type ArbOpportunity struct {
	Exists            bool    `json:"exists"`
	TheoreticalReturn float64 `json:"theoretical_return"` // percent
	CombinedCost      float64 `json:"combined_cost"`
	Confidence        float64 `json:"confidence"`
}
