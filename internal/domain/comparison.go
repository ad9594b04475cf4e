package domain

// MarketRef identifies one market on one venue.
type MarketRef struct {
	Venue    string `json:"venue"`
	MarketID string `json:"market_id"`
}

// MarketExecSummary is the per-market slice of a comparison: the analyses and
// simulated executions of both outcome books.
type MarketExecSummary struct {
	MarketID    string            `json:"market_id"`
	Question    string            `json:"question"`
	YesAnalysis OrderBookAnalysis `json:"yes_analysis"`
	NoAnalysis  OrderBookAnalysis `json:"no_analysis"`
	YesExec     ExecutionResult   `json:"yes_exec"`
	NoExec      ExecutionResult   `json:"no_exec"`
	YesNoSum    float64           `json:"yes_no_sum"` // YES+NO execution price sum
}

// MarketComparisonResult is the inefficiency/risk signal set produced by
// comparing two related markets at a given trade size.
type MarketComparisonResult struct {
	MarketA            MarketExecSummary `json:"market_a"`
	MarketB            MarketExecSummary `json:"market_b"`
	TradeSize          float64           `json:"trade_size"`
	PriceDifferenceYes float64           `json:"price_difference_yes"` // A minus B
	PriceDifferenceNo  float64           `json:"price_difference_no"`
	ApparentArbitrage  bool              `json:"apparent_arbitrage"`
	ArbitrageEdge      float64           `json:"arbitrage_edge"`
	ArbitrageDetail    string            `json:"arbitrage_detail,omitempty"`
	MaxViableSize      float64           `json:"max_viable_size"`
	SlippageAtSize     float64           `json:"slippage_at_size"` // sum of all four legs' slippage %
	DominanceViolation bool              `json:"dominance_violation"`
	RiskSignals        []string          `json:"risk_signals"`
}

// EfficiencyResult classifies a single market's YES+NO execution pricing.
type EfficiencyResult struct {
	MarketID    string  `json:"market_id"`
	TradeSize   float64 `json:"trade_size"`
	YesPrice    float64 `json:"yes_price"`
	NoPrice     float64 `json:"no_price"`
	Sum         float64 `json:"sum"`
	Vig         float64 `json:"vig"` // amount YES+NO exceeds 1, zero if it does not
	IsEfficient bool    `json:"is_efficient"`
	Assessment  string  `json:"assessment"` // "underpriced", "overpriced", "efficiently priced"
}

// ExhaustionResult is the largest ladder size at which combined slippage on
// two books has not yet consumed an initial edge.
type ExhaustionResult struct {
	Size           float64 `json:"size"`
	RemainingEdge  float64 `json:"remaining_edge"`   // percentage points
	SlippageAtSize float64 `json:"slippage_at_size"` // combined slippage %
}
