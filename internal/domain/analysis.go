package domain

// OrderBookAnalysis is a descriptive spread/depth/imbalance snapshot derived
// from one OrderBook. It never simulates an order and is never mutated.
type OrderBookAnalysis struct {
	MarketID         string  `json:"market_id"`
	TokenID          string  `json:"token_id"`
	BestBid          float64 `json:"best_bid"`
	BestAsk          float64 `json:"best_ask"`
	Spread           float64 `json:"spread"`
	SpreadPercent    float64 `json:"spread_percent"`
	Midpoint         float64 `json:"midpoint"`
	BidDepthTotal    float64 `json:"bid_depth_total"`
	AskDepthTotal    float64 `json:"ask_depth_total"`
	DepthImbalance   float64 `json:"depth_imbalance"` // (bid-ask)/(bid+ask), in [-1,1]
	SizeToMoveBid1Pc float64 `json:"size_to_move_bid_1pc"`
	SizeToMoveAsk1Pc float64 `json:"size_to_move_ask_1pc"`
	BidLevelCount    int     `json:"bid_level_count"`
	AskLevelCount    int     `json:"ask_level_count"`
	AverageLevelSize float64 `json:"average_level_size"`
}

// SlippageBound is the largest size tradeable on one side of a book before
// the touched price exceeds a slippage tolerance, and the price of the last
// level still inside the tolerance.
type SlippageBound struct {
	MaxSize    float64 `json:"max_size"`
	PriceAtMax float64 `json:"price_at_max"`
}
