package domain

// Fill records the portion of a simulated order taken at one price level.
// CumulativeSize is the running filled total after this level.
type Fill struct {
	Price          float64 `json:"price"`
	Size           float64 `json:"size"`
	CumulativeSize float64 `json:"cumulative_size"`
}

// ExecutionResult is the outcome of walking an order of RequestedSize through
// a book's levels. FilledSize <= RequestedSize always, and
// PartialFill == (RemainingSize > 0).
//
// Slippage sign convention: positive means the walk made the price worse for
// the taker (paid more on a BUY, received less on a SELL).
type ExecutionResult struct {
	Side             Side    `json:"side"`
	Outcome          Outcome `json:"outcome"`
	RequestedSize    float64 `json:"requested_size"`
	FilledSize       float64 `json:"filled_size"`
	AveragePrice     float64 `json:"average_price"`
	TotalCost        float64 `json:"total_cost"`
	BestPrice        float64 `json:"best_price"`
	WorstPrice       float64 `json:"worst_price"`
	SlippageFromBest float64 `json:"slippage_from_best"`
	SlippagePercent  float64 `json:"slippage_percent"`
	Fills            []Fill  `json:"fills"`
	PartialFill      bool    `json:"partial_fill"`
	RemainingSize    float64 `json:"remaining_size"`
}
