package domain

// PayoffResult converts an execution into resolution P&L under both outcomes.
// MaxLoss <= 0 <= MaxGain unless the fill was empty (all zeros then).
type PayoffResult struct {
	Side               Side    `json:"side"`
	Outcome            Outcome `json:"outcome"`
	Contracts          float64 `json:"contracts"`
	EntryPrice         float64 `json:"entry_price"`
	TotalCost          float64 `json:"total_cost"`
	PnLIfYes           float64 `json:"pnl_if_yes"`
	ReturnIfYes        float64 `json:"return_if_yes"` // percent
	PnLIfNo            float64 `json:"pnl_if_no"`
	ReturnIfNo         float64 `json:"return_if_no"` // percent
	MaxGain            float64 `json:"max_gain"`
	MaxLoss            float64 `json:"max_loss"`
	CapitalAtRisk      float64 `json:"capital_at_risk"`
	ImpliedProbability float64 `json:"implied_probability"`
}

// CombinedPayoff aggregates cost and scenario P&L across the legs of a
// multi-leg or hedged position.
type CombinedPayoff struct {
	Legs      int     `json:"legs"`
	TotalCost float64 `json:"total_cost"`
	PnLIfYes  float64 `json:"pnl_if_yes"`
	PnLIfNo   float64 `json:"pnl_if_no"`
	MaxGain   float64 `json:"max_gain"`
	MaxLoss   float64 `json:"max_loss"`
}

// KellyResult is the growth-optimal bankroll fraction for a directional bet,
// clamped to zero when there is no edge.
type KellyResult struct {
	Fraction    float64 `json:"fraction"`
	Edge        float64 `json:"edge"`
	WinProb     float64 `json:"win_prob"`
	LoseProb    float64 `json:"lose_prob"`
	PayoffRatio float64 `json:"payoff_ratio"` // win payoff per unit lost
}
