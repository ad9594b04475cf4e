package discrepancy

import "github.com/mihirgan06/Arbiter/internal/domain"

// Liquidity tiers for the cross-platform arbitrage confidence estimate.
const (
	arbHighLiquidity = 10_000
	arbMidLiquidity  = 1_000
)

// CheckArbitrage runs the simplified cross-platform check: buy YES on the
// venue quoting it low and NO on the venue quoting YES high; if the combined
// cost is under 1 the position pays out regardless of resolution. Liquidity
// values of 0 mean the venue did not report any.
//
// This is a quoted-probability heuristic; it ignores execution slippage and
// the possibility that the two questions resolve differently.
func CheckArbitrage(lowYes, highYes, lowLiquidity, highLiquidity float64) domain.ArbOpportunity {
	combined := lowYes + (1 - highYes)
	opp := domain.ArbOpportunity{CombinedCost: combined}
	if combined >= 1 || combined <= 0 {
		return opp
	}

	opp.Exists = true
	opp.TheoreticalReturn = (1 - combined) / combined * 100

	minLiquidity := lowLiquidity
	if highLiquidity < minLiquidity {
		minLiquidity = highLiquidity
	}
	switch {
	case minLiquidity >= arbHighLiquidity:
		opp.Confidence = 0.9
	case minLiquidity >= arbMidLiquidity:
		opp.Confidence = 0.7
	default:
		opp.Confidence = 0.5
	}
	return opp
}
