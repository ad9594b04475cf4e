package engine

import (
	"fmt"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// Comparator thresholds. "Arbitrage" here is always a heuristic,
// execution-aware approximation, never a guaranteed risk-free trade.
const (
	// sameMarketArbThreshold leaves a 2% fee allowance below parity before a
	// YES+NO execution sum counts as apparently arbitrageable.
	sameMarketArbThreshold = 0.98
	// crossMarketDiffThreshold is the executed-price gap between two related
	// markets that counts as an inefficiency signal (not arbitrage: the
	// markets may cover related-but-distinct events).
	crossMarketDiffThreshold = 0.05
	// dominanceCeiling is the YES+NO execution sum above which pricing is
	// economically inconsistent rather than ordinary vig.
	dominanceCeiling = 1.05
	// maxSearchSize bounds the viable-size binary search.
	maxSearchSize = 10000

	wideSpreadPercent    = 5.0
	depthUsageFraction   = 0.5
	imbalanceSignalLimit = 0.5
	overpricedVigCeiling = 1.02
)

// exhaustionLadder is the fixed size ladder walked by ExhaustionPoint.
var exhaustionLadder = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// CompareMarkets combines execution pricing and book analysis for two related
// markets into inefficiency, dominance-violation, and risk signals at the
// given trade size.
func CompareMarkets(a, b domain.MarketBooks, tradeSize float64) domain.MarketComparisonResult {
	sumA := summarizeMarket(a, tradeSize)
	sumB := summarizeMarket(b, tradeSize)

	res := domain.MarketComparisonResult{
		MarketA:            sumA,
		MarketB:            sumB,
		TradeSize:          tradeSize,
		PriceDifferenceYes: sumA.YesExec.AveragePrice - sumB.YesExec.AveragePrice,
		PriceDifferenceNo:  sumA.NoExec.AveragePrice - sumB.NoExec.AveragePrice,
		RiskSignals:        []string{},
	}

	// Same-market parity first: a filled YES+NO sum under the fee allowance
	// is the closest thing to true arbitrage this model reports.
	switch {
	case sumA.YesNoSum > 0 && sumA.YesNoSum < sameMarketArbThreshold:
		res.ApparentArbitrage = true
		res.ArbitrageEdge = 1 - sumA.YesNoSum
		res.ArbitrageDetail = fmt.Sprintf("market %s YES+NO executes at %.4f, edge %.2f%%",
			sumA.MarketID, sumA.YesNoSum, res.ArbitrageEdge*100)
	case sumB.YesNoSum > 0 && sumB.YesNoSum < sameMarketArbThreshold:
		res.ApparentArbitrage = true
		res.ArbitrageEdge = 1 - sumB.YesNoSum
		res.ArbitrageDetail = fmt.Sprintf("market %s YES+NO executes at %.4f, edge %.2f%%",
			sumB.MarketID, sumB.YesNoSum, res.ArbitrageEdge*100)
	case abs(res.PriceDifferenceYes) > crossMarketDiffThreshold || abs(res.PriceDifferenceNo) > crossMarketDiffThreshold:
		// Cross-market gaps are flagged as inefficiency, never arbitrage.
		res.ApparentArbitrage = false
		res.ArbitrageEdge = abs(res.PriceDifferenceYes)
		if d := abs(res.PriceDifferenceNo); d > res.ArbitrageEdge {
			res.ArbitrageEdge = d
		}
		res.ArbitrageDetail = fmt.Sprintf("cross-market executed-price gap %.4f between %s and %s (related markets, not arbitrage)",
			res.ArbitrageEdge, sumA.MarketID, sumB.MarketID)
	}

	res.DominanceViolation = sumA.YesNoSum > dominanceCeiling || sumB.YesNoSum > dominanceCeiling ||
		priceOutOfRange(sumA.YesExec) || priceOutOfRange(sumA.NoExec) ||
		priceOutOfRange(sumB.YesExec) || priceOutOfRange(sumB.NoExec)

	if res.ArbitrageEdge > 0 {
		res.MaxViableSize = maxViableSize(a.Yes, b.Yes, res.ArbitrageEdge)
	}

	res.SlippageAtSize = sumA.YesExec.SlippagePercent + sumA.NoExec.SlippagePercent +
		sumB.YesExec.SlippagePercent + sumB.NoExec.SlippagePercent

	res.RiskSignals = append(res.RiskSignals, riskSignals(sumA, sumB, tradeSize)...)

	return res
}

// summarizeMarket analyzes both outcome books and prices a BUY of tradeSize
// on each.
func summarizeMarket(m domain.MarketBooks, tradeSize float64) domain.MarketExecSummary {
	s := domain.MarketExecSummary{
		MarketID:    m.MarketID,
		Question:    m.Question,
		YesAnalysis: AnalyzeBook(m.Yes),
		NoAnalysis:  AnalyzeBook(m.No),
		YesExec:     PriceExecution(m.Yes, domain.TradeInput{Side: domain.SideBuy, Outcome: domain.OutcomeYes, Size: tradeSize}),
		NoExec:      PriceExecution(m.No, domain.TradeInput{Side: domain.SideBuy, Outcome: domain.OutcomeNo, Size: tradeSize}),
	}
	s.YesNoSum = s.YesExec.AveragePrice + s.NoExec.AveragePrice
	return s
}

func priceOutOfRange(exec domain.ExecutionResult) bool {
	return exec.AveragePrice < 0 || exec.AveragePrice > 1
}

// maxViableSize binary-searches integer sizes in [0, maxSearchSize] for the
// largest size whose combined slippage has not consumed the edge.
//
// This assumes edge-minus-slippage is monotonically decreasing in size, which
// need not hold for irregular books (a thin level followed by a deep better
// one); treat the result as approximate.
func maxViableSize(bookA, bookB domain.OrderBook, edge float64) float64 {
	viableAt := func(size float64) bool {
		slipA := PriceExecution(bookA, domain.TradeInput{Side: domain.SideBuy, Outcome: domain.OutcomeYes, Size: size}).SlippagePercent
		slipB := PriceExecution(bookB, domain.TradeInput{Side: domain.SideBuy, Outcome: domain.OutcomeYes, Size: size}).SlippagePercent
		return edge*100-(slipA+slipB) > 0
	}

	lo, hi := 0, maxSearchSize
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if viableAt(float64(mid)) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return float64(lo)
}

// riskSignals appends every triggered warning; the checks are independent and
// order-insensitive.
func riskSignals(a, b domain.MarketExecSummary, tradeSize float64) []string {
	var signals []string

	analyses := []struct {
		name string
		an   domain.OrderBookAnalysis
	}{
		{"market " + a.MarketID + " YES", a.YesAnalysis},
		{"market " + a.MarketID + " NO", a.NoAnalysis},
		{"market " + b.MarketID + " YES", b.YesAnalysis},
		{"market " + b.MarketID + " NO", b.NoAnalysis},
	}

	maxSpread := 0.0
	for _, e := range analyses {
		if e.an.SpreadPercent > maxSpread {
			maxSpread = e.an.SpreadPercent
		}
	}
	if maxSpread > wideSpreadPercent {
		signals = append(signals, fmt.Sprintf("wide spread: %.2f%% on the widest of the four books", maxSpread))
	}

	minDepth := -1.0
	for _, e := range analyses {
		total := e.an.BidDepthTotal + e.an.AskDepthTotal
		if minDepth < 0 || total < minDepth {
			minDepth = total
		}
	}
	if minDepth >= 0 && tradeSize > depthUsageFraction*minDepth {
		signals = append(signals, fmt.Sprintf("trade size %.0f exceeds half the thinnest book's depth (%.0f)", tradeSize, minDepth))
	}

	for _, e := range analyses {
		if abs(e.an.DepthImbalance) > imbalanceSignalLimit {
			direction := "bids"
			if e.an.DepthImbalance < 0 {
				direction = "asks"
			}
			signals = append(signals, fmt.Sprintf("%s book imbalanced toward %s (%.2f)", e.name, direction, e.an.DepthImbalance))
		}
	}

	return signals
}

// MarketEfficiency runs the YES+NO execution sum check on a single market. A
// sum above 1 is ordinary vig, not an inefficiency; only a sum below the fee
// allowance is flagged.
func MarketEfficiency(m domain.MarketBooks, tradeSize float64) domain.EfficiencyResult {
	yes := PriceExecution(m.Yes, domain.TradeInput{Side: domain.SideBuy, Outcome: domain.OutcomeYes, Size: tradeSize})
	no := PriceExecution(m.No, domain.TradeInput{Side: domain.SideBuy, Outcome: domain.OutcomeNo, Size: tradeSize})

	res := domain.EfficiencyResult{
		MarketID:  m.MarketID,
		TradeSize: tradeSize,
		YesPrice:  yes.AveragePrice,
		NoPrice:   no.AveragePrice,
		Sum:       yes.AveragePrice + no.AveragePrice,
	}
	if res.Sum > 1 {
		res.Vig = res.Sum - 1
	}

	// A zero sum means nothing filled on one or both sides; that is missing
	// liquidity, not underpricing, mirroring the zero guard in CompareMarkets.
	switch {
	case res.Sum <= 0:
		res.Assessment = "no liquidity"
	case res.Sum < sameMarketArbThreshold:
		res.Assessment = "underpriced"
	case res.Sum > overpricedVigCeiling:
		res.Assessment = "overpriced"
		res.IsEfficient = true
	default:
		res.Assessment = "efficiently priced"
		res.IsEfficient = true
	}
	return res
}

// ExhaustionPoint walks the fixed size ladder rather than binary-searching
// and returns the largest ladder size at which the combined slippage of
// trading both books has not yet consumed the initial edge (in probability
// units). Returns a zero result when even the smallest ladder size fails.
func ExhaustionPoint(bookA, bookB domain.OrderBook, side domain.Side, initialEdge float64) domain.ExhaustionResult {
	var best domain.ExhaustionResult
	for _, size := range exhaustionLadder {
		slipA := PriceExecution(bookA, domain.TradeInput{Side: side, Outcome: domain.OutcomeYes, Size: size}).SlippagePercent
		slipB := PriceExecution(bookB, domain.TradeInput{Side: side, Outcome: domain.OutcomeYes, Size: size}).SlippagePercent
		combined := slipA + slipB
		remaining := initialEdge*100 - combined
		if remaining <= 0 {
			break
		}
		best = domain.ExhaustionResult{
			Size:           size,
			RemainingEdge:  remaining,
			SlippageAtSize: combined,
		}
	}
	return best
}
