package engine

import "github.com/mihirgan06/Arbiter/internal/domain"

// priceMoveFraction is the displacement used for the size-to-move metric.
const priceMoveFraction = 0.01

// AnalyzeBook derives spread, depth, imbalance, and price-impact metrics from
// a raw book. It never simulates an order; use PriceExecution for that.
//
// An empty ask side reports a best ask of 1, the natural price ceiling for
// these instruments; an empty bid side reports a best bid of 0.
func AnalyzeBook(book domain.OrderBook) domain.OrderBookAnalysis {
	a := domain.OrderBookAnalysis{
		MarketID: book.MarketID,
		TokenID:  book.TokenID,
		BestAsk:  1,
	}

	if len(book.Bids) > 0 {
		a.BestBid = book.Bids[0].Price
	}
	if len(book.Asks) > 0 {
		a.BestAsk = book.Asks[0].Price
	}

	a.Spread = a.BestAsk - a.BestBid
	a.Midpoint = (a.BestBid + a.BestAsk) / 2
	if a.Midpoint > 0 {
		a.SpreadPercent = a.Spread / a.Midpoint * 100
	}

	for _, lvl := range book.Bids {
		a.BidDepthTotal += lvl.Size
	}
	for _, lvl := range book.Asks {
		a.AskDepthTotal += lvl.Size
	}
	total := a.BidDepthTotal + a.AskDepthTotal
	if total > 0 {
		a.DepthImbalance = (a.BidDepthTotal - a.AskDepthTotal) / total
	}

	a.SizeToMoveBid1Pc = sizeToMove(book.Bids, a.BestBid*(1-priceMoveFraction), false)
	a.SizeToMoveAsk1Pc = sizeToMove(book.Asks, a.BestAsk*(1+priceMoveFraction), true)

	a.BidLevelCount = len(book.Bids)
	a.AskLevelCount = len(book.Asks)
	if n := a.BidLevelCount + a.AskLevelCount; n > 0 {
		a.AverageLevelSize = total / float64(n)
	}

	return a
}

// sizeToMove accumulates size across levels until one reaches the displaced
// target price, returning the depth that must be exhausted before the target
// is touched (the triggering level itself is excluded).
func sizeToMove(levels []domain.PriceLevel, target float64, ascending bool) float64 {
	var acc float64
	for _, lvl := range levels {
		if ascending && lvl.Price >= target {
			break
		}
		if !ascending && lvl.Price <= target {
			break
		}
		acc += lvl.Size
	}
	return acc
}

// MaxSizeWithinSlippage finds the largest tradeable size on one side of the
// book before the touched price exceeds the given slippage tolerance. The
// scan is inclusive: a level exactly at the threshold price still counts, the
// first level beyond it is discarded. A book with no levels on the relevant
// side yields {0, 0}.
func MaxSizeWithinSlippage(book domain.OrderBook, side domain.Side, maxSlippagePercent float64) domain.SlippageBound {
	levels := book.Asks
	if side == domain.SideSell {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return domain.SlippageBound{}
	}

	best := levels[0].Price
	threshold := best * (1 + maxSlippagePercent/100)
	if side == domain.SideSell {
		threshold = best * (1 - maxSlippagePercent/100)
	}

	var bound domain.SlippageBound
	for _, lvl := range levels {
		if side == domain.SideBuy && lvl.Price > threshold {
			break
		}
		if side == domain.SideSell && lvl.Price < threshold {
			break
		}
		bound.MaxSize += lvl.Size
		bound.PriceAtMax = lvl.Price
	}
	return bound
}
