// Package engine implements the execution-aware analytics core: level-walking
// execution pricing, book analysis, slippage bounds, payoff math, and
// cross-market comparison. Every function is a pure function of its inputs,
// performs no I/O, and is safe to call concurrently without locks.
package engine

import "github.com/mihirgan06/Arbiter/internal/domain"

// PriceExecution walks the book's levels to fill a hypothetical order and
// reports the weighted-average price a real taker would receive. BUY consumes
// asks (ascending), SELL consumes bids (descending); either way the walk
// moves toward worse prices as size grows.
//
// A book with no liquidity on the relevant side yields a well-formed result
// with zero fill rather than an error.
func PriceExecution(book domain.OrderBook, input domain.TradeInput) domain.ExecutionResult {
	res := domain.ExecutionResult{
		Side:          input.Side,
		Outcome:       input.Outcome,
		RequestedSize: input.Size,
	}

	levels := book.Asks
	if input.Side == domain.SideSell {
		levels = book.Bids
	}
	if len(levels) == 0 {
		res.PartialFill = true
		res.RemainingSize = input.Size
		return res
	}

	res.BestPrice = levels[0].Price

	remaining := input.Size
	var cost, filled float64
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		take := remaining
		if lvl.Size < take {
			take = lvl.Size
		}
		cost += lvl.Price * take
		filled += take
		remaining -= take
		res.Fills = append(res.Fills, domain.Fill{
			Price:          lvl.Price,
			Size:           take,
			CumulativeSize: filled,
		})
		res.WorstPrice = lvl.Price
	}

	res.FilledSize = filled
	res.TotalCost = cost
	res.RemainingSize = remaining
	res.PartialFill = remaining > 0
	if filled > 0 {
		res.AveragePrice = cost / filled
	}

	// Positive slippage always means a worse outcome for the taker.
	if input.Side == domain.SideBuy {
		res.SlippageFromBest = res.AveragePrice - res.BestPrice
	} else {
		res.SlippageFromBest = res.BestPrice - res.AveragePrice
	}
	if res.BestPrice > 0 {
		res.SlippagePercent = res.SlippageFromBest / res.BestPrice * 100
	}

	return res
}
