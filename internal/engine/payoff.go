package engine

import "github.com/mihirgan06/Arbiter/internal/domain"

// signKey indexes the directional sign table by position.
type signKey struct {
	Side    domain.Side
	Outcome domain.Outcome
}

// signRow gives per-contract resolution P&L as a linear function of entry
// price p: pnl = Const + Price*p.
type signRow struct {
	YesConst, YesPrice float64
	NoConst, NoPrice   float64
}

// payoffSigns is the four-case directional sign table. Encoding it as data
// rather than branches keeps the cases exhaustively testable and makes it
// impossible to omit one.
//
//	BUY  YES: ifYes (1-p)n   ifNo  -p·n
//	BUY  NO:  ifYes -p·n     ifNo  (1-p)n
//	SELL YES: ifYes (p-1)n   ifNo  p·n
//	SELL NO:  ifYes p·n      ifNo  (p-1)n
var payoffSigns = map[signKey]signRow{
	{domain.SideBuy, domain.OutcomeYes}:  {YesConst: 1, YesPrice: -1, NoConst: 0, NoPrice: -1},
	{domain.SideBuy, domain.OutcomeNo}:   {YesConst: 0, YesPrice: -1, NoConst: 1, NoPrice: -1},
	{domain.SideSell, domain.OutcomeYes}: {YesConst: -1, YesPrice: 1, NoConst: 0, NoPrice: 1},
	{domain.SideSell, domain.OutcomeNo}:  {YesConst: 0, YesPrice: 1, NoConst: -1, NoPrice: 1},
}

// ComputePayoff converts an execution result into resolution P&L, return
// percentages, risk bounds, and the market's implied probability (for binary
// markets the entry price is the implied probability). A zero fill yields an
// all-zero result.
func ComputePayoff(exec domain.ExecutionResult) domain.PayoffResult {
	res := domain.PayoffResult{
		Side:    exec.Side,
		Outcome: exec.Outcome,
	}
	if exec.FilledSize <= 0 {
		return res
	}

	p := exec.AveragePrice
	n := exec.FilledSize
	row := payoffSigns[signKey{exec.Side, exec.Outcome}]

	res.Contracts = n
	res.EntryPrice = p
	res.TotalCost = exec.TotalCost
	res.PnLIfYes = (row.YesConst + row.YesPrice*p) * n
	res.PnLIfNo = (row.NoConst + row.NoPrice*p) * n
	res.ImpliedProbability = p

	if cost := abs(exec.TotalCost); cost > 0 {
		res.ReturnIfYes = res.PnLIfYes / cost * 100
		res.ReturnIfNo = res.PnLIfNo / cost * 100
	}

	res.MaxGain = res.PnLIfYes
	res.MaxLoss = res.PnLIfNo
	if res.PnLIfNo > res.MaxGain {
		res.MaxGain = res.PnLIfNo
		res.MaxLoss = res.PnLIfYes
	}
	res.CapitalAtRisk = abs(res.MaxLoss)

	return res
}

// ComputeCombinedPayoff sums cost and both scenario P&Ls across the legs of a
// multi-leg or hedged position.
func ComputeCombinedPayoff(execs []domain.ExecutionResult) domain.CombinedPayoff {
	var combined domain.CombinedPayoff
	for _, exec := range execs {
		leg := ComputePayoff(exec)
		combined.Legs++
		combined.TotalCost += leg.TotalCost
		combined.PnLIfYes += leg.PnLIfYes
		combined.PnLIfNo += leg.PnLIfNo
	}
	combined.MaxGain = combined.PnLIfYes
	combined.MaxLoss = combined.PnLIfNo
	if combined.PnLIfNo > combined.MaxGain {
		combined.MaxGain = combined.PnLIfNo
		combined.MaxLoss = combined.PnLIfYes
	}
	return combined
}

// KellyFraction computes the growth-optimal bankroll fraction for a
// directional bet, given the caller's estimate of the true probability and
// the price the market offers. Win/lose probabilities and payoffs map through
// the same four-case sign table as ComputePayoff; the fraction is clamped to
// zero when the edge is non-positive.
func KellyFraction(trueProb, marketPrice float64, side domain.Side, outcome domain.Outcome) domain.KellyResult {
	row := payoffSigns[signKey{side, outcome}]

	// Per-contract P&L under each resolution at the quoted price.
	pnlIfYes := row.YesConst + row.YesPrice*marketPrice
	pnlIfNo := row.NoConst + row.NoPrice*marketPrice

	// The winning scenario is whichever resolution pays this position.
	res := domain.KellyResult{}
	var payoffIfWin, lossIfLose float64
	if pnlIfYes >= pnlIfNo {
		res.WinProb = trueProb
		payoffIfWin = pnlIfYes
		lossIfLose = -pnlIfNo
	} else {
		res.WinProb = 1 - trueProb
		payoffIfWin = pnlIfNo
		lossIfLose = -pnlIfYes
	}
	res.LoseProb = 1 - res.WinProb
	res.Edge = res.WinProb*payoffIfWin - res.LoseProb*lossIfLose

	if lossIfLose <= 0 || payoffIfWin <= 0 {
		return res
	}

	b := payoffIfWin / lossIfLose
	res.PayoffRatio = b
	if f := (res.WinProb*b - res.LoseProb) / b; f > 0 {
		res.Fraction = f
	}
	return res
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
