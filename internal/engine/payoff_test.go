package engine

import (
	"testing"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

func execAt(side domain.Side, outcome domain.Outcome, price, size float64) domain.ExecutionResult {
	return domain.ExecutionResult{
		Side:          side,
		Outcome:       outcome,
		RequestedSize: size,
		FilledSize:    size,
		AveragePrice:  price,
		TotalCost:     price * size,
	}
}

func TestComputePayoffBuyYes(t *testing.T) {
	res := ComputePayoff(execAt(domain.SideBuy, domain.OutcomeYes, 0.40, 100))

	approx(t, "PnLIfYes", res.PnLIfYes, 60)
	approx(t, "PnLIfNo", res.PnLIfNo, -40)
	approx(t, "ReturnIfYes", res.ReturnIfYes, 150)
	approx(t, "ReturnIfNo", res.ReturnIfNo, -100)
	approx(t, "MaxGain", res.MaxGain, 60)
	approx(t, "MaxLoss", res.MaxLoss, -40)
	approx(t, "CapitalAtRisk", res.CapitalAtRisk, 40)
	approx(t, "ImpliedProbability", res.ImpliedProbability, 0.40)
	// Sign law: the scenario gap is exactly one payout per contract.
	approx(t, "PnLIfYes-PnLIfNo", res.PnLIfYes-res.PnLIfNo, 100)
}

func TestComputePayoffSignTable(t *testing.T) {
	const p, n = 0.3, 10.0
	cases := []struct {
		side     domain.Side
		outcome  domain.Outcome
		pnlIfYes float64
		pnlIfNo  float64
	}{
		{domain.SideBuy, domain.OutcomeYes, (1 - p) * n, -p * n},
		{domain.SideBuy, domain.OutcomeNo, -p * n, (1 - p) * n},
		{domain.SideSell, domain.OutcomeYes, (p - 1) * n, p * n},
		{domain.SideSell, domain.OutcomeNo, p * n, (p - 1) * n},
	}
	for _, tc := range cases {
		res := ComputePayoff(execAt(tc.side, tc.outcome, p, n))
		approx(t, string(tc.side)+" "+string(tc.outcome)+" PnLIfYes", res.PnLIfYes, tc.pnlIfYes)
		approx(t, string(tc.side)+" "+string(tc.outcome)+" PnLIfNo", res.PnLIfNo, tc.pnlIfNo)
		if res.MaxLoss > 0 || res.MaxGain < 0 {
			t.Fatalf("%s %s: MaxLoss %v / MaxGain %v violate ordering", tc.side, tc.outcome, res.MaxLoss, res.MaxGain)
		}
	}
}

func TestComputePayoffZeroFill(t *testing.T) {
	res := ComputePayoff(domain.ExecutionResult{
		Side:          domain.SideBuy,
		Outcome:       domain.OutcomeYes,
		RequestedSize: 100,
		PartialFill:   true,
		RemainingSize: 100,
	})

	if res.Contracts != 0 || res.PnLIfYes != 0 || res.PnLIfNo != 0 || res.MaxGain != 0 || res.MaxLoss != 0 {
		t.Fatalf("zero fill should produce an all-zero payoff, got %+v", res)
	}
}

func TestComputeCombinedPayoffHedged(t *testing.T) {
	legs := []domain.ExecutionResult{
		execAt(domain.SideBuy, domain.OutcomeYes, 0.40, 100),
		execAt(domain.SideBuy, domain.OutcomeNo, 0.55, 100),
	}

	combined := ComputeCombinedPayoff(legs)

	if combined.Legs != 2 {
		t.Fatalf("Legs = %d, want 2", combined.Legs)
	}
	approx(t, "TotalCost", combined.TotalCost, 95)
	// YES: +60 on the YES leg, -55 on the NO leg. NO: -40 and +45.
	approx(t, "PnLIfYes", combined.PnLIfYes, 5)
	approx(t, "PnLIfNo", combined.PnLIfNo, 5)
	approx(t, "MaxGain", combined.MaxGain, 5)
}

func TestKellyFraction(t *testing.T) {
	res := KellyFraction(0.5, 0.4, domain.SideBuy, domain.OutcomeYes)

	approx(t, "WinProb", res.WinProb, 0.5)
	approx(t, "PayoffRatio", res.PayoffRatio, 0.6/0.4)
	approx(t, "Edge", res.Edge, 0.5*0.6-0.5*0.4)
	approx(t, "Fraction", res.Fraction, (0.5*1.5-0.5)/1.5)
}

func TestKellyFractionZeroEdge(t *testing.T) {
	// True probability equal to the price: no edge, fraction must be zero.
	res := KellyFraction(0.4, 0.4, domain.SideBuy, domain.OutcomeYes)

	approx(t, "Edge", res.Edge, 0)
	approx(t, "Fraction", res.Fraction, 0)
}

func TestKellyFractionNeverNegative(t *testing.T) {
	cases := []struct {
		trueProb, price float64
		side            domain.Side
		outcome         domain.Outcome
	}{
		{0.3, 0.5, domain.SideBuy, domain.OutcomeYes},
		{0.7, 0.5, domain.SideBuy, domain.OutcomeNo},
		{0.9, 0.5, domain.SideSell, domain.OutcomeYes},
		{0.1, 0.5, domain.SideSell, domain.OutcomeNo},
	}
	for _, tc := range cases {
		res := KellyFraction(tc.trueProb, tc.price, tc.side, tc.outcome)
		if res.Fraction < 0 {
			t.Fatalf("%s %s: fraction %v < 0", tc.side, tc.outcome, res.Fraction)
		}
		if res.Edge >= 0 {
			t.Fatalf("%s %s: expected negative edge, got %v", tc.side, tc.outcome, res.Edge)
		}
	}
}

func TestKellyFractionDegeneratePrice(t *testing.T) {
	// At price 0 the losing leg costs nothing; the ratio is undefined and the
	// function must not divide by zero.
	res := KellyFraction(0.5, 0, domain.SideBuy, domain.OutcomeYes)
	if res.Fraction != 0 {
		t.Fatalf("degenerate price should give zero fraction, got %v", res.Fraction)
	}
}
