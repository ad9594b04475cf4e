package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

func marketWith(id string, yesBids, yesAsks, noBids, noAsks []domain.PriceLevel) domain.MarketBooks {
	return domain.MarketBooks{
		MarketID:  id,
		Question:  "Will it happen?",
		Yes:       domain.OrderBook{MarketID: id, TokenID: id + "-yes", Bids: yesBids, Asks: yesAsks},
		No:        domain.OrderBook{MarketID: id, TokenID: id + "-no", Bids: noBids, Asks: noAsks},
		FetchedAt: time.Unix(1700000000, 0),
	}
}

// balancedMarket builds a market whose YES and NO books are deep, tight, and
// depth-balanced so no risk signal triggers on its own.
func balancedMarket(id string, yesAsk, noAsk float64) domain.MarketBooks {
	return marketWith(id,
		[]domain.PriceLevel{{Price: yesAsk - 0.01, Size: 1000}},
		[]domain.PriceLevel{{Price: yesAsk, Size: 1000}},
		[]domain.PriceLevel{{Price: noAsk - 0.01, Size: 1000}},
		[]domain.PriceLevel{{Price: noAsk, Size: 1000}},
	)
}

func TestCompareMarketsSameMarketArbitrage(t *testing.T) {
	// Market A's YES+NO executes at 0.95: apparent arbitrage with 5% edge.
	a := balancedMarket("A", 0.45, 0.50)
	b := balancedMarket("B", 0.50, 0.52)

	res := CompareMarkets(a, b, 10)

	if !res.ApparentArbitrage {
		t.Fatalf("ApparentArbitrage = false, want true")
	}
	approx(t, "ArbitrageEdge", res.ArbitrageEdge, 0.05)
	if !strings.Contains(res.ArbitrageDetail, "market A") {
		t.Fatalf("detail should name market A: %q", res.ArbitrageDetail)
	}
	if res.DominanceViolation {
		t.Fatalf("DominanceViolation = true, want false")
	}
}

func TestCompareMarketsIdenticalBooksQuiet(t *testing.T) {
	a := balancedMarket("A", 0.50, 0.52)
	b := balancedMarket("B", 0.50, 0.52)

	res := CompareMarkets(a, b, 10)

	if res.ApparentArbitrage {
		t.Fatalf("ApparentArbitrage = true, want false")
	}
	if res.DominanceViolation {
		t.Fatalf("DominanceViolation = true, want false")
	}
	if len(res.RiskSignals) != 0 {
		t.Fatalf("RiskSignals = %v, want none", res.RiskSignals)
	}
	approx(t, "PriceDifferenceYes", res.PriceDifferenceYes, 0)
	approx(t, "PriceDifferenceNo", res.PriceDifferenceNo, 0)
}

func TestCompareMarketsCrossMarketInefficiency(t *testing.T) {
	a := balancedMarket("A", 0.50, 0.50)
	b := balancedMarket("B", 0.60, 0.42)

	res := CompareMarkets(a, b, 10)

	if res.ApparentArbitrage {
		t.Fatalf("cross-market gaps must not be flagged as arbitrage")
	}
	approx(t, "PriceDifferenceYes", res.PriceDifferenceYes, -0.10)
	approx(t, "ArbitrageEdge", res.ArbitrageEdge, 0.10)
	if res.ArbitrageDetail == "" {
		t.Fatalf("expected an inefficiency detail string")
	}
	// Single deep levels mean zero slippage at any searched size, so the
	// binary search runs to its upper bound.
	approx(t, "MaxViableSize", res.MaxViableSize, 10000)
}

func TestCompareMarketsDominanceViolation(t *testing.T) {
	a := balancedMarket("A", 0.60, 0.50) // YES+NO executes at 1.10
	b := balancedMarket("B", 0.50, 0.52)

	res := CompareMarkets(a, b, 10)

	if !res.DominanceViolation {
		t.Fatalf("DominanceViolation = false, want true")
	}
}

func TestCompareMarketsRiskSignals(t *testing.T) {
	// Wide spread, thin depth relative to trade size, and a lopsided book.
	a := marketWith("A",
		[]domain.PriceLevel{{Price: 0.30, Size: 1000}},
		[]domain.PriceLevel{{Price: 0.70, Size: 10}},
		[]domain.PriceLevel{{Price: 0.48, Size: 100}},
		[]domain.PriceLevel{{Price: 0.52, Size: 100}},
	)
	b := balancedMarket("B", 0.50, 0.52)

	res := CompareMarkets(a, b, 600)

	if len(res.RiskSignals) < 3 {
		t.Fatalf("expected at least 3 risk signals, got %v", res.RiskSignals)
	}
	joined := strings.Join(res.RiskSignals, "\n")
	for _, want := range []string{"wide spread", "trade size", "imbalanced"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("risk signals missing %q:\n%s", want, joined)
		}
	}
}

func TestMarketEfficiency(t *testing.T) {
	cases := []struct {
		name        string
		yesAsk      float64
		noAsk       float64
		assessment  string
		isEfficient bool
		vig         float64
	}{
		{"underpriced", 0.45, 0.50, "underpriced", false, 0},
		{"overpriced", 0.55, 0.50, "overpriced", true, 0.05},
		{"efficient", 0.50, 0.50, "efficiently priced", true, 0},
	}
	for _, tc := range cases {
		m := balancedMarket("M", tc.yesAsk, tc.noAsk)
		res := MarketEfficiency(m, 10)
		if res.Assessment != tc.assessment {
			t.Fatalf("%s: assessment = %q, want %q", tc.name, res.Assessment, tc.assessment)
		}
		if res.IsEfficient != tc.isEfficient {
			t.Fatalf("%s: IsEfficient = %v, want %v", tc.name, res.IsEfficient, tc.isEfficient)
		}
		approx(t, tc.name+" vig", res.Vig, tc.vig)
	}
}

func TestMarketEfficiencyEmptyBooks(t *testing.T) {
	m := domain.MarketBooks{MarketID: "M"}

	res := MarketEfficiency(m, 10)
	if res.Assessment != "no liquidity" {
		t.Fatalf("assessment = %q, want %q", res.Assessment, "no liquidity")
	}
	if res.IsEfficient {
		t.Fatalf("empty market must not be classified efficient")
	}

	// CompareMarkets applies the same guard: zero fills are never arbitrage.
	cmp := CompareMarkets(m, m, 10)
	if cmp.ApparentArbitrage {
		t.Fatalf("empty markets flagged as apparent arbitrage")
	}
}

func TestExhaustionPoint(t *testing.T) {
	bookA := testBook(nil, []domain.PriceLevel{{Price: 0.50, Size: 100}, {Price: 0.60, Size: 10000}})
	bookB := testBook(nil, []domain.PriceLevel{{Price: 0.50, Size: 100}, {Price: 0.60, Size: 10000}})

	res := ExhaustionPoint(bookA, bookB, domain.SideBuy, 0.05)

	// At 250 contracts both walks cross into the 0.60 level and combined
	// slippage consumes the 5% edge; 100 is the last surviving ladder size.
	approx(t, "Size", res.Size, 100)
	approx(t, "SlippageAtSize", res.SlippageAtSize, 0)
	approx(t, "RemainingEdge", res.RemainingEdge, 5)
}

func TestExhaustionPointNoViableSize(t *testing.T) {
	// One-level books with almost no depth: even 10 contracts eat the edge.
	bookA := testBook(nil, []domain.PriceLevel{{Price: 0.50, Size: 1}, {Price: 0.90, Size: 10000}})
	bookB := testBook(nil, []domain.PriceLevel{{Price: 0.50, Size: 1}, {Price: 0.90, Size: 10000}})

	res := ExhaustionPoint(bookA, bookB, domain.SideBuy, 0.01)

	if res.Size != 0 {
		t.Fatalf("Size = %v, want 0", res.Size)
	}
}
