package discrepancy

import "testing"

func TestCheckArbitrageExists(t *testing.T) {
	// Buy YES at 0.40 on the low venue, NO at 1-0.55=0.45 on the high venue:
	// combined cost 0.85 pays 1.0 at resolution either way.
	opp := CheckArbitrage(0.40, 0.55, 50_000, 50_000)

	if !opp.Exists {
		t.Fatalf("Exists = false, want true")
	}
	approxf(t, "CombinedCost", opp.CombinedCost, 0.85)
	approxf(t, "TheoreticalReturn", opp.TheoreticalReturn, (1-0.85)/0.85*100)
	approxf(t, "Confidence", opp.Confidence, 0.9)
}

func TestCheckArbitrageAbsent(t *testing.T) {
	opp := CheckArbitrage(0.55, 0.50, 0, 0)

	if opp.Exists {
		t.Fatalf("combined cost above 1 must not be an opportunity")
	}
	if opp.TheoreticalReturn != 0 || opp.Confidence != 0 {
		t.Fatalf("absent opportunity should carry no return/confidence: %+v", opp)
	}
}

func TestCheckArbitrageConfidenceTiers(t *testing.T) {
	cases := []struct {
		lowLiq, highLiq float64
		want            float64
	}{
		{50_000, 20_000, 0.9},
		{5_000, 50_000, 0.7},
		{0, 0, 0.5},
	}
	for _, tc := range cases {
		opp := CheckArbitrage(0.40, 0.55, tc.lowLiq, tc.highLiq)
		approxf(t, "Confidence", opp.Confidence, tc.want)
	}
}
