package options

import (
	"math"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func liquidContract(strike, last float64) Contract {
	return Contract{
		Strike:            strike,
		LastPrice:         last,
		Bid:               last * 0.98,
		Ask:               last * 1.02,
		ImpliedVolatility: 0.35,
		Volume:            200,
		OpenInterest:      500,
		Delta:             floatPtr(0.5),
	}
}

func TestRankChainFiltersLowVolume(t *testing.T) {
	thin := liquidContract(100, 2)
	thin.Volume = 5
	out := RankChain([]Contract{thin, liquidContract(105, 1.5)}, Call, 103, 30, ScoreSettings{})
	if len(out) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(out))
	}
	if out[0].Strike != 105 {
		t.Fatalf("low-volume row leaked into scored output")
	}
}

func TestRankChainFiltersWideSpread(t *testing.T) {
	wide := liquidContract(100, 2)
	wide.Bid = 1.0
	wide.Ask = 1.3 // ~26% of mid
	out := RankChain([]Contract{wide}, Call, 103, 30, ScoreSettings{})
	if len(out) != 0 {
		t.Fatalf("25%%+ spread must be excluded, got %d rows", len(out))
	}
}

func TestRankChainFiltersBadRows(t *testing.T) {
	rows := []Contract{
		{Strike: 100, LastPrice: 0.005, Bid: 0.004, Ask: 0.006, ImpliedVolatility: 0.3, Volume: 100, OpenInterest: 100},
		{Strike: 100, LastPrice: 2, Bid: 0, Ask: 2.1, ImpliedVolatility: 0.3, Volume: 100, OpenInterest: 100},
		{Strike: 100, LastPrice: 2, Bid: 1.9, Ask: 2.1, ImpliedVolatility: 6.0, Volume: 100, OpenInterest: 100},
		{Strike: 100, LastPrice: 2, Bid: 1.9, Ask: 2.1, ImpliedVolatility: 0.3, Volume: 100, OpenInterest: 10},
		{Strike: math.NaN(), LastPrice: 2, Bid: 1.9, Ask: 2.1, ImpliedVolatility: 0.3, Volume: 100, OpenInterest: 100},
	}
	out := RankChain(rows, Call, 103, 30, ScoreSettings{})
	if len(out) != 0 {
		t.Fatalf("all rows should fail hard filters, got %d", len(out))
	}
}

func TestRankChainScenario(t *testing.T) {
	// strike=100 call at premium 2 with the underlying at 105: breakeven 102,
	// intrinsic 5, time value clipped to 0.
	c := liquidContract(100, 2)
	out := RankChain([]Contract{c}, Call, 105, 30, ScoreSettings{})
	if len(out) != 1 {
		t.Fatalf("expected 1 scored row")
	}
	r := out[0]
	if r.Breakeven != 102 {
		t.Fatalf("breakeven = %v, want 102", r.Breakeven)
	}
	if r.IntrinsicValue != 5 {
		t.Fatalf("intrinsic = %v, want 5", r.IntrinsicValue)
	}
	if r.TimeValue != 0 {
		t.Fatalf("time value = %v, want 0", r.TimeValue)
	}
	if math.IsNaN(r.OverallScore) || math.IsInf(r.OverallScore, 0) {
		t.Fatalf("overall score must be finite, got %v", r.OverallScore)
	}
	if r.OverallScore < 0 || r.OverallScore > 1 {
		t.Fatalf("overall score out of [0,1]: %v", r.OverallScore)
	}
	if r.Moneyness != "ITM" {
		t.Fatalf("moneyness = %v, want ITM", r.Moneyness)
	}
}

func TestRankChainTiedLiquidityNormalizesToHalf(t *testing.T) {
	a := liquidContract(100, 2)
	b := liquidContract(105, 1.5)
	// identical volume and open interest across the chain
	out := RankChain([]Contract{a, b}, Call, 103, 30, ScoreSettings{})
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	for _, r := range out {
		// liquidity = 0.4*0.5 + 0.4*0.5 + 0.2*spreadScore
		spreadScore := clip(1-r.SpreadPct/20, 0, 1)
		want := 0.4*0.5 + 0.4*0.5 + 0.2*spreadScore
		if math.Abs(r.Components.Liquidity-want) > 1e-9 {
			t.Fatalf("liquidity = %v, want %v (tie fill 0.5)", r.Components.Liquidity, want)
		}
	}
}

func TestRankChainSortsDescending(t *testing.T) {
	chain := []Contract{liquidContract(90, 14), liquidContract(100, 6), liquidContract(110, 1.2), liquidContract(120, 0.4)}
	out := RankChain(chain, Call, 103, 30, ScoreSettings{})
	for i := 1; i < len(out); i++ {
		if out[i].OverallScore > out[i-1].OverallScore {
			t.Fatalf("rows not sorted by score descending")
		}
	}
}

func TestQualityTiers(t *testing.T) {
	cases := map[float64]string{
		0.1:  TierPoor,
		0.39: TierPoor,
		0.4:  TierFair,
		0.59: TierFair,
		0.6:  TierGood,
		0.74: TierGood,
		0.75: TierExcellent,
		0.99: TierExcellent,
	}
	for score, want := range cases {
		if got := qualityTier(score); got != want {
			t.Errorf("tier(%v) = %v, want %v", score, got, want)
		}
	}
}

func TestScoreDelta(t *testing.T) {
	if got := scoreDelta(Call, 0.5); got != 1 {
		t.Fatalf("delta 0.5 should score 1, got %v", got)
	}
	if got := scoreDelta(Call, 0.9); got != 0.2 {
		t.Fatalf("out-of-band delta should score 0.2, got %v", got)
	}
	if got := scoreDelta(Put, -0.5); got != 1 {
		t.Fatalf("put delta -0.5 should score 1, got %v", got)
	}
	if got := scoreDelta(Put, -0.1); got != 0.2 {
		t.Fatalf("put delta -0.1 should score 0.2, got %v", got)
	}
}

func TestEffectiveDeltaDefault(t *testing.T) {
	c := Contract{}
	if c.EffectiveDelta() != 0.5 {
		t.Fatalf("missing delta must default to 0.5")
	}
}
