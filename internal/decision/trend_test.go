package decision

import (
	"strings"
	"testing"
)

func TestAggregateTrendBullishWithSkippedResolution(t *testing.T) {
	closes := map[string][]float64{
		"5m":  {100, 101, 102},
		"15m": {100, 102},
		"30m": {100, 101.8, 102},
		"1h":  {100}, // below min bars, excluded from the denominator
	}
	v := AggregateTrend(closes, DefaultResolutions())
	if v.Label != TrendBullish {
		t.Fatalf("label = %q, want Bullish", v.Label)
	}
	if v.Confidence <= 0 {
		t.Fatalf("confidence must be positive, got %v", v.Confidence)
	}
	if len(v.Reasons) != 4 {
		t.Fatalf("every resolution must contribute a rationale, got %v", v.Reasons)
	}
	found := false
	for _, r := range v.Reasons {
		if strings.Contains(r, "insufficient data for 1h") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a skip rationale for 1h, got %v", v.Reasons)
	}
}

func TestAggregateTrendBearish(t *testing.T) {
	closes := map[string][]float64{
		"5m":  {100, 98},
		"15m": {100, 97},
		"30m": {100, 99},
		"1h":  {100, 98.5},
	}
	v := AggregateTrend(closes, nil)
	if v.Label != TrendBearish {
		t.Fatalf("label = %q, want Bearish", v.Label)
	}
	if v.Confidence != 100 {
		t.Fatalf("unanimous downtrend should have full confidence, got %v", v.Confidence)
	}
}

func TestAggregateTrendFlatIsNeutral(t *testing.T) {
	closes := map[string][]float64{
		"5m":  {100, 100.01},
		"15m": {100, 99.99},
		"30m": {100, 100.05},
		"1h":  {100, 100},
	}
	v := AggregateTrend(closes, nil)
	if v.Label != TrendNeutral {
		t.Fatalf("label = %q, want Neutral", v.Label)
	}
	if v.Confidence != 0 {
		t.Fatalf("all-flat vote should have zero confidence, got %v", v.Confidence)
	}
}

func TestAggregateTrendNoDataAtAll(t *testing.T) {
	v := AggregateTrend(map[string][]float64{}, nil)
	if v.Label != TrendNeutral || v.Confidence != 0 {
		t.Fatalf("no data must yield Neutral with zero confidence, got %+v", v)
	}
	if len(v.Reasons) != 4 {
		t.Fatalf("expected a skip rationale per resolution, got %v", v.Reasons)
	}
}

func TestAggregateTrendMixedVote(t *testing.T) {
	// 0.4 up vs 0.3 down vs 0.2+0.1 flat: weighted = 0.1/1.0, inside the
	// neutral band.
	closes := map[string][]float64{
		"5m":  {100, 102},
		"15m": {100, 98},
		"30m": {100, 100},
		"1h":  {100, 100},
	}
	v := AggregateTrend(closes, nil)
	if v.Label != TrendNeutral {
		t.Fatalf("label = %q, want Neutral for a conflicted vote", v.Label)
	}
}
