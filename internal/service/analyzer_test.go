package service

import (
	"context"
	"errors"
	"testing"

	"quantsignal/internal/decision"
	"quantsignal/internal/market"
	"quantsignal/internal/options"
	"quantsignal/internal/store"
)

type stubSource struct {
	bars map[string][]market.Bar
	errs map[string]error
}

func (s *stubSource) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Bar, error) {
	if err, ok := s.errs[interval]; ok {
		return nil, err
	}
	return s.bars[interval], nil
}

func (s *stubSource) Close() error { return nil }

func risingBars(n int, start float64) []market.Bar {
	out := make([]market.Bar, 0, n)
	price := start
	for i := 0; i < n; i++ {
		open := int64(i) * 60_000
		out = append(out, market.Bar{
			OpenTime:  open,
			CloseTime: open + 59_999,
			Open:      price,
			High:      price + 0.5,
			Low:       price - 0.5,
			Close:     price + 0.4,
			Volume:    100,
		})
		price += 0.4
	}
	return out
}

func testResolutions() []decision.Resolution {
	return []decision.Resolution{
		{Interval: "5m", Weight: 0.6},
		{Interval: "15m", Weight: 0.4},
	}
}

func TestAnalyzeBuildsFullReport(t *testing.T) {
	src := &stubSource{bars: map[string][]market.Bar{
		"5m":  risingBars(60, 100),
		"15m": risingBars(60, 100),
	}}
	a := NewAnalyzer(Params{
		Source:      src,
		BarStore:    store.NewMemoryBarStore(),
		Resolutions: testResolutions(),
	})
	rep, err := a.Analyze(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want normalized AAPL", rep.Symbol)
	}
	if rep.TraceID == "" {
		t.Error("trace id not set")
	}
	if len(rep.Resolutions) != 2 {
		t.Fatalf("resolutions = %d, want 2", len(rep.Resolutions))
	}
	if rep.Resolutions[0].RSI <= 50 {
		t.Errorf("rising series rsi = %v, want > 50", rep.Resolutions[0].RSI)
	}
	if rep.Price <= 0 {
		t.Errorf("price = %v, want positive", rep.Price)
	}
	if rep.Trend.Label != decision.TrendBullish {
		t.Errorf("trend = %q, want bullish", rep.Trend.Label)
	}
}

func TestAnalyzePartialFetchStillReports(t *testing.T) {
	src := &stubSource{
		bars: map[string][]market.Bar{"5m": risingBars(60, 100)},
		errs: map[string]error{"15m": errors.New("boom")},
	}
	a := NewAnalyzer(Params{Source: src, Resolutions: testResolutions()})
	rep, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(rep.Resolutions) != 1 {
		t.Fatalf("resolutions = %d, want 1", len(rep.Resolutions))
	}
	found := false
	for _, r := range rep.Trend.Reasons {
		if r == "insufficient data for 15m" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing skip reason, got %v", rep.Trend.Reasons)
	}
}

func TestAnalyzeAllFetchesFail(t *testing.T) {
	src := &stubSource{errs: map[string]error{
		"5m":  errors.New("boom"),
		"15m": errors.New("boom"),
	}}
	a := NewAnalyzer(Params{Source: src, Resolutions: testResolutions()})
	if _, err := a.Analyze(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error when every resolution fails")
	}
}

func TestAnalyzeServesCachedBarsOnFetchError(t *testing.T) {
	mem := store.NewMemoryBarStore()
	ctx := context.Background()
	if err := mem.Put(ctx, "AAPL", "5m", risingBars(40, 100), 0); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	src := &stubSource{errs: map[string]error{"5m": errors.New("boom")}}
	a := NewAnalyzer(Params{
		Source:      src,
		BarStore:    mem,
		Resolutions: []decision.Resolution{{Interval: "5m", Weight: 1}},
	})
	rep, err := a.Analyze(ctx, "AAPL")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(rep.Resolutions) != 1 || rep.Resolutions[0].Bars != 40 {
		t.Errorf("cached bars not served: %+v", rep.Resolutions)
	}
}

func TestRankChainValidation(t *testing.T) {
	a := NewAnalyzer(Params{Source: &stubSource{}})
	if _, err := a.RankChain(nil, "straddle", 100, 30); err == nil {
		t.Error("expected error for invalid type")
	}
	if _, err := a.RankChain(nil, options.Call, 0, 30); err == nil {
		t.Error("expected error for zero underlying")
	}
	scored, err := a.RankChain([]options.Contract{}, options.Call, 100, 30)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(scored) != 0 {
		t.Errorf("scored = %d, want 0", len(scored))
	}
}

func TestAnalyzeContractValidation(t *testing.T) {
	a := NewAnalyzer(Params{Source: &stubSource{}})
	if _, err := a.AnalyzeContract(options.Contract{}, "spread", 100, 30); err == nil {
		t.Error("expected error for invalid type")
	}
	rep, err := a.AnalyzeContract(options.Contract{
		Strike:            100,
		LastPrice:         2,
		Bid:               1.9,
		Ask:               2.1,
		ImpliedVolatility: 0.3,
		Volume:            600,
		OpenInterest:      1200,
	}, options.Call, 105, 30)
	if err != nil {
		t.Fatalf("analyze contract: %v", err)
	}
	if rep.Recommendation == "" {
		t.Error("recommendation not set")
	}
}
