package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quantsignal/internal/analysis/indicator"
	"quantsignal/internal/analysis/pivot"
	"quantsignal/internal/decision"
	"quantsignal/internal/logger"
	"quantsignal/internal/market"
	"quantsignal/internal/options"
	"quantsignal/internal/store"
)

// Analyzer runs the full per-symbol pipeline: history fetch across
// resolutions, indicator computation, level detection and trend aggregation.
type Analyzer struct {
	source      market.Source
	bars        store.BarStore
	indicators  indicator.Settings
	pivotWindow int
	resolutions []decision.Resolution
	historyLim  int
	maxBars     int
	score       options.ScoreSettings
	detailRate  float64
}

type Params struct {
	Source       market.Source
	BarStore     store.BarStore
	Indicators   indicator.Settings
	PivotWindow  int
	Resolutions  []decision.Resolution
	HistoryLimit int
	MaxBars      int
	Score        options.ScoreSettings
	DetailRate   float64
}

func NewAnalyzer(p Params) *Analyzer {
	resolutions := p.Resolutions
	if len(resolutions) == 0 {
		resolutions = decision.DefaultResolutions()
	}
	window := p.PivotWindow
	if window <= 0 {
		window = 10
	}
	limit := p.HistoryLimit
	if limit <= 0 {
		limit = 500
	}
	rate := p.DetailRate
	if rate <= 0 {
		rate = 0.01
	}
	return &Analyzer{
		source:      p.Source,
		bars:        p.BarStore,
		indicators:  p.Indicators,
		pivotWindow: window,
		resolutions: resolutions,
		historyLim:  limit,
		maxBars:     p.MaxBars,
		score:       p.Score,
		detailRate:  rate,
	}
}

// ResolutionSnapshot holds the latest indicator readings for one interval.
type ResolutionSnapshot struct {
	Interval string  `json:"interval"`
	Bars     int     `json:"bars"`
	Close    float64 `json:"close"`
	VWAP     float64 `json:"vwap"`
	RSI      float64 `json:"rsi"`
	MACD     float64 `json:"macd"`
	Signal   float64 `json:"signal"`
}

// Report is a point-in-time analysis snapshot for one symbol.
type Report struct {
	TraceID     string                `json:"trace_id"`
	Symbol      string                `json:"symbol"`
	GeneratedAt time.Time             `json:"generated_at"`
	Price       float64               `json:"price"`
	Resolutions []ResolutionSnapshot  `json:"resolutions"`
	Levels      pivot.Levels          `json:"levels"`
	Trend       decision.TrendVerdict `json:"trend"`
}

// Analyze fetches every configured resolution concurrently and assembles the
// full snapshot. Resolutions that fail to fetch are logged and skipped, the
// trend layer reports them as insufficient data.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*Report, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	var mu sync.Mutex
	series := make(map[string][]market.Bar, len(a.resolutions))

	g, gctx := errgroup.WithContext(ctx)
	for _, res := range a.resolutions {
		interval := res.Interval
		g.Go(func() error {
			bars, err := a.fetchBars(gctx, symbol, interval)
			if err != nil {
				logger.Warnf("[analyzer] %s %s fetch failed: %v", symbol, interval, err)
				return nil
			}
			mu.Lock()
			series[interval] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no market data for %s", symbol)
	}

	report := &Report{
		TraceID:     uuid.NewString(),
		Symbol:      symbol,
		GeneratedAt: time.Now().UTC(),
	}

	closes := make(map[string][]float64, len(series))
	for _, res := range a.resolutions {
		bars, ok := series[res.Interval]
		if !ok {
			continue
		}
		c := market.Closes(bars)
		closes[res.Interval] = c
		set := indicator.Compute(bars, a.indicators)
		snap := ResolutionSnapshot{Interval: res.Interval, Bars: len(bars)}
		if len(c) > 0 {
			snap.Close = c[len(c)-1]
		}
		if !set.Empty() {
			snap.RSI = last(set.RSI)
			snap.MACD = last(set.MACD)
			snap.Signal = last(set.Signal)
			if set.VWAPAvailable() {
				snap.VWAP = last(set.VWAP)
			}
		}
		report.Resolutions = append(report.Resolutions, snap)
	}

	primary := a.resolutions[0].Interval
	if c, ok := closes[primary]; ok && len(c) > 0 {
		report.Price = c[len(c)-1]
		report.Levels = pivot.Detect(c, a.pivotWindow)
	}
	report.Trend = decision.AggregateTrend(closes, a.resolutions)
	return report, nil
}

// fetchBars pulls fresh history and keeps the store in sync. When the source
// fails but the store still has bars, the cached series is served.
func (a *Analyzer) fetchBars(ctx context.Context, symbol, interval string) ([]market.Bar, error) {
	bars, err := a.source.FetchHistory(ctx, symbol, interval, a.historyLim)
	if err != nil {
		if a.bars != nil {
			if cached, cerr := a.bars.Get(ctx, symbol, interval); cerr == nil {
				if cached = market.CleanBars(cached); len(cached) > 0 {
					logger.Infof("[analyzer] %s %s serving %d cached bars", symbol, interval, len(cached))
					return cached, nil
				}
			}
		}
		return nil, err
	}
	if a.bars != nil && len(bars) > 0 {
		if perr := a.bars.Put(ctx, symbol, interval, bars, a.maxBars); perr != nil {
			logger.Warnf("[analyzer] %s %s store put failed: %v", symbol, interval, perr)
		}
	}
	return bars, nil
}

// PrimarySeries returns the bars, indicators and levels for the primary
// resolution, used by the chart renderer.
func (a *Analyzer) PrimarySeries(ctx context.Context, symbol string) ([]market.Bar, indicator.Set, pivot.Levels, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, indicator.Set{}, pivot.Levels{}, fmt.Errorf("symbol is required")
	}
	interval := a.resolutions[0].Interval
	bars, err := a.fetchBars(ctx, symbol, interval)
	if err != nil {
		return nil, indicator.Set{}, pivot.Levels{}, err
	}
	set := indicator.Compute(bars, a.indicators)
	levels := pivot.Detect(market.Closes(bars), a.pivotWindow)
	return bars, set, levels, nil
}

// RankChain scores and orders an option chain snapshot.
func (a *Analyzer) RankChain(chain []options.Contract, typ options.Type, underlying, dte float64) ([]options.Scored, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("invalid option type %q", typ)
	}
	if underlying <= 0 {
		return nil, fmt.Errorf("underlying price must be positive")
	}
	return options.RankChain(chain, typ, underlying, int(dte), a.score), nil
}

// AnalyzeContract produces the narrative point-based report for one contract.
func (a *Analyzer) AnalyzeContract(c options.Contract, typ options.Type, underlying, dte float64) (*options.Report, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("invalid option type %q", typ)
	}
	if underlying <= 0 {
		return nil, fmt.Errorf("underlying price must be positive")
	}
	rep := options.AnalyzeContract(c, typ, underlying, int(dte), a.detailRate)
	return &rep, nil
}

func last(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return vals[len(vals)-1]
}
