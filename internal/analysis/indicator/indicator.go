package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"quantsignal/internal/market"
)

const (
	defaultRSIPeriod  = 14
	defaultMACDFast   = 12
	defaultMACDSlow   = 26
	defaultMACDSignal = 9

	neutralRSI = 50.0
)

// Settings controls indicator periods. Zero values fall back to defaults.
type Settings struct {
	RSIPeriod  int `json:"rsi_period,omitempty" toml:"rsi_period"`
	MACDFast   int `json:"macd_fast,omitempty" toml:"macd_fast"`
	MACDSlow   int `json:"macd_slow,omitempty" toml:"macd_slow"`
	MACDSignal int `json:"macd_signal,omitempty" toml:"macd_signal"`
}

func (s Settings) withDefaults() Settings {
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = defaultRSIPeriod
	}
	if s.MACDFast <= 0 {
		s.MACDFast = defaultMACDFast
	}
	if s.MACDSlow <= 0 {
		s.MACDSlow = defaultMACDSlow
	}
	if s.MACDSignal <= 0 {
		s.MACDSignal = defaultMACDSignal
	}
	return s
}

// Set holds per-bar indicator values, index-aligned with the source bars.
// VWAP entries are NaN when the whole series traded zero volume.
type Set struct {
	VWAP   []float64 `json:"vwap"`
	RSI    []float64 `json:"rsi"`
	MACD   []float64 `json:"macd"`
	Signal []float64 `json:"macd_signal"`
}

// Empty reports whether the input had fewer than two usable closes.
func (s Set) Empty() bool { return len(s.RSI) == 0 }

// VWAPAvailable reports whether VWAP is defined for this series.
func (s Set) VWAPAvailable() bool {
	return len(s.VWAP) > 0 && !math.IsNaN(s.VWAP[0])
}

// Compute derives the full indicator set from bars. Bars are expected to be
// pre-validated with market.CleanBars; series with fewer than two closes yield
// an empty Set rather than an error.
func Compute(bars []market.Bar, cfg Settings) Set {
	if len(bars) < 2 {
		return Set{}
	}
	cfg = cfg.withDefaults()
	closes := market.Closes(bars)
	line, sig := macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	return Set{
		VWAP:   VWAP(bars),
		RSI:    rsi(closes, cfg.RSIPeriod),
		MACD:   line,
		Signal: sig,
	}
}

// VWAP computes the running volume-weighted average price over the series.
// It resets only when the caller supplies a new series, e.g. one per session.
// Points with zero cumulative volume are undefined and repaired by forward
// fill then backward fill; an all-zero-volume series stays NaN throughout.
func VWAP(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	var cumVol, cumPV float64
	for i, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		cumVol += b.Volume
		cumPV += typical * b.Volume
		if cumVol == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = cumPV / cumVol
	}
	fillForward(out)
	fillBackward(out)
	return out
}

func fillForward(series []float64) {
	last := math.NaN()
	for i, v := range series {
		if math.IsNaN(v) {
			series[i] = last
			continue
		}
		last = v
	}
}

func fillBackward(series []float64) {
	next := math.NaN()
	for i := len(series) - 1; i >= 0; i-- {
		if math.IsNaN(series[i]) {
			series[i] = next
			continue
		}
		next = series[i]
	}
}

// rsi is Wilder-smoothed RSI; warm-up bars report the neutral 50 instead of
// an undefined value so dashboards always have something to render.
func rsi(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	if n <= period {
		for i := range out {
			out[i] = neutralRSI
		}
		return out
	}
	raw := talib.Rsi(closes, period)
	for i, v := range raw {
		if i < period || math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = neutralRSI
			continue
		}
		out[i] = clamp(v, 0, 100)
	}
	return out
}

// macd returns the MACD line and its signal line. Warm-up values are 0, and a
// series shorter than the slow span is all zeros (the insufficient-data
// default), matching the RSI neutral-fill policy.
func macd(closes []float64, fast, slow, signal int) ([]float64, []float64) {
	n := len(closes)
	if n < slow {
		return make([]float64, n), make([]float64, n)
	}
	line, sig, _ := talib.Macd(closes, fast, slow, signal)
	for i := range line {
		if math.IsNaN(line[i]) || math.IsInf(line[i], 0) {
			line[i] = 0
		}
		if math.IsNaN(sig[i]) || math.IsInf(sig[i], 0) {
			sig[i] = 0
		}
	}
	return line, sig
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
