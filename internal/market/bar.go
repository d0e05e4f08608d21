package market

import "math"

// Bar is a single OHLCV bar. Times are unix milliseconds.
type Bar struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// CleanBars returns the bars usable for indicator math: finite, non-negative
// prices and volume, strictly increasing open times. Malformed bars are
// dropped, never coerced to zero.
func CleanBars(bars []Bar) []Bar {
	out := make([]Bar, 0, len(bars))
	var lastOpen int64 = math.MinInt64
	for _, b := range bars {
		if !validBar(b) {
			continue
		}
		if b.OpenTime <= lastOpen {
			continue
		}
		lastOpen = b.OpenTime
		out = append(out, b)
	}
	return out
}

func validBar(b Bar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
		return false
	}
	return true
}

// Closes extracts the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high column.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume column.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}
