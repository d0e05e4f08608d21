package options

import "github.com/shopspring/decimal"

// PayoffCurve computes profit/loss at expiration for a single long option leg
// across a grid of underlying prices.
func PayoffCurve(typ Type, strike, premium float64, underlying []float64) []float64 {
	k := decimal.NewFromFloat(strike)
	prem := decimal.NewFromFloat(premium)
	out := make([]float64, len(underlying))
	for i, p := range underlying {
		price := decimal.NewFromFloat(p)
		var exercise decimal.Decimal
		if typ == Put {
			exercise = k.Sub(price)
		} else {
			exercise = price.Sub(k)
		}
		if exercise.IsNegative() {
			exercise = decimal.Zero
		}
		out[i] = exercise.Sub(prem).InexactFloat64()
	}
	return out
}

// PriceGrid builds an evenly spaced price grid around the underlying, spanPct
// in each direction (e.g. 0.3 for +/-30%).
func PriceGrid(underlying float64, spanPct float64, points int) []float64 {
	if points < 2 || underlying <= 0 || spanPct <= 0 {
		return nil
	}
	lo := underlying * (1 - spanPct)
	if lo < 0 {
		lo = 0
	}
	hi := underlying * (1 + spanPct)
	step := (hi - lo) / float64(points-1)
	out := make([]float64, points)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}
