package options

import "math"

// Probability is a probability-of-profit result. Valid is false when the
// inputs make the model undefined (zero DTE, zero volatility, non-positive
// prices, numeric blowups); callers render such results as "N/A" rather than
// treating them as zero.
type Probability struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

func undefinedProbability() Probability { return Probability{Value: math.NaN()} }

// ProbabilityOfProfit estimates the chance a long option leg is profitable at
// expiration under a log-normal price model. The position profits when the
// underlying finishes beyond the breakeven, so d1/d2 are computed against the
// breakeven price rather than the strike. riskFree is the annualized
// risk-free rate assumption (the two historical call sites used 0.01 and
// 0.05, so it stays a parameter).
func ProbabilityOfProfit(typ Type, strike, premium, underlying, iv float64, dte int, riskFree float64) Probability {
	if !typ.Valid() || dte <= 0 || iv <= 0 || strike <= 0 || underlying <= 0 {
		return undefinedProbability()
	}
	breakeven := Breakeven(typ, strike, premium)
	if breakeven <= 0 {
		return undefinedProbability()
	}

	t := float64(dte) / 365.0
	sigmaSqrtT := iv * math.Sqrt(t)
	if sigmaSqrtT == 0 || math.IsNaN(sigmaSqrtT) || math.IsInf(sigmaSqrtT, 0) {
		return undefinedProbability()
	}

	d1 := (math.Log(underlying/breakeven) + (riskFree+0.5*iv*iv)*t) / sigmaSqrtT
	d2 := d1 - sigmaSqrtT
	if math.IsNaN(d2) || math.IsInf(d2, 0) {
		return undefinedProbability()
	}

	pop := normCDF(d2)
	if typ == Put {
		pop = normCDF(-d2)
	}
	if math.IsNaN(pop) {
		return undefinedProbability()
	}
	return Probability{Value: clip(pop, 0, 1), Valid: true}
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
