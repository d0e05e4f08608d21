package options

import "math"

// Type is the option side.
type Type string

const (
	Call Type = "call"
	Put  Type = "put"
)

// Valid reports whether t is a known option side.
func (t Type) Valid() bool { return t == Call || t == Put }

const defaultDelta = 0.5

// Contract is one raw option-chain row. Missing numeric fields are NaN;
// Delta is optional and defaults to 0.5 when absent.
type Contract struct {
	Strike            float64  `json:"strike"`
	Type              Type     `json:"type"`
	LastPrice         float64  `json:"last_price"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	ImpliedVolatility float64  `json:"implied_volatility"`
	Volume            float64  `json:"volume"`
	OpenInterest      float64  `json:"open_interest"`
	Delta             *float64 `json:"delta,omitempty"`
}

// EffectiveDelta returns the contract delta, or the 0.5 default when the
// chain did not carry one.
func (c Contract) EffectiveDelta() float64 {
	if c.Delta == nil || math.IsNaN(*c.Delta) {
		return defaultDelta
	}
	return *c.Delta
}

// Breakeven is strike+premium for calls and strike-premium for puts.
func Breakeven(typ Type, strike, premium float64) float64 {
	if typ == Put {
		return strike - premium
	}
	return strike + premium
}

// IntrinsicValue is the exercise value of the contract at the given
// underlying price, floored at zero.
func IntrinsicValue(typ Type, strike, underlying float64) float64 {
	if typ == Put {
		return math.Max(0, strike-underlying)
	}
	return math.Max(0, underlying-strike)
}

// TimeValue is the premium in excess of intrinsic value, floored at zero.
func TimeValue(premium, intrinsic float64) float64 {
	return math.Max(0, premium-intrinsic)
}

// Moneyness classifies the strike against the underlying: ATM within 1%,
// otherwise ITM or OTM by side.
func (c Contract) Moneyness(underlying float64) string {
	if underlying <= 0 || c.Strike <= 0 {
		return "N/A"
	}
	if math.Abs(underlying-c.Strike)/underlying <= 0.01 {
		return "ATM"
	}
	inTheMoney := underlying > c.Strike
	if c.Type == Put {
		inTheMoney = underlying < c.Strike
	}
	if inTheMoney {
		return "ITM"
	}
	return "OTM"
}
