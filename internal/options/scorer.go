package options

import (
	"math"
	"sort"
)

const (
	defaultMinVolume       = 10.0
	defaultMinOpenInterest = 50.0
	defaultMaxSpreadPct    = 20.0
	defaultMaxIV           = 5.0
	defaultRiskFreeRate    = 0.05

	minLastPrice         = 0.01
	idealBreakevenPct    = 5.0
	epsilon              = 1e-9
	normalizationTieFill = 0.5
)

// Quality tiers over the overall score.
const (
	TierPoor      = "Poor"
	TierFair      = "Fair"
	TierGood      = "Good"
	TierExcellent = "Excellent"
)

// Score blend weights.
const (
	weightPOP       = 0.40
	weightLiquidity = 0.25
	weightValue     = 0.20
	weightDelta     = 0.15
)

// ScoreSettings are the tradability filter thresholds and model assumptions.
// Zero values fall back to defaults.
type ScoreSettings struct {
	MinVolume       float64 `json:"min_volume,omitempty" toml:"min_volume"`
	MinOpenInterest float64 `json:"min_open_interest,omitempty" toml:"min_open_interest"`
	MaxSpreadPct    float64 `json:"max_spread_pct,omitempty" toml:"max_spread_pct"`
	MaxIV           float64 `json:"max_iv,omitempty" toml:"max_iv"`
	RiskFreeRate    float64 `json:"risk_free_rate,omitempty" toml:"risk_free_rate"`
}

func (s ScoreSettings) withDefaults() ScoreSettings {
	if s.MinVolume <= 0 {
		s.MinVolume = defaultMinVolume
	}
	if s.MinOpenInterest <= 0 {
		s.MinOpenInterest = defaultMinOpenInterest
	}
	if s.MaxSpreadPct <= 0 {
		s.MaxSpreadPct = defaultMaxSpreadPct
	}
	if s.MaxIV <= 0 {
		s.MaxIV = defaultMaxIV
	}
	if s.RiskFreeRate <= 0 {
		s.RiskFreeRate = defaultRiskFreeRate
	}
	return s
}

// ComponentScores are the normalized [0,1] factors behind an overall score.
type ComponentScores struct {
	POP       float64 `json:"pop"`
	Liquidity float64 `json:"liquidity"`
	Value     float64 `json:"value"`
	Delta     float64 `json:"delta"`
}

// Scored is a contract that survived the hard filters, with derived metrics
// and its weighted quality score.
type Scored struct {
	Contract

	POP                  Probability     `json:"pop"`
	IntrinsicValue       float64         `json:"intrinsic_value"`
	TimeValue            float64         `json:"time_value"`
	Breakeven            float64         `json:"breakeven"`
	BreakevenDistancePct float64         `json:"breakeven_distance_pct"`
	SpreadPct            float64         `json:"spread_pct"`
	Moneyness            string          `json:"moneyness"`
	Components           ComponentScores `json:"component_scores"`
	OverallScore         float64         `json:"overall_score"`
	QualityTier          string          `json:"quality_tier"`
}

// RankChain filters one expiration's chain for tradability, derives metrics
// and component scores per surviving row, and returns the rows sorted by
// overall score descending (stable, so input order breaks ties). Min/max
// normalization bounds are recomputed for every call because each chain
// changes the range.
func RankChain(chain []Contract, typ Type, underlying float64, dte int, cfg ScoreSettings) []Scored {
	cfg = cfg.withDefaults()

	rows := make([]Scored, 0, len(chain))
	for _, c := range chain {
		if !passesFilters(c, cfg) {
			continue
		}
		mid := (c.Bid + c.Ask) / 2
		spreadPct := (c.Ask - c.Bid) / (mid + epsilon) * 100
		intrinsic := IntrinsicValue(typ, c.Strike, underlying)
		breakeven := Breakeven(typ, c.Strike, c.LastPrice)
		row := Scored{
			Contract:             c,
			POP:                  ProbabilityOfProfit(typ, c.Strike, c.LastPrice, underlying, c.ImpliedVolatility, dte, cfg.RiskFreeRate),
			IntrinsicValue:       intrinsic,
			TimeValue:            TimeValue(c.LastPrice, intrinsic),
			Breakeven:            breakeven,
			BreakevenDistancePct: math.Abs(breakeven-underlying) / (underlying + epsilon) * 100,
			SpreadPct:            spreadPct,
			Moneyness:            c.Moneyness(underlying),
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return rows
	}

	volNorm := batchNormalizer(rows, func(r Scored) float64 { return r.Volume })
	oiNorm := batchNormalizer(rows, func(r Scored) float64 { return r.OpenInterest })

	for i := range rows {
		r := &rows[i]

		popScore := 0.0
		if r.POP.Valid {
			popScore = r.POP.Value
		}

		spreadScore := clip(1-r.SpreadPct/cfg.MaxSpreadPct, 0, 1)
		liquidityScore := 0.4*volNorm(r.Volume) + 0.4*oiNorm(r.OpenInterest) + 0.2*spreadScore

		timeValueRatio := clip(r.TimeValue/(r.LastPrice+epsilon), 0, 1)
		breakevenScore := clip(1-math.Abs(r.BreakevenDistancePct-idealBreakevenPct)/10, 0, 1)
		valueScore := 0.4*timeValueRatio + 0.6*breakevenScore

		deltaScore := scoreDelta(typ, r.EffectiveDelta())

		r.Components = ComponentScores{
			POP:       popScore,
			Liquidity: liquidityScore,
			Value:     valueScore,
			Delta:     deltaScore,
		}
		r.OverallScore = weightPOP*popScore +
			weightLiquidity*liquidityScore +
			weightValue*valueScore +
			weightDelta*deltaScore
		r.QualityTier = qualityTier(r.OverallScore)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OverallScore > rows[j].OverallScore
	})
	return rows
}

func passesFilters(c Contract, cfg ScoreSettings) bool {
	for _, v := range []float64{c.Strike, c.LastPrice, c.Bid, c.Ask, c.Volume, c.OpenInterest, c.ImpliedVolatility} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.LastPrice <= minLastPrice || c.Bid <= 0 || c.Ask <= 0 {
		return false
	}
	if c.ImpliedVolatility <= 0 || c.ImpliedVolatility >= cfg.MaxIV {
		return false
	}
	if c.Volume < cfg.MinVolume || c.OpenInterest < cfg.MinOpenInterest {
		return false
	}
	mid := (c.Bid + c.Ask) / 2
	spreadPct := (c.Ask - c.Bid) / (mid + epsilon) * 100
	return spreadPct <= cfg.MaxSpreadPct
}

// batchNormalizer builds a min-max normalizer over the filtered batch; when
// every row ties the normalized value is 0.5 for all of them.
func batchNormalizer(rows []Scored, field func(Scored) float64) func(float64) float64 {
	lo, hi := field(rows[0]), field(rows[0])
	for _, r := range rows[1:] {
		v := field(r)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return func(float64) float64 { return normalizationTieFill }
	}
	span := hi - lo
	return func(v float64) float64 { return (v - lo) / (span + epsilon) }
}

// scoreDelta rewards deltas near 0.5 inside the 0.2..0.8 band and flattens
// everything outside it; puts are judged on the absolute delta.
func scoreDelta(typ Type, delta float64) float64 {
	d := delta
	if typ == Put {
		d = math.Abs(delta)
	}
	if d < 0.2 || d > 0.8 {
		return 0.2
	}
	return 1 - math.Abs(d-0.5)/0.5
}

func qualityTier(score float64) string {
	switch {
	case score >= 0.75:
		return TierExcellent
	case score >= 0.6:
		return TierGood
	case score >= 0.4:
		return TierFair
	default:
		return TierPoor
	}
}
