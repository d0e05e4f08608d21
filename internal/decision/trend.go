package decision

import (
	"fmt"
	"math"
)

// Trend labels.
const (
	TrendBullish = "Bullish"
	TrendBearish = "Bearish"
	TrendNeutral = "Neutral"
)

const labelThreshold = 0.15

// Resolution is one time-resolution input to the trend vote.
type Resolution struct {
	Interval          string  `json:"interval" toml:"interval"`
	Weight            float64 `json:"weight" toml:"weight"`
	NoiseThresholdPct float64 `json:"noise_threshold_pct" toml:"noise_threshold_pct"`
	MinBars           int     `json:"min_bars" toml:"min_bars"`
}

func (r Resolution) withDefaults() Resolution {
	if r.NoiseThresholdPct <= 0 {
		r.NoiseThresholdPct = 0.1
	}
	if r.MinBars < 2 {
		r.MinBars = 2
	}
	return r
}

// DefaultResolutions is the intraday blend used when no configuration is
// supplied: finer resolutions carry more weight.
func DefaultResolutions() []Resolution {
	return []Resolution{
		{Interval: "5m", Weight: 0.4, NoiseThresholdPct: 0.1, MinBars: 2},
		{Interval: "15m", Weight: 0.3, NoiseThresholdPct: 0.1, MinBars: 2},
		{Interval: "30m", Weight: 0.2, NoiseThresholdPct: 0.1, MinBars: 2},
		{Interval: "1h", Weight: 0.1, NoiseThresholdPct: 0.1, MinBars: 2},
	}
}

// TrendVerdict is the fused directional call across resolutions.
type TrendVerdict struct {
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// AggregateTrend votes UP/DOWN/FLAT per resolution from the percent change
// between the earliest and latest close, blends the votes by weight, and
// labels the result. Resolutions without enough bars are skipped and their
// weight leaves the denominator. Every resolution contributes a rationale
// string either way.
func AggregateTrend(closes map[string][]float64, resolutions []Resolution) TrendVerdict {
	if len(resolutions) == 0 {
		resolutions = DefaultResolutions()
	}

	var score, usedWeight float64
	reasons := make([]string, 0, len(resolutions))
	for _, res := range resolutions {
		res = res.withDefaults()
		series := closes[res.Interval]
		if len(series) < res.MinBars {
			reasons = append(reasons, fmt.Sprintf("insufficient data for %s", res.Interval))
			continue
		}
		first, last := series[0], series[len(series)-1]
		changePct := 0.0
		if first != 0 {
			changePct = (last - first) / first * 100
		}
		usedWeight += res.Weight
		switch {
		case changePct > res.NoiseThresholdPct:
			score += res.Weight
			reasons = append(reasons, fmt.Sprintf("%s is UP %+.2f%%", res.Interval, changePct))
		case changePct < -res.NoiseThresholdPct:
			score -= res.Weight
			reasons = append(reasons, fmt.Sprintf("%s is DOWN %+.2f%%", res.Interval, changePct))
		default:
			reasons = append(reasons, fmt.Sprintf("%s is flat (%+.2f%%)", res.Interval, changePct))
		}
	}

	if usedWeight == 0 {
		return TrendVerdict{Label: TrendNeutral, Confidence: 0, Reasons: reasons}
	}

	weighted := score / usedWeight
	label := TrendNeutral
	switch {
	case weighted > labelThreshold:
		label = TrendBullish
	case weighted < -labelThreshold:
		label = TrendBearish
	}
	confidence := math.Min(math.Abs(weighted)*100, 100)
	return TrendVerdict{Label: label, Confidence: confidence, Reasons: reasons}
}
