package options

import (
	"fmt"
	"math"
)

// Recommendation tiers for the narrative analyzer.
const (
	RecommendStrongBuy = "Strong Buy"
	RecommendBuy       = "Buy"
	RecommendConsider  = "Consider"
	RecommendCaution   = "Caution"
	RecommendAvoid     = "Avoid"
)

const detailMaxScore = 100

// Report is the narrative breakdown for a single contract: a 0-100 point
// score across the same five dimensions the ranked scorer uses, with
// human-readable rationale and red-flag strings.
type Report struct {
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence"`
	Score          int      `json:"score"`
	MaxScore       int      `json:"max_score"`
	Reasons        []string `json:"reasons"`
	RedFlags       []string `json:"red_flags,omitempty"`

	POP          Probability `json:"pop"`
	Breakeven    float64     `json:"breakeven"`
	BreakevenPct float64     `json:"breakeven_pct"`
	MaxLoss      float64     `json:"max_loss"`
	TargetProfit float64     `json:"target_profit"`
	RiskReward   float64     `json:"risk_reward"`
}

// AnalyzeContract produces the narrative report for one contract. It stays
// numerically consistent with RankChain: same POP model, same breakeven and
// time-value definitions, only the scoring scale differs (points instead of
// a weighted [0,1] blend).
func AnalyzeContract(c Contract, typ Type, underlying float64, dte int, riskFree float64) Report {
	if riskFree <= 0 {
		riskFree = 0.01
	}
	price := c.LastPrice
	pop := ProbabilityOfProfit(typ, c.Strike, price, underlying, c.ImpliedVolatility, dte, riskFree)
	intrinsic := IntrinsicValue(typ, c.Strike, underlying)
	timeValue := TimeValue(price, intrinsic)
	breakeven := Breakeven(typ, c.Strike, price)
	breakevenPct := math.Abs(breakeven-underlying) / (underlying + epsilon) * 100
	spreadPct := 0.0
	if price > 0 {
		spreadPct = (c.Ask - c.Bid) / (price + epsilon) * 100
	}

	rep := Report{
		MaxScore:     detailMaxScore,
		POP:          pop,
		Breakeven:    breakeven,
		BreakevenPct: breakevenPct,
		MaxLoss:      price,
		TargetProfit: price, // 100% gain target
	}
	stopLoss := price * 0.5
	if stopLoss > 0 {
		rep.RiskReward = rep.TargetProfit / (stopLoss + epsilon)
	} else {
		rep.RiskReward = math.NaN()
	}

	score := 0
	score += scorePOPPoints(pop, &rep)
	score += scoreLiquidityPoints(c.Volume, c.OpenInterest, spreadPct, &rep)
	score += scoreIVPoints(c.ImpliedVolatility, &rep)
	score += scoreDeltaPoints(typ, c.EffectiveDelta(), &rep)
	score += scoreValuePoints(breakevenPct, timeValue, price, &rep)
	rep.Score = score

	rep.Recommendation, rep.Confidence = recommend(score, len(rep.RedFlags))
	return rep
}

// POP: up to 25 points.
func scorePOPPoints(pop Probability, rep *Report) int {
	switch {
	case !pop.Valid:
		rep.Reasons = append(rep.Reasons, "POP n/a - cannot calculate probability (check IV/DTE)")
		return 0
	case pop.Value >= 0.55:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("high POP %.1f%% - strong probability of profit", pop.Value*100))
		return 25
	case pop.Value >= 0.45:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("moderate POP %.1f%% - reasonable probability", pop.Value*100))
		return 20
	case pop.Value >= 0.35:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("fair POP %.1f%% - below average probability", pop.Value*100))
		return 15
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("low POP %.1f%% - poor probability of profit", pop.Value*100))
		return 5
	}
}

// Liquidity: up to 25 points, split 10 volume / 10 open interest / 5 spread.
func scoreLiquidityPoints(volume, oi, spreadPct float64, rep *Report) int {
	pts := 0
	switch {
	case volume >= 500:
		pts += 10
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("excellent volume %.0f - very liquid", volume))
	case volume >= 100:
		pts += 7
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("good volume %.0f - adequate liquidity", volume))
	case volume >= 50:
		pts += 4
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("moderate volume %.0f - watch slippage", volume))
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("low volume %.0f - may have execution issues", volume))
	}

	switch {
	case oi >= 1000:
		pts += 10
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("high open interest %.0f - strong market interest", oi))
	case oi >= 500:
		pts += 7
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("good open interest %.0f - decent market depth", oi))
	case oi >= 100:
		pts += 4
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("moderate open interest %.0f - limited market depth", oi))
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("low open interest %.0f - very illiquid", oi))
	}

	switch {
	case spreadPct <= 5:
		pts += 5
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("tight spread %.1f%% - low transaction cost", spreadPct))
	case spreadPct <= 10:
		pts += 3
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("acceptable spread %.1f%% - reasonable cost", spreadPct))
	case spreadPct <= 15:
		pts += 1
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("wide spread %.1f%% - high transaction cost", spreadPct))
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("very wide spread %.1f%% - expensive to trade", spreadPct))
	}
	return pts
}

// Implied volatility sanity band: up to 15 points.
func scoreIVPoints(iv float64, rep *Report) int {
	switch {
	case iv >= 0.15 && iv <= 0.60:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("healthy IV %.0f%% - fairly priced premium", iv*100))
		return 15
	case iv > 0.60 && iv <= 1.0:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("elevated IV %.0f%% - expensive premium, big moves expected", iv*100))
		return 10
	case iv < 0.15:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("very low IV %.0f%% - limited movement expected", iv*100))
		return 8
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("extreme IV %.0f%% - very expensive premium", iv*100))
		return 5
	}
}

// Moneyness/delta: up to 20 points; puts judged on absolute delta.
func scoreDeltaPoints(typ Type, delta float64, rep *Report) int {
	d := delta
	if typ == Put {
		d = math.Abs(delta)
	}
	switch {
	case d >= 0.60 && d <= 0.80:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("strong delta %.2f - high probability ITM", delta))
		return 20
	case d >= 0.40:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("balanced delta %.2f - ATM sweet spot", delta))
		return 18
	case d >= 0.25:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("moderate delta %.2f - decent leverage, lower probability", delta))
		return 14
	case d >= 0.15:
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("low delta %.2f - OTM, needs significant move", delta))
		return 8
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("very low delta %.2f - far OTM, lottery ticket", delta))
		return 3
	}
}

// Time value and breakeven balance: up to 15 points (8 + 7).
func scoreValuePoints(breakevenPct, timeValue, price float64, rep *Report) int {
	pts := 0
	switch {
	case breakevenPct <= 3:
		pts += 8
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("close breakeven %.1f%% - needs only a small move", breakevenPct))
	case breakevenPct <= 6:
		pts += 6
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("reasonable breakeven %.1f%% - moderate move needed", breakevenPct))
	case breakevenPct <= 10:
		pts += 3
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("distant breakeven %.1f%% - significant move needed", breakevenPct))
	default:
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("very distant breakeven %.1f%% - large move required", breakevenPct))
	}

	timeValuePct := 0.0
	if price > 0 {
		timeValuePct = timeValue / (price + epsilon) * 100
	}
	switch {
	case timeValuePct >= 30 && timeValuePct <= 70:
		pts += 7
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("balanced time value %.0f%% - fair pricing", timeValuePct))
	case timeValuePct < 30:
		pts += 4
		rep.Reasons = append(rep.Reasons, fmt.Sprintf("low time value %.0f%% - mostly intrinsic", timeValuePct))
	default:
		pts += 2
		rep.RedFlags = append(rep.RedFlags, fmt.Sprintf("high time value %.0f%% - paying mostly for time", timeValuePct))
	}
	return pts
}

func recommend(score, redFlags int) (string, string) {
	switch {
	case score >= 80 && redFlags == 0:
		return RecommendStrongBuy, "high confidence - excellent setup across all metrics"
	case score >= 70 && redFlags <= 1:
		return RecommendBuy, "good confidence - strong overall profile"
	case score >= 60:
		return RecommendConsider, "moderate confidence - decent setup but monitor closely"
	case score >= 50:
		return RecommendCaution, "low confidence - significant concerns present"
	default:
		return RecommendAvoid, "not recommended - too many risk factors"
	}
}
