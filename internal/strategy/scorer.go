package strategy

import (
	"github.com/watarai0202-netizen/snipe-stock/internal/futures"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// ScoreConfig holds the supply/demand scoring thresholds.
type ScoreConfig struct {
	SellOverBuyBonus  int   // sellers building faster than buyers, contrarian bullish
	SpotBuyBonus      int   // net spot buying
	OverhangPenalty   int   // subtracted when the buy overhang exceeds the threshold
	OverhangThreshold int64 // share count above which margin longs risk a false floor
}

// DefaultScoreConfig returns the reference scoring thresholds.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		SellOverBuyBonus:  15,
		SpotBuyBonus:      5,
		OverhangPenalty:   15,
		OverhangThreshold: 50000,
	}
}

// Score combines a candidate's margin figures into an additive supply/demand
// score. No normalization is applied.
func Score(c *model.Candidate, cfg ScoreConfig) int {
	score := 0
	if c.MarginSellDelta > c.MarginBuyDelta {
		score += cfg.SellOverBuyBonus
	}
	if c.SpotDelta > 0 {
		score += cfg.SpotBuyBonus
	}
	if c.MarginBuyDelta > cfg.OverhangThreshold {
		score -= cfg.OverhangPenalty
	}
	return score
}

// VerdictFor maps a candidate's score to an action label. Candidates with no
// supply/demand data entered are always cautious regardless of score.
func VerdictFor(c *model.Candidate, score int) model.Verdict {
	if !c.HasMarginData() {
		return model.VerdictCautious
	}
	if score >= 0 {
		return model.VerdictSnipe
	}
	return model.VerdictCautious
}

// TargetPrice derives the recommended limit price from the trailing close
// average and the futures multiplier. Full precision is retained; rounding is
// a display concern. Returns false when no average is available.
func TargetPrice(average5, multiplier float64) (float64, bool) {
	if average5 <= 0 {
		return 0, false
	}
	return average5 * multiplier, true
}

// BuildRecommendation assembles the final report row for one candidate.
func BuildRecommendation(c *model.Candidate, average5 float64, assessment futures.Assessment, cfg ScoreConfig) model.Recommendation {
	score := Score(c, cfg)
	target, ok := TargetPrice(average5, assessment.Multiplier)

	rec := model.Recommendation{
		Code:            c.Code,
		Name:            c.Name,
		RelativeVolume:  c.RelativeVolume,
		MA5:             average5,
		SupplyScore:     score,
		TargetPrice:     target,
		TargetAvailable: ok,
		Verdict:         VerdictFor(c, score),
	}
	if average5 > 0 {
		rec.MA5Deviation = (c.LastClose - average5) / average5 * 100
	}
	return rec
}
