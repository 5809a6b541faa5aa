package futures

import (
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// Trend is the morning trend label for the reference index future.
type Trend string

const (
	TrendSharpRecovery Trend = "V字回復"
	TrendFlatStagnant  Trend = "L字停滞"
	TrendNormal        Trend = "通常"
	TrendUnavailable   Trend = "データ無"
)

// Assessment is the classifier output: the trend label, the limit-price
// multiplier applied to each candidate's 5-day average, and the retracement
// rate for display.
type Assessment struct {
	Trend       Trend
	Multiplier  float64
	Retracement float64
}

// Classifier turns the morning futures snapshot into a trend assessment.
// Multipliers must satisfy FlatMultiplier <= NormalMultiplier < 1.0.
type Classifier struct {
	RecoveryFloor    float64 // retracement at or above this is a sharp recovery
	StagnantCeil     float64 // retracement at or below this is flat stagnation
	NormalMultiplier float64
	FlatMultiplier   float64
}

// NewClassifier returns a classifier with the reference thresholds.
func NewClassifier() *Classifier {
	return &Classifier{
		RecoveryFloor:    0.6,
		StagnantCeil:     0.3,
		NormalMultiplier: 0.995,
		FlatMultiplier:   0.985,
	}
}

// Classify maps a futures snapshot to a trend assessment. A missing or flat
// session degrades to TrendUnavailable with multiplier 1.0 so the rest of the
// pipeline keeps working without a futures adjustment.
func (c *Classifier) Classify(snap model.FuturesSnapshot) Assessment {
	sessionRange := snap.High - snap.Low
	if snap.Bars == 0 || sessionRange <= 0 {
		return Assessment{Trend: TrendUnavailable, Multiplier: 1.0}
	}
	rate := (snap.Close - snap.Low) / sessionRange
	switch {
	case rate >= c.RecoveryFloor:
		// Momentum already confirmed upward, no discount needed.
		return Assessment{Trend: TrendSharpRecovery, Multiplier: 1.0, Retracement: rate}
	case rate <= c.StagnantCeil:
		// Weak follow-through: place limits below the moving average.
		return Assessment{Trend: TrendFlatStagnant, Multiplier: c.FlatMultiplier, Retracement: rate}
	default:
		return Assessment{Trend: TrendNormal, Multiplier: c.NormalMultiplier, Retracement: rate}
	}
}
