package futures

import (
	"testing"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

func snapshot(high, low, close float64) model.FuturesSnapshot {
	return model.FuturesSnapshot{Symbol: "N225F", High: high, Low: low, Close: close, Bars: 10}
}

func TestClassify_FlatSession(t *testing.T) {
	c := NewClassifier()

	// high == low must never divide by zero
	a := c.Classify(snapshot(38500, 38500, 38500))
	if a.Trend != TrendUnavailable {
		t.Errorf("expected unavailable trend for flat session, got %s", a.Trend)
	}
	if a.Multiplier != 1.0 {
		t.Errorf("expected multiplier 1.0 for flat session, got %.3f", a.Multiplier)
	}
}

func TestClassify_EmptySnapshot(t *testing.T) {
	c := NewClassifier()
	a := c.Classify(model.FuturesSnapshot{Symbol: "N225F"})
	if a.Trend != TrendUnavailable || a.Multiplier != 1.0 {
		t.Errorf("expected unavailable/1.0 for empty snapshot, got %s/%.3f", a.Trend, a.Multiplier)
	}
}

func TestClassify_Bands(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		name       string
		close      float64 // session is 38000-39000, so retracement = (close-38000)/1000
		trend      Trend
		multiplier float64
	}{
		{"full recovery", 39000, TrendSharpRecovery, 1.0},
		{"recovery boundary", 38600, TrendSharpRecovery, 1.0},
		{"upper normal", 38599, TrendNormal, 0.995},
		{"mid normal", 38450, TrendNormal, 0.995},
		{"stagnant boundary", 38300, TrendFlatStagnant, 0.985},
		{"at the low", 38000, TrendFlatStagnant, 0.985},
	}
	for _, tt := range tests {
		a := c.Classify(snapshot(39000, 38000, tt.close))
		if a.Trend != tt.trend {
			t.Errorf("%s: expected trend %s, got %s", tt.name, tt.trend, a.Trend)
		}
		if a.Multiplier != tt.multiplier {
			t.Errorf("%s: expected multiplier %.3f, got %.3f", tt.name, tt.multiplier, a.Multiplier)
		}
	}
}

func TestClassify_MultiplierMonotonic(t *testing.T) {
	c := NewClassifier()
	prev := 0.0
	for close := 38000.0; close <= 39000.0; close += 50 {
		a := c.Classify(snapshot(39000, 38000, close))
		if a.Multiplier < prev {
			t.Fatalf("multiplier decreased at close %.0f: %.3f < %.3f", close, a.Multiplier, prev)
		}
		if a.Multiplier >= 1.0 && a.Trend != TrendSharpRecovery {
			t.Fatalf("only sharp recovery may reach multiplier 1.0, got %s at close %.0f", a.Trend, close)
		}
		prev = a.Multiplier
	}
}

func TestSnapshotFromBars(t *testing.T) {
	bars := []model.OHLCV{
		{High: 38800, Low: 38200, Close: 38400},
		{High: 39000, Low: 38100, Close: 38300},
		{High: 38900, Low: 38000, Close: 38700},
	}
	snap := model.SnapshotFromBars("N225F", bars)
	if snap.High != 39000 || snap.Low != 38000 {
		t.Errorf("expected session range 38000-39000, got %.0f-%.0f", snap.Low, snap.High)
	}
	if snap.Close != 38700 {
		t.Errorf("expected latest close 38700, got %.0f", snap.Close)
	}
	if snap.Bars != 3 {
		t.Errorf("expected 3 bars, got %d", snap.Bars)
	}
}
