package screener

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/watarai0202-netizen/snipe-stock/internal/collector"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// qualifyingBars builds 20 daily bars where the last bar closes at 110 on
// volume 150 against a trailing-5 volume mean of 100 and a prior-10-bar high
// of 109: RVOL 1.5, breakout true, MA5 = 108.
func qualifyingBars() []model.OHLCV {
	closes := []float64{
		100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		100, 100, 100, 100, 100, 106, 107, 108, 109, 110,
	}
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		vol := 100.0
		if i == len(closes)-1 {
			vol = 150
		}
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, i-len(closes)),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: vol,
		}
	}
	return bars
}

func universe(codes ...string) []model.UniverseEntry {
	entries := make([]model.UniverseEntry, len(codes))
	for i, code := range codes {
		entries[i] = model.UniverseEntry{Code: code, Name: "銘柄" + code, Tier: "プライム"}
	}
	return entries
}

func TestScreen_QualifyingTicker(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Daily: map[string][]model.OHLCV{"6590": qualifyingBars()},
	}
	s := New(fetcher, DefaultConfig())

	res := s.Screen(universe("6590"))
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(res.Candidates))
	}
	c := res.Candidates[0]
	if math.Abs(c.RelativeVolume-1.5) > 1e-9 {
		t.Errorf("expected RVOL 1.5, got %.4f", c.RelativeVolume)
	}
	if c.LastClose != 110 {
		t.Errorf("expected last close 110, got %.2f", c.LastClose)
	}
	avg, ok := res.Averages["6590"]
	if !ok {
		t.Fatal("expected cached trailing average for qualifier")
	}
	if math.Abs(avg-108) > 1e-9 {
		t.Errorf("expected cached MA5 of 108, got %.4f", avg)
	}
}

func TestScreen_InsufficientBars(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Daily: map[string][]model.OHLCV{"9984": collector.GenerateBars(8000, 10)},
	}
	s := New(fetcher, DefaultConfig())

	res := s.Screen(universe("9984"))
	if len(res.Candidates) != 0 {
		t.Fatalf("a ticker with 10 bars must never qualify, got %d candidates", len(res.Candidates))
	}
	if res.Skips.InsufficientData != 1 {
		t.Errorf("expected 1 insufficient-data skip, got %d", res.Skips.InsufficientData)
	}
}

func TestScreen_CorruptTickerDoesNotAbortBatch(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Daily:  map[string][]model.OHLCV{"6590": qualifyingBars()},
		Errors: map[string]error{"9432": errors.New("connection reset")},
	}
	s := New(fetcher, DefaultConfig())

	// The failing ticker comes first in the batch.
	res := s.Screen(universe("9432", "6590"))
	if len(res.Candidates) != 1 || res.Candidates[0].Code != "6590" {
		t.Fatalf("expected the healthy ticker to survive the batch, got %v", res.Candidates)
	}
	if res.Skips.FetchErrors != 1 {
		t.Errorf("expected 1 fetch-error skip, got %d", res.Skips.FetchErrors)
	}
}

func TestScreen_RVOLBand(t *testing.T) {
	bars := qualifyingBars()
	bars[len(bars)-1].Volume = 500 // RVOL 5.0, above the band

	fetcher := &collector.MockFetcher{Daily: map[string][]model.OHLCV{"6590": bars}}
	s := New(fetcher, DefaultConfig())

	res := s.Screen(universe("6590"))
	if len(res.Candidates) != 0 {
		t.Fatal("RVOL above the band must not qualify")
	}
	if res.Skips.Filtered != 1 {
		t.Errorf("expected 1 filtered skip, got %d", res.Skips.Filtered)
	}
}

func TestScreen_NoBreakout(t *testing.T) {
	bars := qualifyingBars()
	bars[len(bars)-1].Close = 105 // below the prior-10-bar high of 109

	fetcher := &collector.MockFetcher{Daily: map[string][]model.OHLCV{"6590": bars}}
	s := New(fetcher, DefaultConfig())

	res := s.Screen(universe("6590"))
	if len(res.Candidates) != 0 {
		t.Fatal("a close below the prior high must not qualify")
	}
}

func TestScreen_RankingAndTruncation(t *testing.T) {
	strong := qualifyingBars()
	strong[len(strong)-1].Volume = 155 // RVOL 1.55

	fetcher := &collector.MockFetcher{
		Daily: map[string][]model.OHLCV{
			"6590": qualifyingBars(),
			"7203": strong,
		},
	}
	cfg := DefaultConfig()
	s := New(fetcher, cfg)

	res := s.Screen(universe("6590", "7203"))
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
	if res.Candidates[0].Code != "7203" {
		t.Errorf("expected the higher-RVOL ticker first, got %s", res.Candidates[0].Code)
	}

	// Truncation drops the weaker ticker and its cached average.
	cfg.TopN = 1
	res = New(fetcher, cfg).Screen(universe("6590", "7203"))
	if len(res.Candidates) != 1 || res.Candidates[0].Code != "7203" {
		t.Fatalf("expected only the strongest candidate after truncation, got %v", res.Candidates)
	}
	if _, ok := res.Averages["6590"]; ok {
		t.Error("expected the truncated ticker's cached average to be dropped")
	}
}

func TestScreen_MinTradedValueFloor(t *testing.T) {
	fetcher := &collector.MockFetcher{Daily: map[string][]model.OHLCV{"6590": qualifyingBars()}}
	cfg := DefaultConfig()
	cfg.MinTradedValue = 1000000 // traded value is 110*150 = 16,500

	res := New(fetcher, cfg).Screen(universe("6590"))
	if len(res.Candidates) != 0 {
		t.Fatal("expected the traded-value floor to exclude the ticker")
	}
	if res.Skips.Filtered != 1 {
		t.Errorf("expected 1 filtered skip, got %d", res.Skips.Filtered)
	}
}
