package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/watarai0202-netizen/snipe-stock/internal/collector"
	"github.com/watarai0202-netizen/snipe-stock/internal/futures"
	"github.com/watarai0202-netizen/snipe-stock/internal/margin"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
	"github.com/watarai0202-netizen/snipe-stock/internal/screener"
	"github.com/watarai0202-netizen/snipe-stock/internal/strategy"
)

type fakeStore struct {
	records []model.MarginRecord
	saved   []model.MarginRecord
	loadErr error
}

func (f *fakeStore) Load() ([]model.MarginRecord, error) { return f.records, f.loadErr }
func (f *fakeStore) Save(records []model.MarginRecord) error {
	f.saved = records
	return nil
}

// dailyBars builds 20 bars ending at close 110 on volume 150: RVOL 1.5,
// breakout over the prior-10-bar high of 109, MA5 = 108.
func dailyBars() []model.OHLCV {
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
			Time: time.Now().AddDate(0, 0, i-len(closes)),
			Open: c, High: c, Low: c, Close: c, Volume: vol,
		}
	}
	return bars
}

// normalIntraday yields a retracement of 0.45: range 100-110, close 104.5.
func normalIntraday() []model.OHLCV {
	return []model.OHLCV{
		{High: 108, Low: 102, Close: 103},
		{High: 110, Low: 100, Close: 101},
		{High: 106, Low: 101, Close: 104.5},
	}
}

func testPipeline(fetcher collector.Fetcher, universe collector.UniverseSource, store MarginStore) *Pipeline {
	cfg := screener.DefaultConfig()
	return &Pipeline{
		Universe:      universe,
		Fetcher:       fetcher,
		Screener:      screener.New(fetcher, cfg),
		Classifier:    futures.NewClassifier(),
		Parser:        margin.NewParser(margin.SellDefaultIncrease),
		Store:         store,
		ScoreConfig:   strategy.DefaultScoreConfig(),
		Tier:          "プライム",
		FuturesSymbol: "N225F",
		AverageWindow: cfg.AverageWindow,
		LookbackDays:  cfg.LookbackDays,
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Daily:    map[string][]model.OHLCV{"6590": dailyBars()},
		Intraday: normalIntraday(),
	}
	universe := &collector.MockUniverse{Entries: []model.UniverseEntry{
		{Code: "6590", Name: "ニデック", Tier: "プライム"},
		{Code: "2160", Name: "ジーエヌアイ", Tier: "グロース"}, // filtered out by tier
	}}
	store := &fakeStore{records: []model.MarginRecord{
		{Code: "6590", MarginBuyDelta: 20000, MarginSellDelta: 60000, SpotDelta: 500},
	}}

	p := testPipeline(fetcher, universe, store)
	st := NewState()

	res, err := p.RunScreening(st)
	if err != nil {
		t.Fatalf("screening: %v", err)
	}
	if res.Universe != 1 {
		t.Errorf("expected tier filter to leave 1 ticker, got %d", res.Universe)
	}
	if len(st.Candidates()) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(st.Candidates()))
	}

	matched, err := p.SyncMarginStore(st)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if matched != 1 {
		t.Errorf("expected 1 matched row, got %d", matched)
	}

	report, err := p.Price(st)
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	if report.Futures.Trend != futures.TrendNormal {
		t.Errorf("expected normal futures trend, got %s", report.Futures.Trend)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(report.Recommendations))
	}
	rec := report.Recommendations[0]
	if math.Abs(rec.TargetPrice-107.46) > 1e-9 {
		t.Errorf("expected target 107.46, got %.6f", rec.TargetPrice)
	}
	if rec.SupplyScore != 20 {
		t.Errorf("expected supply score 20, got %d", rec.SupplyScore)
	}
	if rec.Verdict != model.VerdictSnipe {
		t.Errorf("expected snipe verdict, got %s", rec.Verdict)
	}
	if st.Stage() != StagePriced {
		t.Errorf("expected priced stage, got %s", st.Stage())
	}
}

func TestPipeline_ApplyMarginText(t *testing.T) {
	fetcher := &collector.MockFetcher{Daily: map[string][]model.OHLCV{"6590": dailyBars()}}
	universe := &collector.MockUniverse{Entries: []model.UniverseEntry{
		{Code: "6590", Name: "ニデック", Tier: "プライム"},
	}}
	p := testPipeline(fetcher, universe, &fakeStore{})
	st := NewState()
	if _, err := p.RunScreening(st); err != nil {
		t.Fatalf("screening: %v", err)
	}

	deltas, err := p.ApplyMarginText(st, "6590", "1,043,600株買越し")
	if err != nil {
		t.Fatalf("apply margin text: %v", err)
	}
	if deltas.Spot != 1043600 {
		t.Errorf("expected spot +1043600, got %d", deltas.Spot)
	}

	// Unparseable text must not touch the state.
	if _, err := p.ApplyMarginText(st, "6590", "特に材料なし"); !errors.Is(err, margin.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	c, _ := st.Candidate("6590")
	if c.SpotDelta != 1043600 {
		t.Errorf("failed parse mutated the candidate: spot=%d", c.SpotDelta)
	}
}

func TestPipeline_FuturesFailureDegrades(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Daily:  map[string][]model.OHLCV{"6590": dailyBars()},
		Errors: map[string]error{"N225F": errors.New("feed down")},
	}
	universe := &collector.MockUniverse{Entries: []model.UniverseEntry{
		{Code: "6590", Name: "ニデック", Tier: "プライム"},
	}}
	p := testPipeline(fetcher, universe, &fakeStore{})
	st := NewState()
	if _, err := p.RunScreening(st); err != nil {
		t.Fatalf("screening: %v", err)
	}

	report, err := p.Price(st)
	if err != nil {
		t.Fatalf("pricing must survive a futures outage: %v", err)
	}
	if report.Futures.Trend != futures.TrendUnavailable || report.Futures.Multiplier != 1.0 {
		t.Errorf("expected unavailable/1.0, got %s/%.3f", report.Futures.Trend, report.Futures.Multiplier)
	}
	rec := report.Recommendations[0]
	if math.Abs(rec.TargetPrice-108) > 1e-9 {
		t.Errorf("expected unadjusted target 108, got %.6f", rec.TargetPrice)
	}
}

func TestPipeline_PriceRecomputesMissingAverage(t *testing.T) {
	fetcher := &collector.MockFetcher{
		Daily:    map[string][]model.OHLCV{"6590": dailyBars()},
		Intraday: normalIntraday(),
	}
	p := testPipeline(fetcher, &collector.MockUniverse{}, &fakeStore{})

	// A state whose cache hint is missing: pricing must refetch, not fail.
	st := NewState()
	st.SetScreened([]*model.Candidate{{Code: "6590", Name: "ニデック", LastClose: 110}}, nil)

	report, err := p.Price(st)
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	rec := report.Recommendations[0]
	if !rec.TargetAvailable {
		t.Fatal("expected a target from the recomputed average")
	}
	if math.Abs(rec.TargetPrice-107.46) > 1e-9 {
		t.Errorf("expected target 107.46 from refetched history, got %.6f", rec.TargetPrice)
	}
}

func TestPipeline_SaveMargins(t *testing.T) {
	fetcher := &collector.MockFetcher{Daily: map[string][]model.OHLCV{"6590": dailyBars()}}
	universe := &collector.MockUniverse{Entries: []model.UniverseEntry{
		{Code: "6590", Name: "ニデック", Tier: "プライム"},
	}}
	store := &fakeStore{}
	p := testPipeline(fetcher, universe, store)

	st := NewState()
	if err := p.SaveMargins(st); err == nil {
		t.Error("expected error saving an empty session")
	}

	if _, err := p.RunScreening(st); err != nil {
		t.Fatalf("screening: %v", err)
	}
	if _, err := p.ApplyMarginText(st, "6590", "12,000株買残増"); err != nil {
		t.Fatalf("apply margin text: %v", err)
	}
	if err := p.SaveMargins(st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0].MarginBuyDelta != 12000 {
		t.Errorf("expected saved table with buy delta 12000, got %+v", store.saved)
	}
}
