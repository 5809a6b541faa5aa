package screener

import (
	"log"
	"sort"

	"github.com/watarai0202-netizen/snipe-stock/internal/calculator"
	"github.com/watarai0202-netizen/snipe-stock/internal/collector"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// Rank keys for ordering qualified candidates.
const (
	RankByRelativeVolume = "rvol"
	RankByTradedValue    = "value"
)

// Config holds the screening thresholds.
type Config struct {
	MinBars        int     // tickers with fewer daily bars are skipped
	VolumeWindow   int     // bars in the trailing volume mean, excluding the last
	BreakoutWindow int     // bars in the prior-high lookback, excluding the last
	AverageWindow  int     // bars in the cached trailing close average
	RVOLMin        float64 // lower bound of the qualifying relative-volume band
	RVOLMax        float64 // upper bound of the qualifying relative-volume band
	MinTradedValue float64 // optional floor on lastClose*lastVolume, 0 disables
	TopN           int     // qualifying tickers kept after ranking
	BatchSize      int     // tickers fetched per sequential batch
	LookbackDays   int     // daily bars requested per ticker
	RankBy         string  // RankByRelativeVolume or RankByTradedValue
}

// DefaultConfig returns the reference screening thresholds.
func DefaultConfig() Config {
	return Config{
		MinBars:        15,
		VolumeWindow:   5,
		BreakoutWindow: 10,
		AverageWindow:  5,
		RVOLMin:        1.15,
		RVOLMax:        1.6,
		TopN:           15,
		BatchSize:      50,
		LookbackDays:   30,
		RankBy:         RankByRelativeVolume,
	}
}

// SkipReport counts tickers excluded during a screening run, by reason.
// Partial failure never aborts a batch; these counts keep it observable.
type SkipReport struct {
	InsufficientData int
	FetchErrors      int
	Filtered         int
}

// Total returns the number of excluded tickers.
func (r SkipReport) Total() int {
	return r.InsufficientData + r.FetchErrors + r.Filtered
}

// Result is the output of one screening run: the ranked candidate set plus
// the cached trailing close average per candidate.
type Result struct {
	Candidates []*model.Candidate
	Averages   map[string]float64
	Skips      SkipReport
	Universe   int
}

// Screener filters and ranks a ticker universe by relative volume and a
// breakout test against recent price history.
type Screener struct {
	fetcher collector.Fetcher
	cfg     Config
}

// New creates a Screener over the given price fetcher.
func New(fetcher collector.Fetcher, cfg Config) *Screener {
	return &Screener{fetcher: fetcher, cfg: cfg}
}

// Screen runs the full screening pass over the universe. Fetches happen in
// fixed-size sequential batches; a failure on one ticker excludes only that
// ticker.
func (s *Screener) Screen(universe []model.UniverseEntry) *Result {
	res := &Result{
		Averages: make(map[string]float64),
		Universe: len(universe),
	}

	for start := 0; start < len(universe); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(universe) {
			end = len(universe)
		}
		for _, entry := range universe[start:end] {
			s.screenOne(entry, res)
		}
	}

	s.rank(res.Candidates)
	if len(res.Candidates) > s.cfg.TopN {
		for _, dropped := range res.Candidates[s.cfg.TopN:] {
			delete(res.Averages, dropped.Code)
		}
		res.Candidates = res.Candidates[:s.cfg.TopN]
	}
	return res
}

func (s *Screener) screenOne(entry model.UniverseEntry, res *Result) {
	bars, err := s.fetcher.FetchDailyBars(entry.Code, s.cfg.LookbackDays)
	if err != nil {
		log.Printf("[WARN] screen %s: fetch failed: %v", entry.Code, err)
		res.Skips.FetchErrors++
		return
	}
	if len(bars) < s.cfg.MinBars {
		res.Skips.InsufficientData++
		return
	}

	last := bars[len(bars)-1]

	rvol, err := calculator.RelativeVolume(bars, s.cfg.VolumeWindow)
	if err != nil {
		log.Printf("[WARN] screen %s: relative volume: %v", entry.Code, err)
		res.Skips.FetchErrors++
		return
	}
	priorHigh, err := calculator.PriorHigh(bars, s.cfg.BreakoutWindow)
	if err != nil {
		log.Printf("[WARN] screen %s: prior high: %v", entry.Code, err)
		res.Skips.FetchErrors++
		return
	}

	breakout := last.Close >= priorHigh
	tradedValue := last.Close * last.Volume

	if rvol < s.cfg.RVOLMin || rvol > s.cfg.RVOLMax || !breakout {
		res.Skips.Filtered++
		return
	}
	if s.cfg.MinTradedValue > 0 && tradedValue < s.cfg.MinTradedValue {
		res.Skips.Filtered++
		return
	}

	// Cache the trailing close average now so the pricing stage does not
	// need a second fetch for history already seen here.
	if avg, err := calculator.TrailingCloseAverage(bars, s.cfg.AverageWindow); err == nil {
		res.Averages[entry.Code] = avg
	}

	res.Candidates = append(res.Candidates, &model.Candidate{
		Code:           entry.Code,
		Name:           entry.Name,
		RelativeVolume: rvol,
		LastClose:      last.Close,
		TradedValue:    tradedValue,
	})
}

func (s *Screener) rank(candidates []*model.Candidate) {
	switch s.cfg.RankBy {
	case RankByTradedValue:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].TradedValue > candidates[j].TradedValue
		})
	default:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].RelativeVolume > candidates[j].RelativeVolume
		})
	}
}
