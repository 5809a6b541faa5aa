package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/watarai0202-netizen/snipe-stock/internal/calculator"
	"github.com/watarai0202-netizen/snipe-stock/internal/collector"
	"github.com/watarai0202-netizen/snipe-stock/internal/futures"
	"github.com/watarai0202-netizen/snipe-stock/internal/margin"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
	"github.com/watarai0202-netizen/snipe-stock/internal/screener"
	"github.com/watarai0202-netizen/snipe-stock/internal/strategy"
)

// MarginStore is the externally synced margin dataset.
type MarginStore interface {
	Load() ([]model.MarginRecord, error)
	Save(records []model.MarginRecord) error
}

// Report is the output of the pricing stage.
type Report struct {
	Futures         futures.Assessment
	Recommendations []model.Recommendation
	GeneratedAt     time.Time
}

// Pipeline wires the screening, enrichment and pricing stages together. It
// mutates the session State only between stage calls.
type Pipeline struct {
	Universe      collector.UniverseSource
	Fetcher       collector.Fetcher
	Screener      *screener.Screener
	Classifier    *futures.Classifier
	Parser        *margin.Parser
	Store         MarginStore
	ScoreConfig   strategy.ScoreConfig
	Tier          string
	FuturesSymbol string
	AverageWindow int
	LookbackDays  int
}

// RunScreening fetches the universe, screens it and replaces the session's
// candidate set. The state is left untouched when the master list cannot be
// fetched.
func (p *Pipeline) RunScreening(st *State) (*screener.Result, error) {
	entries, err := p.Universe.FetchUniverse()
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", err)
	}
	entries = collector.FilterTier(entries, p.Tier)
	if len(entries) == 0 {
		return nil, fmt.Errorf("universe is empty for tier %q", p.Tier)
	}

	res := p.Screener.Screen(entries)
	st.SetScreened(res.Candidates, res.Averages)
	log.Printf("[INFO] screening done: %d candidates from %d tickers (skipped: %d insufficient, %d fetch errors, %d filtered)",
		len(res.Candidates), res.Universe,
		res.Skips.InsufficientData, res.Skips.FetchErrors, res.Skips.Filtered)
	return res, nil
}

// ApplyMarginText parses one ticker's pasted supply/demand text and applies
// the result to the session. A parse failure leaves the state untouched.
func (p *Pipeline) ApplyMarginText(st *State, code, text string) (margin.Deltas, error) {
	deltas, err := p.Parser.Parse(text)
	if err != nil {
		return margin.Deltas{}, err
	}
	if err := st.ApplyDeltas(code, deltas); err != nil {
		return margin.Deltas{}, err
	}
	return deltas, nil
}

// SyncMarginStore merges the externally synced margin table into the session.
func (p *Pipeline) SyncMarginStore(st *State) (int, error) {
	records, err := p.Store.Load()
	if err != nil {
		return 0, fmt.Errorf("load margin store: %w", err)
	}
	return st.MergeMarginTable(records)
}

// SaveMargins persists the session's current margin fields to the store.
func (p *Pipeline) SaveMargins(st *State) error {
	if st.Stage() == StageEmpty {
		return fmt.Errorf("no candidate set: run screening first")
	}
	return p.Store.Save(st.MarginTable())
}

// Price runs the futures classifier, scorer and target-price calculation over
// the full current candidate set. It reads candidate state without mutating
// it, so it can be re-run after every margin edit.
func (p *Pipeline) Price(st *State) (*Report, error) {
	assessment := p.assessFutures()

	recs := make([]model.Recommendation, 0, len(st.Candidates()))
	for _, c := range st.Candidates() {
		average, ok := st.Average(c.Code)
		if !ok {
			// The cache is only a hint; recompute from a fresh fetch.
			average = p.refetchAverage(c.Code)
		}
		recs = append(recs, strategy.BuildRecommendation(c, average, assessment, p.ScoreConfig))
	}
	if err := st.MarkPriced(); err != nil {
		return nil, err
	}
	return &Report{
		Futures:         assessment,
		Recommendations: recs,
		GeneratedAt:     time.Now(),
	}, nil
}

// assessFutures classifies the morning futures trend. Any retrieval failure
// degrades to no adjustment instead of propagating.
func (p *Pipeline) assessFutures() futures.Assessment {
	bars, err := p.Fetcher.FetchIntradayBars(p.FuturesSymbol, "5m")
	if err != nil {
		log.Printf("[WARN] futures fetch failed, pricing without adjustment: %v", err)
		return p.Classifier.Classify(model.FuturesSnapshot{Symbol: p.FuturesSymbol})
	}
	return p.Classifier.Classify(model.SnapshotFromBars(p.FuturesSymbol, bars))
}

func (p *Pipeline) refetchAverage(code string) float64 {
	bars, err := p.Fetcher.FetchDailyBars(code, p.LookbackDays)
	if err != nil {
		log.Printf("[WARN] refetch %s for trailing average: %v", code, err)
		return 0
	}
	average, err := calculator.TrailingCloseAverage(bars, p.AverageWindow)
	if err != nil {
		log.Printf("[WARN] trailing average for %s: %v", code, err)
		return 0
	}
	return average
}
