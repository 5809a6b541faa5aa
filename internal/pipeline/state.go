package pipeline

import (
	"fmt"

	"github.com/watarai0202-netizen/snipe-stock/internal/margin"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// Stage is the position of a session in the screening pipeline.
type Stage int

const (
	StageEmpty Stage = iota
	StageScreened
	StageEnriched
	StagePriced
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageScreened:
		return "screened"
	case StageEnriched:
		return "enriched"
	case StagePriced:
		return "priced"
	default:
		return "unknown"
	}
}

// State threads the candidate set and the cached trailing averages across the
// pipeline stages. The orchestration layer owns one State per session and
// mutates it only between stage invocations; nothing here is safe for
// concurrent use.
type State struct {
	stage      Stage
	candidates []*model.Candidate
	byCode     map[string]*model.Candidate
	averages   map[string]float64
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{
		byCode:   make(map[string]*model.Candidate),
		averages: make(map[string]float64),
	}
}

// Stage returns the current pipeline stage.
func (s *State) Stage() Stage { return s.stage }

// Candidates returns the ordered candidate set.
func (s *State) Candidates() []*model.Candidate { return s.candidates }

// Candidate looks up a candidate by ticker code.
func (s *State) Candidate(code string) (*model.Candidate, bool) {
	c, ok := s.byCode[code]
	return c, ok
}

// Average returns the cached trailing close average for a ticker. The cache
// is a hint: a missing entry means the pricing stage must recompute from a
// fresh fetch.
func (s *State) Average(code string) (float64, bool) {
	avg, ok := s.averages[code]
	return avg, ok
}

// SetScreened replaces the whole candidate set and average cache with a fresh
// screening result, discarding prior enrichment. Running screening again is
// the designed way to reset a session mid-morning.
func (s *State) SetScreened(candidates []*model.Candidate, averages map[string]float64) {
	s.candidates = candidates
	s.byCode = make(map[string]*model.Candidate, len(candidates))
	for _, c := range candidates {
		s.byCode[c.Code] = c
	}
	s.averages = make(map[string]float64, len(averages))
	for code, avg := range averages {
		s.averages[code] = avg
	}
	s.stage = StageScreened
}

// ApplyDeltas overwrites one candidate's margin fields wholesale with a parse
// result. A failed lookup leaves the state untouched.
func (s *State) ApplyDeltas(code string, d margin.Deltas) error {
	if s.stage == StageEmpty {
		return fmt.Errorf("no candidate set: run screening first")
	}
	c, ok := s.byCode[code]
	if !ok {
		return fmt.Errorf("ticker %s is not in the current candidate set", code)
	}
	c.SpotDelta = d.Spot
	c.MarginBuyDelta = d.MarginBuy
	c.MarginSellDelta = d.MarginSell
	s.stage = StageEnriched
	return nil
}

// MergeMarginTable joins the external margin table onto the candidate set by
// ticker code. Matched candidates are overwritten wholesale; candidates absent
// from the table keep their previous fields. Returns the match count.
func (s *State) MergeMarginTable(records []model.MarginRecord) (int, error) {
	if s.stage == StageEmpty {
		return 0, fmt.Errorf("no candidate set: run screening first")
	}
	matched := 0
	for _, r := range records {
		c, ok := s.byCode[r.Code]
		if !ok {
			continue
		}
		c.MarginBuyDelta = r.MarginBuyDelta
		c.MarginSellDelta = r.MarginSellDelta
		c.SpotDelta = r.SpotDelta
		matched++
	}
	s.stage = StageEnriched
	return matched, nil
}

// MarginTable exports the current per-candidate margin fields as a full
// dataset payload for durable storage.
func (s *State) MarginTable() []model.MarginRecord {
	records := make([]model.MarginRecord, 0, len(s.candidates))
	for _, c := range s.candidates {
		records = append(records, model.MarginRecord{
			Code:            c.Code,
			MarginBuyDelta:  c.MarginBuyDelta,
			MarginSellDelta: c.MarginSellDelta,
			SpotDelta:       c.SpotDelta,
		})
	}
	return records
}

// MarkPriced records that the pricing stage has run. Pricing is a pure read,
// so a priced session can be enriched and priced again at will.
func (s *State) MarkPriced() error {
	if s.stage == StageEmpty {
		return fmt.Errorf("no candidate set: run screening first")
	}
	s.stage = StagePriced
	return nil
}
