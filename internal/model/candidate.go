package model

// UniverseEntry is one row of the master ticker list.
type UniverseEntry struct {
	Code string
	Name string
	Tier string
}

// Candidate is one screened ticker plus the supply/demand figures entered for
// it. Margin fields are share counts; they default to zero and are overwritten
// wholesale whenever a parse or sync succeeds for the ticker.
type Candidate struct {
	Code            string
	Name            string
	RelativeVolume  float64
	LastClose       float64
	TradedValue     float64
	MarginBuyDelta  int64
	MarginSellDelta int64
	SpotDelta       int64
}

// HasMarginData reports whether any supply/demand figure has been entered for
// the candidate. A candidate without data must never be recommended for action.
func (c *Candidate) HasMarginData() bool {
	return c.MarginBuyDelta != 0 || c.MarginSellDelta != 0 || c.SpotDelta != 0
}

// MarginRecord is one row of the externally synced margin dataset.
type MarginRecord struct {
	Code            string
	MarginBuyDelta  int64
	MarginSellDelta int64
	SpotDelta       int64
}
