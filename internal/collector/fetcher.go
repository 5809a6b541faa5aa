package collector

import "github.com/watarai0202-netizen/snipe-stock/internal/model"

// Fetcher defines the interface for fetching price data.
type Fetcher interface {
	// FetchDailyBars returns up to `days` daily bars for the ticker code,
	// ordered oldest first.
	FetchDailyBars(code string, days int) ([]model.OHLCV, error)
	// FetchIntradayBars returns today's intraday bars for a symbol at the
	// given interval (e.g. "5m"), ordered oldest first.
	FetchIntradayBars(symbol, interval string) ([]model.OHLCV, error)
	Name() string
}

// UniverseSource returns the master ticker list.
type UniverseSource interface {
	FetchUniverse() ([]model.UniverseEntry, error)
	Name() string
}

// FilterTier returns the entries whose market tier matches the given label.
// An empty label keeps everything.
func FilterTier(entries []model.UniverseEntry, tier string) []model.UniverseEntry {
	if tier == "" {
		return entries
	}
	filtered := make([]model.UniverseEntry, 0, len(entries))
	for _, e := range entries {
		if e.Tier == tier {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
