package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds daily price history for one ticker, ordered oldest first.
// Immutable once fetched.
type PriceSeries struct {
	Code      string
	Bars      []OHLCV
	FetchedAt time.Time
}

// FuturesSnapshot reduces a same-day intraday series for the reference future
// to the three scalars the trend classifier needs. Bars carries the number of
// intraday bars the snapshot was built from; zero means no data.
type FuturesSnapshot struct {
	Symbol string
	High   float64
	Low    float64
	Close  float64
	Bars   int
}

// SnapshotFromBars builds a FuturesSnapshot from an intraday series.
func SnapshotFromBars(symbol string, bars []OHLCV) FuturesSnapshot {
	snap := FuturesSnapshot{Symbol: symbol, Bars: len(bars)}
	if len(bars) == 0 {
		return snap
	}
	snap.High = bars[0].High
	snap.Low = bars[0].Low
	for _, b := range bars {
		if b.High > snap.High {
			snap.High = b.High
		}
		if b.Low < snap.Low {
			snap.Low = b.Low
		}
	}
	snap.Close = bars[len(bars)-1].Close
	return snap
}
