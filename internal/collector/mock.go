package collector

import (
	"fmt"
	"time"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Daily    map[string][]model.OHLCV
	Intraday []model.OHLCV
	Errors   map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(code string, days int) ([]model.OHLCV, error) {
	if err, ok := m.Errors[code]; ok {
		return nil, err
	}
	if bars, ok := m.Daily[code]; ok {
		if len(bars) > days {
			return bars[len(bars)-days:], nil
		}
		return bars, nil
	}
	return nil, fmt.Errorf("mock: no data for %s", code)
}

func (m *MockFetcher) FetchIntradayBars(symbol, interval string) ([]model.OHLCV, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	return m.Intraday, nil
}

// MockUniverse returns a fixed ticker list.
type MockUniverse struct {
	Entries []model.UniverseEntry
	Err     error
}

func (m *MockUniverse) Name() string { return "mock-universe" }

func (m *MockUniverse) FetchUniverse() ([]model.UniverseEntry, error) {
	return m.Entries, m.Err
}

// GenerateBars produces a synthetic daily series around a base price, useful
// for mocks and tests.
func GenerateBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
