package calculator

import (
	"errors"
	"math"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// PriorHigh returns the highest high of the n bars preceding the most recent
// bar, excluding the most recent bar itself.
func PriorHigh(bars []model.OHLCV, n int) (float64, error) {
	if len(bars) < n+1 {
		return 0, errors.New("not enough bars for prior high")
	}
	high := math.Inf(-1)
	for i := len(bars) - 1 - n; i < len(bars)-1; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
	}
	return high, nil
}

// RelativeVolume returns the last bar's volume divided by the mean volume of
// the n preceding bars. Values above 1.0 indicate unusual interest.
func RelativeVolume(bars []model.OHLCV, n int) (float64, error) {
	if len(bars) == 0 {
		return 0, errors.New("no bars provided")
	}
	mean, err := TrailingVolumeMean(bars, n)
	if err != nil {
		return 0, err
	}
	if mean <= 0 {
		return 0, errors.New("zero trailing volume")
	}
	return bars[len(bars)-1].Volume / mean, nil
}
