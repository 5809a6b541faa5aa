package calculator

import (
	"errors"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// CalculateSMA computes the simple moving average of the given values over the
// specified period, using the most recent values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// TrailingCloseAverage returns the mean close of the last n bars, including
// the most recent bar.
func TrailingCloseAverage(bars []model.OHLCV, n int) (float64, error) {
	return CalculateSMA(extractCloses(bars), n)
}

// TrailingVolumeMean returns the mean volume of the n bars preceding the most
// recent bar, excluding the most recent bar itself.
func TrailingVolumeMean(bars []model.OHLCV, n int) (float64, error) {
	if len(bars) < n+1 {
		return 0, errors.New("not enough bars for trailing volume mean")
	}
	vols := extractVolumes(bars)
	return CalculateSMA(vols[:len(vols)-1], n)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return vols
}
