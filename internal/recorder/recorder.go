package recorder

import (
	"github.com/watarai0202-netizen/snipe-stock/internal/futures"
	"github.com/watarai0202-netizen/snipe-stock/internal/model"
	"github.com/watarai0202-netizen/snipe-stock/internal/screener"
)

// ScanRecord summarizes one pipeline run for the history log.
type ScanRecord struct {
	Futures      futures.Assessment
	UniverseSize int
	Qualified    int
	Skips        screener.SkipReport
}

// Recorder persists scan history for later review.
type Recorder interface {
	RecordScan(scan *ScanRecord, recs []model.Recommendation) error
	Close() error
}
