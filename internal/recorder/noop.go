package recorder

import "github.com/watarai0202-netizen/snipe-stock/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *ScanRecord, _ []model.Recommendation) error { return nil }
func (n *NoopRecorder) Close() error                                             { return nil }
