package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/watarai0202-netizen/snipe-stock/internal/margin"
	"github.com/watarai0202-netizen/snipe-stock/internal/notifier"
	"github.com/watarai0202-netizen/snipe-stock/internal/pipeline"
	"github.com/watarai0202-netizen/snipe-stock/internal/recorder"
	"github.com/watarai0202-netizen/snipe-stock/internal/screener"
)

// Scheduler runs the pre-market scan on a cron schedule and dispatches
// Telegram commands. It owns the single session State and guarantees one
// in-flight pipeline run at a time.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Notifier *notifier.TelegramNotifier
	Recorder recorder.Recorder
	Ctx      context.Context

	mu        sync.Mutex
	state     *pipeline.State
	lastSkips screener.SkipReport
}

// NewScheduler creates a new Scheduler with an empty session.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, tn *notifier.TelegramNotifier, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Notifier: tn,
		Recorder: rec,
		Ctx:      ctx,
		state:    pipeline.NewState(),
	}
}

// RegisterAll registers the pre-market scan task.
func (s *Scheduler) RegisterAll(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the scan task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

// scanTask runs the full pipeline: screen, merge the synced margin dataset,
// price, notify and record.
func (s *Scheduler) scanTask() {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Println("[INFO] running pre-market scan")

	res, err := s.Pipeline.RunScreening(s.state)
	if err != nil {
		log.Printf("[ERROR] screening: %v", err)
		s.trySend(fmt.Sprintf("❌ スキャン失敗: %v", err))
		return
	}
	s.lastSkips = res.Skips

	matched, err := s.Pipeline.SyncMarginStore(s.state)
	if err != nil {
		log.Printf("[WARN] margin sync: %v", err)
	} else {
		log.Printf("[INFO] margin sync matched %d of %d candidates", matched, len(s.state.Candidates()))
	}

	report, err := s.Pipeline.Price(s.state)
	if err != nil {
		log.Printf("[ERROR] pricing: %v", err)
		s.trySend(fmt.Sprintf("❌ 指値算出失敗: %v", err))
		return
	}

	s.trySend(notifier.FormatScanReport(report, res.Skips))

	if err := s.Recorder.RecordScan(&recorder.ScanRecord{
		Futures:      report.Futures,
		UniverseSize: res.Universe,
		Qualified:    len(res.Candidates),
		Skips:        res.Skips,
	}, report.Recommendations); err != nil {
		log.Printf("[ERROR] record scan: %v", err)
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(text string) string {
	cmd, args := splitCommand(text)
	switch cmd {
	case "/scan", "スキャン開始":
		go s.scanTask()
		return "📡 スキャンを開始します…"
	case "/margin", "需給入力":
		return s.handleMargin(args)
	case "/sync":
		return s.handleSync()
	case "/save":
		return s.handleSave()
	case "/report", "再判定":
		return s.handleReport()
	case "/status", "状態":
		s.mu.Lock()
		defer s.mu.Unlock()
		return notifier.FormatStatus(s.state)
	default:
		return "使い方:\n" +
			"• /scan — スキャン実行\n" +
			"• /margin <コード> <貼付テキスト> — 需給入力\n" +
			"• /sync — 需給データ同期\n" +
			"• /save — 需給データ保存\n" +
			"• /report — 再判定\n" +
			"• /status — セッション状態"
	}
}

// handleMargin parses pasted broker text for one ticker and applies it to the
// session.
func (s *Scheduler) handleMargin(args string) string {
	code, text, ok := strings.Cut(strings.TrimSpace(args), " ")
	if !ok || code == "" || strings.TrimSpace(text) == "" {
		return "形式: /margin <コード> <貼付テキスト>"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	deltas, err := s.Pipeline.ApplyMarginText(s.state, code, text)
	if err != nil {
		if errors.Is(err, margin.ErrNoMatch) {
			return fmt.Sprintf("⚠️ %s: 需給データを認識できませんでした", code)
		}
		return fmt.Sprintf("⚠️ %v", err)
	}
	return notifier.FormatDeltas(code, deltas) + "\n\n/report で再判定できます"
}

func (s *Scheduler) handleSync() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched, err := s.Pipeline.SyncMarginStore(s.state)
	if err != nil {
		return fmt.Sprintf("⚠️ 同期失敗: %v", err)
	}
	return fmt.Sprintf("🔄 需給データ同期: %d件反映", matched)
}

func (s *Scheduler) handleSave() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Pipeline.SaveMargins(s.state); err != nil {
		return fmt.Sprintf("⚠️ 保存失敗: %v", err)
	}
	return "💾 需給データを保存しました"
}

func (s *Scheduler) handleReport() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, err := s.Pipeline.Price(s.state)
	if err != nil {
		return fmt.Sprintf("⚠️ 再判定失敗: %v", err)
	}
	// Skip counts belong to the screening stage; the last ones still apply
	// when only pricing is repeated.
	return notifier.FormatScanReport(report, s.lastSkips)
}

func splitCommand(text string) (cmd, args string) {
	cmd, args, _ = strings.Cut(strings.TrimSpace(text), " ")
	return cmd, args
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
