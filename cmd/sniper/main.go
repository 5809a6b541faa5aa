package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/watarai0202-netizen/snipe-stock/internal/collector"
	"github.com/watarai0202-netizen/snipe-stock/internal/config"
	"github.com/watarai0202-netizen/snipe-stock/internal/futures"
	"github.com/watarai0202-netizen/snipe-stock/internal/margin"
	"github.com/watarai0202-netizen/snipe-stock/internal/notifier"
	"github.com/watarai0202-netizen/snipe-stock/internal/pipeline"
	"github.com/watarai0202-netizen/snipe-stock/internal/recorder"
	"github.com/watarai0202-netizen/snipe-stock/internal/scheduler"
	"github.com/watarai0202-netizen/snipe-stock/internal/screener"
	"github.com/watarai0202-netizen/snipe-stock/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] snipe-stock starting...")

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Data sources
	fetcher := collector.NewYahooFetcher(cfg.Proxy)
	universe := collector.NewHTTPUniverseSource(cfg.Universe.BaseURL, cfg.Universe.APIKey, cfg.Proxy)
	log.Printf("[INFO] price source: %s, universe source: %s", fetcher.Name(), universe.Name())

	// Margin dataset store
	store, err := margin.OpenStore(cfg.Database.MarginPath)
	if err != nil {
		log.Fatalf("[FATAL] open margin store: %v", err)
	}
	defer store.Close()

	// Scan recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Pipeline
	screenCfg := screener.Config{
		MinBars:        cfg.Screener.MinBars,
		VolumeWindow:   cfg.Screener.VolumeWindow,
		BreakoutWindow: cfg.Screener.BreakoutWindow,
		AverageWindow:  cfg.Screener.AverageWindow,
		RVOLMin:        cfg.Screener.RVOLMin,
		RVOLMax:        cfg.Screener.RVOLMax,
		MinTradedValue: cfg.Screener.MinTradedValue,
		TopN:           cfg.Screener.TopN,
		BatchSize:      cfg.Screener.BatchSize,
		LookbackDays:   cfg.Data.LookbackDays,
		RankBy:         cfg.Screener.RankBy,
	}
	p := &pipeline.Pipeline{
		Universe: universe,
		Fetcher:  fetcher,
		Screener: screener.New(fetcher, screenCfg),
		Classifier: &futures.Classifier{
			RecoveryFloor:    cfg.Futures.RecoveryFloor,
			StagnantCeil:     cfg.Futures.StagnantCeil,
			NormalMultiplier: cfg.Futures.NormalMultiplier,
			FlatMultiplier:   cfg.Futures.FlatMultiplier,
		},
		Parser: margin.NewParser(margin.SellDefault(cfg.Margin.SellDefault)),
		Store:  store,
		ScoreConfig: strategy.ScoreConfig{
			SellOverBuyBonus:  cfg.Margin.SellOverBuyBonus,
			SpotBuyBonus:      cfg.Margin.SpotBuyBonus,
			OverhangPenalty:   cfg.Margin.OverhangPenalty,
			OverhangThreshold: cfg.Margin.OverhangThreshold,
		},
		Tier:          cfg.Universe.Tier,
		FuturesSymbol: cfg.Data.FuturesSymbol,
		AverageWindow: cfg.Screener.AverageWindow,
		LookbackDays:  cfg.Data.LookbackDays,
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Scheduler
	sched := scheduler.NewScheduler(ctx, p, tn, rec)
	if err := sched.RegisterAll(cfg.Schedule.ScanCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Telegram polling for commands
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	log.Println("[INFO] snipe-stock is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] snipe-stock stopped")
}
