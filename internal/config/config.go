package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Universe struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Tier    string `yaml:"tier"`
	} `yaml:"universe"`
	Data struct {
		FuturesSymbol string `yaml:"futures_symbol"`
		LookbackDays  int    `yaml:"lookback_days"`
	} `yaml:"data"`
	Screener struct {
		MinBars        int     `yaml:"min_bars"`
		VolumeWindow   int     `yaml:"volume_window"`
		BreakoutWindow int     `yaml:"breakout_window"`
		AverageWindow  int     `yaml:"average_window"`
		RVOLMin        float64 `yaml:"rvol_min"`
		RVOLMax        float64 `yaml:"rvol_max"`
		MinTradedValue float64 `yaml:"min_traded_value"`
		TopN           int     `yaml:"top_n"`
		BatchSize      int     `yaml:"batch_size"`
		RankBy         string  `yaml:"rank_by"`
	} `yaml:"screener"`
	Futures struct {
		RecoveryFloor    float64 `yaml:"recovery_floor"`
		StagnantCeil     float64 `yaml:"stagnant_ceil"`
		NormalMultiplier float64 `yaml:"normal_multiplier"`
		FlatMultiplier   float64 `yaml:"flat_multiplier"`
	} `yaml:"futures"`
	Margin struct {
		SellDefault       string `yaml:"sell_default"` // increase or decrease
		SellOverBuyBonus  int    `yaml:"sell_over_buy_bonus"`
		SpotBuyBonus      int    `yaml:"spot_buy_bonus"`
		OverhangPenalty   int    `yaml:"overhang_penalty"`
		OverhangThreshold int64  `yaml:"overhang_threshold"`
	} `yaml:"margin"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		MarginPath string `yaml:"margin_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("UNIVERSE_BASE_URL"); v != "" {
		cfg.Universe.BaseURL = v
	}
	if v := os.Getenv("UNIVERSE_API_KEY"); v != "" {
		cfg.Universe.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("MARGIN_DB_PATH"); v != "" {
		cfg.Database.MarginPath = v
	}

	// Defaults
	if cfg.Data.FuturesSymbol == "" {
		cfg.Data.FuturesSymbol = "N225F"
	}
	if cfg.Data.LookbackDays == 0 {
		cfg.Data.LookbackDays = 30
	}
	if cfg.Screener.MinBars == 0 {
		cfg.Screener.MinBars = 15
	}
	if cfg.Screener.VolumeWindow == 0 {
		cfg.Screener.VolumeWindow = 5
	}
	if cfg.Screener.BreakoutWindow == 0 {
		cfg.Screener.BreakoutWindow = 10
	}
	if cfg.Screener.AverageWindow == 0 {
		cfg.Screener.AverageWindow = 5
	}
	if cfg.Screener.RVOLMin == 0 {
		cfg.Screener.RVOLMin = 1.15
	}
	if cfg.Screener.RVOLMax == 0 {
		cfg.Screener.RVOLMax = 1.6
	}
	if cfg.Screener.TopN == 0 {
		cfg.Screener.TopN = 15
	}
	if cfg.Screener.BatchSize == 0 {
		cfg.Screener.BatchSize = 50
	}
	if cfg.Screener.RankBy == "" {
		cfg.Screener.RankBy = "rvol"
	}
	if cfg.Futures.RecoveryFloor == 0 {
		cfg.Futures.RecoveryFloor = 0.6
	}
	if cfg.Futures.StagnantCeil == 0 {
		cfg.Futures.StagnantCeil = 0.3
	}
	if cfg.Futures.NormalMultiplier == 0 {
		cfg.Futures.NormalMultiplier = 0.995
	}
	if cfg.Futures.FlatMultiplier == 0 {
		cfg.Futures.FlatMultiplier = 0.985
	}
	if cfg.Margin.SellDefault == "" {
		cfg.Margin.SellDefault = "increase"
	}
	if cfg.Margin.SellOverBuyBonus == 0 {
		cfg.Margin.SellOverBuyBonus = 15
	}
	if cfg.Margin.SpotBuyBonus == 0 {
		cfg.Margin.SpotBuyBonus = 5
	}
	if cfg.Margin.OverhangPenalty == 0 {
		cfg.Margin.OverhangPenalty = 15
	}
	if cfg.Margin.OverhangThreshold == 0 {
		cfg.Margin.OverhangThreshold = 50000
	}
	if cfg.Schedule.ScanCron == "" {
		// 08:30 JST on weekdays, before the Tokyo open.
		cfg.Schedule.ScanCron = "0 30 8 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/snipe_stock.db"
	}
	if cfg.Database.MarginPath == "" {
		cfg.Database.MarginPath = "data/margin.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set. A partially configured
// pipeline must not run.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.Universe.BaseURL == "" {
		return fmt.Errorf("universe.base_url is required")
	}
	if c.Margin.SellDefault != "increase" && c.Margin.SellDefault != "decrease" {
		return fmt.Errorf("margin.sell_default must be \"increase\" or \"decrease\"")
	}
	if c.Futures.FlatMultiplier > c.Futures.NormalMultiplier || c.Futures.NormalMultiplier >= 1.0 {
		return fmt.Errorf("futures multipliers must satisfy flat <= normal < 1.0")
	}
	if c.Screener.RVOLMin >= c.Screener.RVOLMax {
		return fmt.Errorf("screener.rvol_min must be below screener.rvol_max")
	}
	return nil
}
