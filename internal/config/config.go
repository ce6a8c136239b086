package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Trading modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Strategy names.
const (
	StrategyThreshold = "threshold"
	StrategyMomentum  = "momentum"
)

// Day-trade rule interpretations (see Ledger).
const (
	DayRuleAny      = "any"       // any position opened today blocks the symbol
	DayRuleOpenOnly = "open-only" // only a currently open position blocks
	DayRuleOff      = "off"
)

// Config holds all application settings, loaded from environment variables.
type Config struct {
	TradingMode    string
	TradeAmountUSD float64

	MaxConcurrentTrades int
	NumSymbols          int
	QuoteAsset          string
	DayTradeRule        string

	ScanInterval  time.Duration
	ScanTimeframe string
	ScanBars      int
	ExitTimeframe string
	ExitBars      int

	Strategy                 string
	SurgeThresholdPct        float64
	MinSignals               int
	MomentumMinChangePct     float64
	MomentumRequireMinChange bool

	ProfitTargetPct     float64
	ProfitTargetEnabled bool
	TrailingStopPct     float64
	TrailingStopEnabled bool
	StopLossPct         float64
	StopLossEnabled     bool

	BreadthEnabled      bool
	BreadthSymbols      []string
	HealthCheckInterval time.Duration

	DatabaseURL     string
	BinanceBaseURL  string
	BinanceAPIKey   string
	BinanceSecret   string
	TelegramToken   string
	TelegramChatID  string
	ListenAddr      string
}

// Load reads configuration from the environment. Any malformed value is a
// startup failure: the caller is expected to exit before the loop starts.
func Load() (*Config, error) {
	cfg := &Config{
		TradingMode:    strings.ToLower(getEnv("TRADING_MODE", ModePaper)),
		QuoteAsset:     getEnv("QUOTE_ASSET", "USDT"),
		DayTradeRule:   strings.ToLower(getEnv("DAY_TRADE_RULE", DayRuleAny)),
		ScanTimeframe:  getEnv("SCAN_TIMEFRAME", "1h"),
		ExitTimeframe:  getEnv("EXIT_TIMEFRAME", "1d"),
		Strategy:       strings.ToLower(getEnv("STRATEGY", StrategyMomentum)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		BinanceBaseURL: getEnv("BINANCE_BASE_URL", ""),
		BinanceAPIKey:  getEnv("BINANCE_API_KEY", ""),
		BinanceSecret:  getEnv("BINANCE_SECRET_KEY", ""),
		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: getEnv("CHAT_ID", ""),
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
	}

	var err error
	if cfg.TradeAmountUSD, err = getFloat("TRADE_AMOUNT_USD", 50); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentTrades, err = getInt("TRADE_MAX", 5); err != nil {
		return nil, err
	}
	if cfg.NumSymbols, err = getInt("NUM_SYMBOLS", 30); err != nil {
		return nil, err
	}
	if cfg.ScanInterval, err = getDuration("SCAN_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ScanBars, err = getInt("SCAN_BARS", 250); err != nil {
		return nil, err
	}
	if cfg.ExitBars, err = getInt("EXIT_BARS", 30); err != nil {
		return nil, err
	}
	if cfg.SurgeThresholdPct, err = getFloat("THRESHOLD", 1.0); err != nil {
		return nil, err
	}
	if cfg.MinSignals, err = getInt("MIN_SIGNALS", 2); err != nil {
		return nil, err
	}
	if cfg.MomentumMinChangePct, err = getFloat("MOMENTUM_MIN_CHANGE_PCT", 2.0); err != nil {
		return nil, err
	}
	if cfg.MomentumRequireMinChange, err = getBool("MOMENTUM_REQUIRE_MIN_CHANGE", true); err != nil {
		return nil, err
	}
	if cfg.ProfitTargetPct, err = getFloat("PROFIT_TARGET_PCT", 10); err != nil {
		return nil, err
	}
	if cfg.ProfitTargetEnabled, err = getBool("PROFIT_TARGET_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.TrailingStopPct, err = getFloat("TRAILING_STOP_PCT", 5); err != nil {
		return nil, err
	}
	if cfg.TrailingStopEnabled, err = getBool("TRAILING_STOP_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.StopLossPct, err = getFloat("STOP_LOSS_PCT", 5); err != nil {
		return nil, err
	}
	// The stop loss ships disabled; it is a rule you opt into.
	if cfg.StopLossEnabled, err = getBool("STOP_LOSS_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.BreadthEnabled, err = getBool("BREADTH_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.HealthCheckInterval, err = getDuration("HEALTH_CHECK_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	cfg.BreadthSymbols = splitList(getEnv("BREADTH_SYMBOLS",
		"BTCUSDT,ETHUSDT,BNBUSDT,SOLUSDT,ADAUSDT,XRPUSDT"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.TradingMode {
	case ModePaper, ModeLive:
	default:
		return fmt.Errorf("config: TRADING_MODE must be %q or %q, got %q", ModePaper, ModeLive, c.TradingMode)
	}
	if c.TradingMode == ModeLive && (c.BinanceAPIKey == "" || c.BinanceSecret == "") {
		return fmt.Errorf("config: live trading requires BINANCE_API_KEY and BINANCE_SECRET_KEY")
	}
	switch c.Strategy {
	case StrategyThreshold, StrategyMomentum:
	default:
		return fmt.Errorf("config: STRATEGY must be %q or %q, got %q", StrategyThreshold, StrategyMomentum, c.Strategy)
	}
	switch c.DayTradeRule {
	case DayRuleAny, DayRuleOpenOnly, DayRuleOff:
	default:
		return fmt.Errorf("config: DAY_TRADE_RULE must be one of any, open-only, off; got %q", c.DayTradeRule)
	}
	if c.TradeAmountUSD <= 0 {
		return fmt.Errorf("config: TRADE_AMOUNT_USD must be positive, got %v", c.TradeAmountUSD)
	}
	if c.MaxConcurrentTrades < 1 {
		return fmt.Errorf("config: TRADE_MAX must be at least 1, got %d", c.MaxConcurrentTrades)
	}
	if c.NumSymbols < 1 {
		return fmt.Errorf("config: NUM_SYMBOLS must be at least 1, got %d", c.NumSymbols)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("config: SCAN_INTERVAL must be positive, got %v", c.ScanInterval)
	}
	if c.MinSignals < 1 {
		return fmt.Errorf("config: MIN_SIGNALS must be at least 1, got %d", c.MinSignals)
	}
	for _, v := range []struct {
		name string
		pct  float64
	}{
		{"THRESHOLD", c.SurgeThresholdPct},
		{"PROFIT_TARGET_PCT", c.ProfitTargetPct},
		{"TRAILING_STOP_PCT", c.TrailingStopPct},
		{"STOP_LOSS_PCT", c.StopLossPct},
	} {
		if v.pct < 0 {
			return fmt.Errorf("config: %s must not be negative, got %v", v.name, v.pct)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid number %q", key, v)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid integer %q", key, v)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	// Accept plain seconds for compatibility with older deployments.
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("config: %s: duration must be positive, got %d", key, n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
