package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModePaper, cfg.TradingMode)
	assert.Equal(t, 50.0, cfg.TradeAmountUSD)
	assert.Equal(t, 5, cfg.MaxConcurrentTrades)
	assert.Equal(t, 30, cfg.NumSymbols)
	assert.Equal(t, 1.0, cfg.SurgeThresholdPct)
	assert.Equal(t, 5.0, cfg.TrailingStopPct)
	assert.Equal(t, 10.0, cfg.ProfitTargetPct)
	assert.False(t, cfg.StopLossEnabled)
	assert.Equal(t, DayRuleAny, cfg.DayTradeRule)
	assert.Equal(t, 5*time.Minute, cfg.ScanInterval)
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("TRADING_MODE", "yolo")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRADING_MODE")
}

func TestLoad_LiveRequiresCredentials(t *testing.T) {
	t.Setenv("TRADING_MODE", "live")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BINANCE_API_KEY")
}

func TestLoad_MalformedNumber(t *testing.T) {
	t.Setenv("TRADE_AMOUNT_USD", "fifty")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRADE_AMOUNT_USD")
}

func TestLoad_IntervalAcceptsPlainSeconds(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "300")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, cfg.ScanInterval)
}

func TestLoad_InvalidDayRule(t *testing.T) {
	t.Setenv("DAY_TRADE_RULE", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAY_TRADE_RULE")
}
