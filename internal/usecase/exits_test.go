package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scanner-backend/internal/domain"
)

func defaultExitConfig() ExitConfig {
	return ExitConfig{
		ProfitTargetPct:     10,
		ProfitTargetEnabled: true,
		TrailingStopPct:     5,
		TrailingStopEnabled: true,
		StopLossPct:         5,
		StopLossEnabled:     false,
	}
}

func TestTrailingStopTracksRecentHigh(t *testing.T) {
	eval := NewExitEvaluator(defaultExitConfig())
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	// Recent high over the window is 105, so the stop sits at 99.75.
	closes := []float64{100, 102, 101, 105, 104, 103}

	reasons := eval.Evaluate(pos, closes, 103)
	assert.Empty(t, reasons)

	reasons = eval.Evaluate(pos, closes, 99)
	assert.Equal(t, []string{"Trailing Stop Triggered"}, reasons)

	// Exactly at the stop level is not a breach.
	reasons = eval.Evaluate(pos, closes, 99.75)
	assert.Empty(t, reasons)
}

func TestTrailingStopWindowIsLastFiveCloses(t *testing.T) {
	eval := NewExitEvaluator(defaultExitConfig())
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	// The 120 peak is outside the five-close window; the effective high
	// is 105 and 100 sits above the 99.75 stop.
	closes := []float64{120, 100, 101, 102, 105, 104, 103}
	reasons := eval.Evaluate(pos, closes, 100)
	assert.Empty(t, reasons)
}

func TestProfitTarget(t *testing.T) {
	eval := NewExitEvaluator(defaultExitConfig())
	pos := &domain.Position{Symbol: "ETHUSDT", EntryPrice: 100}
	closes := []float64{100, 104, 108, 110, 111}

	reasons := eval.Evaluate(pos, closes, 111)
	assert.Contains(t, reasons, "Profit Hit (11.00%)")

	// Exactly at the target does not trigger; the rule is strictly greater.
	reasons = eval.Evaluate(pos, closes, 110)
	assert.NotContains(t, reasons, "Profit Hit (10.00%)")
}

func TestMultipleRulesCanFireTogether(t *testing.T) {
	cfg := defaultExitConfig()
	cfg.ProfitTargetPct = 2
	eval := NewExitEvaluator(cfg)
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	// Price is up 3% from entry but 10% off the recent high.
	closes := []float64{100, 110, 114, 112, 108}
	reasons := eval.Evaluate(pos, closes, 103)

	assert.Len(t, reasons, 2)
	assert.Contains(t, reasons, "Profit Hit (3.00%)")
	assert.Contains(t, reasons, "Trailing Stop Triggered")
}

func TestStopLossDisabledByDefault(t *testing.T) {
	eval := NewExitEvaluator(defaultExitConfig())
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	// Price collapsed but stays above the trailing stop window's floor.
	closes := []float64{80, 80, 80, 80, 80}
	reasons := eval.Evaluate(pos, closes, 80)
	assert.Empty(t, reasons)
}

func TestStopLossWhenEnabled(t *testing.T) {
	cfg := defaultExitConfig()
	cfg.StopLossEnabled = true
	cfg.TrailingStopEnabled = false
	eval := NewExitEvaluator(cfg)
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	reasons := eval.Evaluate(pos, nil, 94)
	assert.Equal(t, []string{"Stop Loss Hit (-6.00%)"}, reasons)

	reasons = eval.Evaluate(pos, nil, 96)
	assert.Empty(t, reasons)
}

func TestDisabledRulesNeverFire(t *testing.T) {
	eval := NewExitEvaluator(ExitConfig{})
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	closes := []float64{200, 200, 200, 200, 200}
	reasons := eval.Evaluate(pos, closes, 50)
	assert.Empty(t, reasons)
}

func TestEvaluateWithEmptyCloseWindow(t *testing.T) {
	eval := NewExitEvaluator(defaultExitConfig())
	pos := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100}

	// No close history yet: the trailing stop has nothing to track and
	// must not fire.
	reasons := eval.Evaluate(pos, nil, 95)
	assert.Empty(t, reasons)
}
