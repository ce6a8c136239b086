package usecase

import (
	"fmt"
	"math"

	"scanner-backend/internal/domain"
)

// trailingWindow is the number of recent closes the trailing stop tracks.
const trailingWindow = 5

// ExitConfig toggles the independent exit rules. The stop loss ships
// disabled; profit target and trailing stop are on by default.
type ExitConfig struct {
	ProfitTargetPct     float64
	ProfitTargetEnabled bool

	TrailingStopPct     float64
	TrailingStopEnabled bool

	StopLossPct     float64
	StopLossEnabled bool
}

// ExitEvaluator decides whether an open position should be closed. Each rule
// is evaluated independently; any non-empty result is a close request. The
// returned reasons are human-readable and used for notification only.
type ExitEvaluator struct {
	cfg ExitConfig
}

func NewExitEvaluator(cfg ExitConfig) *ExitEvaluator {
	return &ExitEvaluator{cfg: cfg}
}

// Evaluate computes the exit reasons for pos given its recent close window
// and the current last price. An empty slice means hold.
func (e *ExitEvaluator) Evaluate(pos *domain.Position, closes []float64, lastPrice float64) []string {
	reasons := make([]string, 0, 2)
	profitPct := pos.ProfitPct(lastPrice)

	if e.cfg.StopLossEnabled && profitPct <= -e.cfg.StopLossPct {
		reasons = append(reasons, fmt.Sprintf("Stop Loss Hit (%.2f%%)", profitPct))
	}

	if e.cfg.ProfitTargetEnabled && profitPct > e.cfg.ProfitTargetPct {
		reasons = append(reasons, fmt.Sprintf("Profit Hit (%.2f%%)", profitPct))
	}

	if e.cfg.TrailingStopEnabled && len(closes) > 0 {
		// The high-water mark is recomputed from the window every cycle so
		// the stop tracks the most recent local peak without stored state.
		recentHigh := recentMax(closes, trailingWindow)
		if lastPrice < recentHigh*(1-e.cfg.TrailingStopPct/100) {
			reasons = append(reasons, "Trailing Stop Triggered")
		}
	}

	return reasons
}

func recentMax(values []float64, window int) float64 {
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	high := math.Inf(-1)
	for _, v := range values[start:] {
		if v > high {
			high = v
		}
	}
	return high
}
