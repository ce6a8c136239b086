package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner-backend/internal/domain"
)

func barSeries(t *testing.T, opens, closes, volumes []float64) []domain.PriceBar {
	t.Helper()
	require.Equal(t, len(opens), len(closes))
	require.Equal(t, len(opens), len(volumes))

	base := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.PriceBar, len(opens))
	for i := range opens {
		bars[i] = domain.PriceBar{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      opens[i],
			High:      closes[i] + 1,
			Low:       opens[i] - 1,
			Close:     closes[i],
			Volume:    volumes[i],
		}
	}
	return bars
}

// uptrendBars builds a long rising series so trend and oscillator lookbacks
// are all satisfied, with the final bar moving by lastSurgePct.
func uptrendBars(t *testing.T, n int, lastSurgePct float64) []domain.PriceBar {
	t.Helper()
	opens := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		opens[i] = price
		price *= 1.004
		closes[i] = price
		volumes[i] = 1000
	}
	closes[n-1] = opens[n-1] * (1 + lastSurgePct/100)
	return barSeries(t, opens, closes, volumes)
}

func TestThresholdStrategyEntersOnSurgeWithConfirmation(t *testing.T) {
	s := &ThresholdStrategy{SurgeThresholdPct: 1.0, MinSignals: 2}

	// Long uptrend: golden cross and strong RSI are both present, and the
	// last bar surges 2%.
	bars := uptrendBars(t, 250, 2.0)
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)

	assert.True(t, eval.Enter)
	assert.InDelta(t, 2.0, eval.SurgePct, 1e-9)

	kinds := make([]domain.SignalKind, 0, len(eval.Signals))
	for _, sig := range eval.Signals {
		kinds = append(kinds, sig.Kind)
	}
	assert.Contains(t, kinds, domain.SignalSurge)
	assert.Contains(t, kinds, domain.SignalGoldenCross)
}

func TestThresholdStrategyNoEntryBelowThreshold(t *testing.T) {
	s := &ThresholdStrategy{SurgeThresholdPct: 1.0, MinSignals: 2}

	// Flat last bar in an otherwise bullish series: signals exist but the
	// surge gate fails.
	bars := uptrendBars(t, 250, 0.2)
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)

	assert.False(t, eval.Enter)
	assert.NotEmpty(t, eval.Signals)
}

func TestThresholdStrategySurgeAloneInsufficient(t *testing.T) {
	s := &ThresholdStrategy{SurgeThresholdPct: 1.0, MinSignals: 2}

	// Short history: only the surge signal is available, one short of the
	// minimum.
	bars := barSeries(t,
		[]float64{100, 100, 100},
		[]float64{100, 100, 103},
		[]float64{1000, 1000, 1000},
	)
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)

	assert.False(t, eval.Enter)
	require.Len(t, eval.Signals, 1)
	assert.Equal(t, domain.SignalSurge, eval.Signals[0].Kind)
}

func TestThresholdStrategyMinSignalsOne(t *testing.T) {
	s := &ThresholdStrategy{SurgeThresholdPct: 1.0, MinSignals: 1}

	bars := barSeries(t,
		[]float64{100, 100, 100},
		[]float64{100, 100, 103},
		[]float64{1000, 1000, 1000},
	)
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)
	assert.True(t, eval.Enter)
}

func TestThresholdStrategyZeroOpenIsDataQuality(t *testing.T) {
	s := &ThresholdStrategy{SurgeThresholdPct: 1.0, MinSignals: 2}

	bars := barSeries(t, []float64{0}, []float64{100}, []float64{1000})
	_, err := s.Evaluate("BADUSDT", bars)
	require.Error(t, err)
	assert.True(t, domain.IsDataQuality(err))
}

func TestThresholdStrategyEmptyWindow(t *testing.T) {
	s := &ThresholdStrategy{SurgeThresholdPct: 1.0, MinSignals: 2}

	eval, err := s.Evaluate("BTCUSDT", nil)
	require.NoError(t, err)
	assert.False(t, eval.Enter)
	assert.Empty(t, eval.Signals)
}

func TestMomentumStrategyConfirmedMove(t *testing.T) {
	s := &MomentumStrategy{MinPriceChangePct: 2.0, RequireMinChange: true}

	// Two consecutive up bars, two consecutive volume increases, final
	// change 3%.
	bars := barSeries(t,
		[]float64{100, 100, 101},
		[]float64{100, 101, 104.03},
		[]float64{1000, 1100, 1250},
	)
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)

	assert.True(t, eval.Enter)
	require.Len(t, eval.Signals, 1)
	assert.Equal(t, domain.SignalVolumeConfirmedUp, eval.Signals[0].Kind)
}

func TestMomentumStrategyBrokenVolumeIncrease(t *testing.T) {
	s := &MomentumStrategy{MinPriceChangePct: 2.0, RequireMinChange: true}

	// Prices rise twice but the earlier volume step is down.
	bars := barSeries(t,
		[]float64{100, 100, 101},
		[]float64{100, 101, 104.03},
		[]float64{1200, 1100, 1250},
	)
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)

	assert.False(t, eval.Enter)
	assert.Empty(t, eval.Signals)
}

func TestMomentumStrategyMinChangeGate(t *testing.T) {
	bars := barSeries(t,
		[]float64{100, 100, 101},
		[]float64{100, 101, 102},
		[]float64{1000, 1100, 1250},
	)

	strict := &MomentumStrategy{MinPriceChangePct: 2.0, RequireMinChange: true}
	eval, err := strict.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)
	// Pattern confirmed but the ~0.99% change misses the 2% gate.
	assert.False(t, eval.Enter)
	assert.NotEmpty(t, eval.Signals)

	loose := &MomentumStrategy{RequireMinChange: false}
	eval, err = loose.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)
	assert.True(t, eval.Enter)
}

func TestMomentumStrategyZeroVolumeIsDataQuality(t *testing.T) {
	s := &MomentumStrategy{}

	bars := barSeries(t,
		[]float64{100, 100, 101},
		[]float64{100, 101, 104},
		[]float64{0, 1100, 1250},
	)
	_, err := s.Evaluate("BADUSDT", bars)
	require.Error(t, err)
	assert.True(t, domain.IsDataQuality(err))
}

func TestMomentumStrategyInsufficientHistory(t *testing.T) {
	s := &MomentumStrategy{}

	bars := barSeries(t, []float64{100, 100}, []float64{101, 102}, []float64{1000, 1100})
	eval, err := s.Evaluate("BTCUSDT", bars)
	require.NoError(t, err)
	assert.False(t, eval.Enter)
}
