package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRSI_Bounds(t *testing.T) {
	// Pseudo-random walk, fixed so the test is reproducible.
	closes := make([]float64, 200)
	price := 100.0
	for i := range closes {
		step := math.Sin(float64(i)*1.7) * 2.3
		price += step
		closes[i] = price
	}

	rsi := CalculateRSI(closes, 14)
	require.Len(t, rsi, len(closes))
	for i := 14; i < len(rsi); i++ {
		assert.GreaterOrEqual(t, rsi[i], 0.0, "index %d", i)
		assert.LessOrEqual(t, rsi[i], 100.0, "index %d", i)
	}
}

func TestCalculateRSI_SaturatesAtHundredWithoutLosses(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := CalculateRSI(closes, 14)
	for i := 14; i < len(rsi); i++ {
		assert.InDelta(t, 100.0, rsi[i], 1e-9, "index %d", i)
	}
}

func TestCalculateRSI_AllLosses(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi := CalculateRSI(closes, 14)
	for i := 14; i < len(rsi); i++ {
		assert.InDelta(t, 0.0, rsi[i], 1e-9, "index %d", i)
	}
}

func TestCalculateRSI_InsufficientData(t *testing.T) {
	rsi := CalculateRSI([]float64{1, 2, 3}, 14)
	require.Len(t, rsi, 3)
	assert.Zero(t, rsi[2])
}

func TestCalculateRSI_BalancedGainsAndLosses(t *testing.T) {
	// Alternating +1/-1 changes give equal average gain and loss: RSI = 50.
	closes := make([]float64, 40)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	rsi := CalculateRSI(closes, 14)
	// A rolling 14-change window always holds 7 unit gains and 7 unit
	// losses, so every defined value is exactly 50.
	for i := 14; i < len(rsi); i++ {
		assert.InDelta(t, 50.0, rsi[i], 1e-9, "index %d", i)
	}
}

func TestCalculateRSI_WindowForgetsOldMoves(t *testing.T) {
	// One large early loss followed by steady gains: once the loss leaves
	// the 14-change window the RSI saturates at 100.
	closes := make([]float64, 40)
	closes[0] = 100
	closes[1] = 80
	for i := 2; i < len(closes); i++ {
		closes[i] = closes[i-1] + 1
	}

	rsi := CalculateRSI(closes, 14)
	// While the loss is inside the window the RSI stays depressed.
	assert.Less(t, rsi[14], 50.0)
	// From change index 15 on, the window holds gains only.
	for i := 16; i < len(rsi); i++ {
		assert.InDelta(t, 100.0, rsi[i], 1e-9, "index %d", i)
	}
}
