package indicators

// CalculateRSI computes the Relative Strength Index from the average gain
// and average loss over a rolling window. The first defined value sits at
// index period; earlier indices are left at zero. When the average loss over
// the window is zero the RSI saturates at 100 rather than dividing by zero.
func CalculateRSI(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	if period < 1 || len(closes) < period+1 {
		return rsi
	}

	// gains[i-1] is the clipped change between closes[i-1] and closes[i].
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	sumGain := 0.0
	sumLoss := 0.0
	for i := 0; i < period; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
	}

	for i := period; i < len(closes); i++ {
		if i > period {
			// Slide the window by one change.
			sumGain += gains[i-1] - gains[i-1-period]
			sumLoss += losses[i-1] - losses[i-1-period]
		}

		avgGain := sumGain / float64(period)
		avgLoss := sumLoss / float64(period)
		if avgLoss == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain / avgLoss
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}

	return rsi
}
