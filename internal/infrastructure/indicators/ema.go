package indicators

// CalculateEMA computes the Exponential Moving Average.
// The first defined value, at index period-1, is seeded with the simple
// average of the first period points; every span uses the same seeding so
// cross-overs between fast and slow EMAs are comparable. Indices before
// period-1 are undefined and left at zero.
func CalculateEMA(data []float64, period int) []float64 {
	ema := make([]float64, len(data))
	if period < 1 || len(data) < period {
		return ema
	}

	k := 2.0 / (float64(period) + 1.0)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)

	for i := period; i < len(data); i++ {
		ema[i] = (data[i] * k) + (ema[i-1] * (1 - k))
	}

	return ema
}
