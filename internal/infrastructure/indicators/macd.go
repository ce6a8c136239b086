package indicators

// CalculateMACD computes the MACD line (fast EMA minus slow EMA) and its
// signal line (an EMA of the MACD over the region where MACD is defined).
// Both returned slices are aligned with closes; the MACD is defined from
// index slow-1, the signal line from index slow-1+signal-1. Undefined
// indices are left at zero.
func CalculateMACD(closes []float64, fast, slow, signal int) (macd, signalLine []float64) {
	macd = make([]float64, len(closes))
	signalLine = make([]float64, len(closes))
	if len(closes) < slow {
		return macd, signalLine
	}

	emaFast := CalculateEMA(closes, fast)
	emaSlow := CalculateEMA(closes, slow)

	region := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		macd[i] = emaFast[i] - emaSlow[i]
		region = append(region, macd[i])
	}

	sig := CalculateEMA(region, signal)
	for i, v := range sig {
		signalLine[slow-1+i] = v
	}
	return macd, signalLine
}
