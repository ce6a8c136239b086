package indicators

// Standard lookbacks used by the scanner.
const (
	EMAFastPeriod    = 50
	EMASlowPeriod    = 200
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
)

// Snapshot is a derived view over a close series at its latest bar. A zero
// value with all Has* flags false means no indicator could be computed.
// Fields whose group flag is false are undefined, not zero: a signal that
// depends on them must treat the instrument as not yet eligible.
type Snapshot struct {
	EMAFast float64
	EMASlow float64
	RSI     float64

	MACD       float64
	MACDSignal float64

	// GoldenCross is a level comparison at the latest bar, not a
	// cross-event: EMAFast > EMASlow.
	GoldenCross bool

	HasTrend bool // EMAFast, EMASlow, GoldenCross defined
	HasRSI   bool
	HasMACD  bool
}

// ComputeSnapshot recomputes every indicator from the full close series.
// It is deterministic for a given input and never looks ahead.
func ComputeSnapshot(closes []float64) Snapshot {
	var snap Snapshot
	n := len(closes)
	if n == 0 {
		return snap
	}

	if n >= EMASlowPeriod {
		emaFast := CalculateEMA(closes, EMAFastPeriod)
		emaSlow := CalculateEMA(closes, EMASlowPeriod)
		snap.EMAFast = emaFast[n-1]
		snap.EMASlow = emaSlow[n-1]
		snap.GoldenCross = snap.EMAFast > snap.EMASlow
		snap.HasTrend = true
	}

	if n >= RSIPeriod+1 {
		rsi := CalculateRSI(closes, RSIPeriod)
		snap.RSI = rsi[n-1]
		snap.HasRSI = true
	}

	if n >= MACDSlowPeriod+MACDSignalPeriod-1 {
		macd, sig := CalculateMACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
		snap.MACD = macd[n-1]
		snap.MACDSignal = sig[n-1]
		snap.HasMACD = true
	}

	return snap
}
