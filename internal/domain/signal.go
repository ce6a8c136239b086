package domain

import "time"

// SignalKind names a discrete technical signal.
type SignalKind string

const (
	SignalSurge             SignalKind = "SURGE"
	SignalRSIStrong         SignalKind = "RSI_STRONG"
	SignalMACDBullish       SignalKind = "MACD_BULLISH"
	SignalGoldenCross       SignalKind = "GOLDEN_CROSS"
	SignalVolumeConfirmedUp SignalKind = "VOLUME_CONFIRMED_UP"
)

// Signal is one named signal with the numeric evidence behind it
// (surge percent, RSI value, MACD-signal spread, ...).
type Signal struct {
	Kind     SignalKind `json:"kind"`
	Evidence float64    `json:"evidence"`
}

// SignalKinds flattens a signal set to its kinds, in emission order.
func SignalKinds(signals []Signal) []string {
	kinds := make([]string, len(signals))
	for i, s := range signals {
		kinds[i] = string(s.Kind)
	}
	return kinds
}

// ReturnBackfillHorizon is how long a signal row stays eligible for forward
// return backfill. The backfill window is 72 hourly bars and the row needs
// 24 bars after its own, so anything older can never resolve from recent
// bars and is left pending permanently.
const ReturnBackfillHorizon = 48 * time.Hour

// SignalRecord is one row of the append-only signal/indicator log used for
// offline analysis. Future closes and returns are backfilled once the
// corresponding bars exist.
type SignalRecord struct {
	ID         int64      `json:"id"`
	Symbol     string     `json:"symbol"`
	Timestamp  time.Time  `json:"timestamp"`
	ClosePrice float64    `json:"closePrice"`
	RSI        *float64   `json:"rsi,omitempty"`
	MACD       *float64   `json:"macd,omitempty"`
	MACDSignal *float64   `json:"macdSignal,omitempty"`
	GoldenCross *bool     `json:"goldenCross,omitempty"`
	Signals    []string   `json:"signals"`
	Entered    bool       `json:"entered"`
	Future6h   *float64   `json:"future6h,omitempty"`
	Future24h  *float64   `json:"future24h,omitempty"`
	Return6h   *float64   `json:"return6h,omitempty"`
	Return24h  *float64   `json:"return24h,omitempty"`
}
