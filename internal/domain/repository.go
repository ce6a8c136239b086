package domain

import (
	"context"
	"time"
)

// PositionRepository persists positions. Invariant enforcement lives in the
// ledger, not here; implementations only store and query.
type PositionRepository interface {
	Create(ctx context.Context, pos *Position) error
	Update(ctx context.Context, pos *Position) error
	// GetOpenBySymbol returns (nil, nil) when no open position exists.
	GetOpenBySymbol(ctx context.Context, symbol string) (*Position, error)
	ListOpen(ctx context.Context) ([]*Position, error)
	CountOpen(ctx context.Context) (int, error)
	// OpenedOn reports whether any position for symbol was opened on the
	// given day (UTC), regardless of its current status.
	OpenedOn(ctx context.Context, symbol string, day time.Time) (bool, error)
	History(ctx context.Context, from time.Time) ([]*Position, error)
}

// SignalLogRepository appends signal/indicator rows and backfills future
// returns for offline analysis.
type SignalLogRepository interface {
	Append(ctx context.Context, rec *SignalRecord) error
	// PendingReturns returns rows whose 24h future close is still unknown
	// and that are younger than ReturnBackfillHorizon; older rows could
	// never resolve and would starve the batch.
	PendingReturns(ctx context.Context, limit int) ([]*SignalRecord, error)
	UpdateReturns(ctx context.Context, rec *SignalRecord) error
}

// ScanResult is the per-symbol outcome of one evaluation, kept for delivery
// to websocket clients.
type ScanResult struct {
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	SurgePct    float64   `json:"surgePct"`
	RSI         *float64  `json:"rsi,omitempty"`
	MACD        *float64  `json:"macd,omitempty"`
	MACDSignal  *float64  `json:"macdSignal,omitempty"`
	GoldenCross bool      `json:"goldenCross"`
	Signals     []Signal  `json:"signals"`
	Enter       bool      `json:"enter"`
	Timestamp   time.Time `json:"timestamp"`
}

// ScanRepository holds the latest scan snapshot.
type ScanRepository interface {
	SaveResults(results []ScanResult)
	GetResults() []ScanResult
}
