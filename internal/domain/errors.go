package domain

import (
	"errors"
	"fmt"
)

// Ledger violations. The requested transition is rejected; the loop continues.
var (
	ErrAlreadyOpen        = errors.New("position already open for symbol")
	ErrCapacityExceeded   = errors.New("max concurrent positions reached")
	ErrAlreadyTradedToday = errors.New("symbol already traded today")
	ErrNoOpenPosition     = errors.New("no open position for symbol")
)

// ErrUnavailable marks a collaborator failure (market data, exchange,
// notifier). Callers skip the instrument this cycle and retry on the next.
var ErrUnavailable = errors.New("collaborator unavailable")

// DataQualityError marks malformed or insufficient market data for one
// instrument. It never produces a trade and never aborts the cycle.
type DataQualityError struct {
	Symbol string
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("bad data for %s: %s", e.Symbol, e.Reason)
}

// IsDataQuality reports whether err is a data quality error.
func IsDataQuality(err error) bool {
	var dq *DataQualityError
	return errors.As(err, &dq)
}
