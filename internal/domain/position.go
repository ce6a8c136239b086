package domain

import "time"

// Side is the direction of a position. Only long positions are taken.
type Side string

const (
	SideLong Side = "LONG"
)

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// Position is a held quantity of an instrument, with Amount in base units.
// Positions are owned by the ledger: created only through Open, mutated only
// through Close. EntryPrice and Amount never change after creation.
type Position struct {
	ID         string         `json:"id"`
	Symbol     string         `json:"symbol"`
	Side       Side           `json:"side"`
	EntryPrice float64        `json:"entryPrice"`
	Amount     float64        `json:"amount"`
	Status     PositionStatus `json:"status"`
	OpenedAt   time.Time      `json:"openedAt"`
	ClosedAt   *time.Time     `json:"closedAt,omitempty"`
	ExitPrice  *float64       `json:"exitPrice,omitempty"`
	ExitReason string         `json:"exitReason,omitempty"`
}

// ProfitPct returns the percent return of the position against a price.
func (p *Position) ProfitPct(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// LedgerStats summarizes closed-position performance.
type LedgerStats struct {
	TotalTrades    int     `json:"totalTrades"`
	Wins           int     `json:"wins"`
	WinRate        float64 `json:"winRate"`
	TotalReturnPct float64 `json:"totalReturnPct"`
	AvgHoldSeconds int     `json:"avgHoldSeconds"`
}
