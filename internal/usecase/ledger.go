package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scanner-backend/internal/config"
	"scanner-backend/internal/domain"
)

// LedgerConfig controls the invariants the ledger enforces on open.
type LedgerConfig struct {
	MaxConcurrentTrades int
	// DayTradeRule selects how "already traded today" is interpreted:
	// config.DayRuleAny blocks a symbol that has any position opened the
	// same UTC day, config.DayRuleOpenOnly only blocks on a currently open
	// position, config.DayRuleOff disables the rule.
	DayTradeRule string
}

// PositionLedger owns all positions. Every mutating operation runs its
// check-then-act sequence under one mutex, so concurrent callers can never
// violate the single-open-position or capacity invariants. Callers must not
// perform external I/O while holding a ledger call open; the ledger itself
// only touches its repository.
type PositionLedger struct {
	mu   sync.Mutex
	repo domain.PositionRepository
	cfg  LedgerConfig

	now func() time.Time
}

// NewPositionLedger creates a ledger over the given repository.
func NewPositionLedger(repo domain.PositionRepository, cfg LedgerConfig) *PositionLedger {
	return &PositionLedger{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Open creates an OPEN position for symbol. It fails with
// domain.ErrAlreadyOpen, domain.ErrCapacityExceeded or
// domain.ErrAlreadyTradedToday when the corresponding invariant would be
// violated.
func (l *PositionLedger) Open(ctx context.Context, symbol string, amount, entryPrice float64) (*domain.Position, error) {
	if amount <= 0 || entryPrice <= 0 {
		return nil, fmt.Errorf("ledger: open %s: amount and entry price must be positive", symbol)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.repo.GetOpenBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", symbol, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrAlreadyOpen)
	}

	count, err := l.repo.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", symbol, err)
	}
	if count >= l.cfg.MaxConcurrentTrades {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrCapacityExceeded)
	}

	if l.cfg.DayTradeRule == config.DayRuleAny {
		traded, err := l.repo.OpenedOn(ctx, symbol, l.now().UTC())
		if err != nil {
			return nil, fmt.Errorf("ledger: open %s: %w", symbol, err)
		}
		if traded {
			return nil, fmt.Errorf("%s: %w", symbol, domain.ErrAlreadyTradedToday)
		}
	}

	pos := &domain.Position{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       domain.SideLong,
		EntryPrice: entryPrice,
		Amount:     amount,
		Status:     domain.StatusOpen,
		OpenedAt:   l.now(),
	}
	if err := l.repo.Create(ctx, pos); err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", symbol, err)
	}
	return pos, nil
}

// Close closes the open position for symbol, recording the exit price, close
// time and a human-readable reason. Fails with domain.ErrNoOpenPosition when
// the symbol has no open position.
func (l *PositionLedger) Close(ctx context.Context, symbol string, exitPrice float64, reason string) (*domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, err := l.repo.GetOpenBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("ledger: close %s: %w", symbol, err)
	}
	if pos == nil {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrNoOpenPosition)
	}

	now := l.now()
	pos.Status = domain.StatusClosed
	pos.ExitPrice = &exitPrice
	pos.ClosedAt = &now
	pos.ExitReason = reason

	if err := l.repo.Update(ctx, pos); err != nil {
		return nil, fmt.Errorf("ledger: close %s: %w", symbol, err)
	}
	return pos, nil
}

// ListOpen returns a snapshot of all open positions. Exit evaluation for one
// cycle works off a single snapshot so mid-cycle opens are not observed.
func (l *PositionLedger) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.ListOpen(ctx)
}

// CountOpen returns the number of open positions.
func (l *PositionLedger) CountOpen(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.CountOpen(ctx)
}

// AtCapacity reports whether the concurrency limit leaves no slot for a new
// position.
func (l *PositionLedger) AtCapacity(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	count, err := l.repo.CountOpen(ctx)
	if err != nil {
		return false, err
	}
	return count >= l.cfg.MaxConcurrentTrades, nil
}

// HasOpen reports whether symbol has an open position.
func (l *PositionLedger) HasOpen(ctx context.Context, symbol string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, err := l.repo.GetOpenBySymbol(ctx, symbol)
	if err != nil {
		return false, err
	}
	return pos != nil, nil
}

// History returns closed positions since from, newest first.
func (l *PositionLedger) History(ctx context.Context, from time.Time) ([]*domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.repo.History(ctx, from)
}

// Stats summarizes closed-position performance since from.
func (l *PositionLedger) Stats(ctx context.Context, from time.Time) (*domain.LedgerStats, error) {
	history, err := l.History(ctx, from)
	if err != nil {
		return nil, err
	}

	stats := &domain.LedgerStats{TotalTrades: len(history)}
	if len(history) == 0 {
		return stats, nil
	}

	totalHold := 0
	for _, pos := range history {
		if pos.ExitPrice != nil {
			ret := pos.ProfitPct(*pos.ExitPrice)
			stats.TotalReturnPct += ret
			if ret > 0 {
				stats.Wins++
			}
		}
		if pos.ClosedAt != nil {
			totalHold += int(pos.ClosedAt.Sub(pos.OpenedAt).Seconds())
		}
	}
	stats.WinRate = float64(stats.Wins) / float64(stats.TotalTrades) * 100
	stats.AvgHoldSeconds = totalHold / stats.TotalTrades
	return stats, nil
}
