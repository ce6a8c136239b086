package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"scanner-backend/internal/domain"
)

// PostgresSignalLog appends signal/indicator rows for offline analysis and
// backfills future returns once the bars exist.
type PostgresSignalLog struct {
	pool *pgxpool.Pool
}

func NewPostgresSignalLog(pool *pgxpool.Pool) *PostgresSignalLog {
	return &PostgresSignalLog{pool: pool}
}

func (r *PostgresSignalLog) Append(ctx context.Context, rec *domain.SignalRecord) error {
	_, err := r.pool.Exec(ctx, `
		insert into signal_events(
			symbol, ts, close_price, rsi, macd, macd_signal, golden_cross,
			signals, entered
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rec.Symbol,
		rec.Timestamp,
		rec.ClosePrice,
		nullableFloat(rec.RSI),
		nullableFloat(rec.MACD),
		nullableFloat(rec.MACDSignal),
		nullableBool(rec.GoldenCross),
		strings.Join(rec.Signals, ", "),
		rec.Entered,
	)
	return err
}

func (r *PostgresSignalLog) PendingReturns(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	rows, err := r.pool.Query(ctx, `
		select id, symbol, ts, close_price
		from signal_events
		where return_24h is null and ts > $2
		order by ts asc
		limit $1
	`, limit, time.Now().Add(-domain.ReturnBackfillHorizon))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.SignalRecord, 0)
	for rows.Next() {
		var rec domain.SignalRecord
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Timestamp, &rec.ClosePrice); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *PostgresSignalLog) UpdateReturns(ctx context.Context, rec *domain.SignalRecord) error {
	_, err := r.pool.Exec(ctx, `
		update signal_events
		set future_6h=$2, future_24h=$3, return_6h=$4, return_24h=$5
		where id=$1
	`,
		rec.ID,
		nullableFloat(rec.Future6h),
		nullableFloat(rec.Future24h),
		nullableFloat(rec.Return6h),
		nullableFloat(rec.Return24h),
	)
	return err
}

// compile-time check
var _ domain.SignalLogRepository = (*PostgresSignalLog)(nil)

// InMemorySignalLog keeps signal rows in memory for paper runs without a
// database and for tests.
type InMemorySignalLog struct {
	mu      sync.RWMutex
	nextID  int64
	records []*domain.SignalRecord
}

func NewInMemorySignalLog() *InMemorySignalLog {
	return &InMemorySignalLog{nextID: 1}
}

func (r *InMemorySignalLog) Append(_ context.Context, rec *domain.SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *rec
	stored.ID = r.nextID
	r.nextID++
	r.records = append(r.records, &stored)
	return nil
}

func (r *InMemorySignalLog) PendingReturns(_ context.Context, limit int) ([]*domain.SignalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-domain.ReturnBackfillHorizon)
	pending := make([]*domain.SignalRecord, 0)
	for _, rec := range r.records {
		if rec.Return24h == nil && rec.Timestamp.After(cutoff) {
			c := *rec
			pending = append(pending, &c)
			if len(pending) == limit {
				break
			}
		}
	}
	return pending, nil
}

func (r *InMemorySignalLog) UpdateReturns(_ context.Context, rec *domain.SignalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.records {
		if stored.ID == rec.ID {
			stored.Future6h = rec.Future6h
			stored.Future24h = rec.Future24h
			stored.Return6h = rec.Return6h
			stored.Return24h = rec.Return24h
			return nil
		}
	}
	return nil
}

// All returns every stored record, oldest first.
func (r *InMemorySignalLog) All() []*domain.SignalRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.SignalRecord, len(r.records))
	for i, rec := range r.records {
		c := *rec
		out[i] = &c
	}
	return out
}

// compile-time check
var _ domain.SignalLogRepository = (*InMemorySignalLog)(nil)
