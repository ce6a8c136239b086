package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the minimal tables needed by this app.
// This keeps setup simple (no external migration tool), but still gives persistence.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`create table if not exists positions (
			id text primary key,
			symbol text not null,
			side text not null default 'LONG',
			entry_price double precision not null,
			amount double precision not null,
			status text not null,
			opened_at timestamptz not null,
			closed_at timestamptz null,
			exit_price double precision null,
			exit_reason text not null default ''
		);`,
		`create index if not exists positions_status_idx on positions(status);`,
		`create index if not exists positions_symbol_opened_at_idx on positions(symbol, opened_at desc);`,
		`create index if not exists positions_closed_at_idx on positions(closed_at);`,
		`create table if not exists signal_events (
			id bigserial primary key,
			symbol text not null,
			ts timestamptz not null,
			close_price double precision not null,
			rsi double precision null,
			macd double precision null,
			macd_signal double precision null,
			golden_cross boolean null,
			signals text not null default '',
			entered boolean not null default false,
			future_6h double precision null,
			future_24h double precision null,
			return_6h double precision null,
			return_24h double precision null
		);`,
		`create index if not exists signal_events_symbol_ts_idx on signal_events(symbol, ts desc);`,
		`create index if not exists signal_events_pending_idx on signal_events(ts) where return_24h is null;`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
