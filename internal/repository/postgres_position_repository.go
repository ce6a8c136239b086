package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"scanner-backend/internal/domain"
)

const positionColumns = `id, symbol, side, entry_price, amount, status, opened_at, closed_at, exit_price, exit_reason`

// PostgresPositionRepository stores positions in Postgres.
// Open positions: status='OPEN'. History: status='CLOSED'.
type PostgresPositionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPositionRepository(pool *pgxpool.Pool) *PostgresPositionRepository {
	return &PostgresPositionRepository{pool: pool}
}

func (r *PostgresPositionRepository) Create(ctx context.Context, pos *domain.Position) error {
	if pos == nil {
		return errors.New("nil position")
	}
	_, err := r.pool.Exec(ctx, `
		insert into positions(`+positionColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		pos.ID,
		pos.Symbol,
		string(pos.Side),
		pos.EntryPrice,
		pos.Amount,
		string(pos.Status),
		pos.OpenedAt,
		nullableTime(pos.ClosedAt),
		nullableFloat(pos.ExitPrice),
		pos.ExitReason,
	)
	return err
}

func (r *PostgresPositionRepository) Update(ctx context.Context, pos *domain.Position) error {
	if pos == nil {
		return errors.New("nil position")
	}
	_, err := r.pool.Exec(ctx, `
		update positions set
			status=$2,
			closed_at=$3,
			exit_price=$4,
			exit_reason=$5
		where id=$1
	`,
		pos.ID,
		string(pos.Status),
		nullableTime(pos.ClosedAt),
		nullableFloat(pos.ExitPrice),
		pos.ExitReason,
	)
	return err
}

func (r *PostgresPositionRepository) GetOpenBySymbol(ctx context.Context, symbol string) (*domain.Position, error) {
	row := r.pool.QueryRow(ctx, `
		select `+positionColumns+`
		from positions
		where symbol=$1 and status='OPEN'
		order by opened_at desc
		limit 1
	`, symbol)

	pos, err := scanPosition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (r *PostgresPositionRepository) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	rows, err := r.pool.Query(ctx, `
		select `+positionColumns+`
		from positions
		where status='OPEN'
		order by opened_at asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPositions(rows)
}

func (r *PostgresPositionRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `select count(*) from positions where status='OPEN'`).Scan(&count)
	return count, err
}

func (r *PostgresPositionRepository) OpenedOn(ctx context.Context, symbol string, day time.Time) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		select count(*) from positions
		where symbol=$1 and (opened_at at time zone 'UTC')::date = $2::date
	`, symbol, day.UTC()).Scan(&count)
	return count > 0, err
}

func (r *PostgresPositionRepository) History(ctx context.Context, from time.Time) ([]*domain.Position, error) {
	rows, err := r.pool.Query(ctx, `
		select `+positionColumns+`
		from positions
		where status='CLOSED' and closed_at is not null and closed_at >= $1
		order by closed_at desc
	`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPositions(rows)
}

// Helpers

type scanner interface {
	Scan(dest ...any) error
}

func scanPosition(s scanner) (*domain.Position, error) {
	var pos domain.Position
	var side, status string
	var closedAt pgtype.Timestamptz
	var exitPrice pgtype.Float8

	if err := s.Scan(
		&pos.ID,
		&pos.Symbol,
		&side,
		&pos.EntryPrice,
		&pos.Amount,
		&status,
		&pos.OpenedAt,
		&closedAt,
		&exitPrice,
		&pos.ExitReason,
	); err != nil {
		return nil, err
	}

	pos.Side = domain.Side(side)
	pos.Status = domain.PositionStatus(status)
	if closedAt.Valid {
		v := closedAt.Time
		pos.ClosedAt = &v
	}
	if exitPrice.Valid {
		v := exitPrice.Float64
		pos.ExitPrice = &v
	}
	return &pos, nil
}

func collectPositions(rows pgx.Rows) ([]*domain.Position, error) {
	positions := make([]*domain.Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func nullableFloat(v *float64) any {
	if v == nil {
		return pgtype.Float8{Valid: false}
	}
	return pgtype.Float8{Valid: true, Float64: *v}
}

func nullableTime(v *time.Time) any {
	if v == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Valid: true, Time: *v}
}

func nullableBool(v *bool) any {
	if v == nil {
		return pgtype.Bool{Valid: false}
	}
	return pgtype.Bool{Valid: true, Bool: *v}
}

// compile-time check
var _ domain.PositionRepository = (*PostgresPositionRepository)(nil)
