package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner-backend/internal/domain"
)

func TestPendingReturnsSkipsExpiredRows(t *testing.T) {
	log := NewInMemorySignalLog()
	ctx := context.Background()

	// Too old to ever resolve from recent bars.
	expired := &domain.SignalRecord{
		Symbol:     "OLDUSDT",
		Timestamp:  time.Now().Add(-domain.ReturnBackfillHorizon - time.Hour),
		ClosePrice: 100,
	}
	require.NoError(t, log.Append(ctx, expired))

	recent := &domain.SignalRecord{
		Symbol:     "BTCUSDT",
		Timestamp:  time.Now().Add(-25 * time.Hour),
		ClosePrice: 100,
	}
	require.NoError(t, log.Append(ctx, recent))

	pending, err := log.PendingReturns(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "BTCUSDT", pending[0].Symbol)
}

func TestPendingReturnsExpiredRowsNeverStarveBatch(t *testing.T) {
	log := NewInMemorySignalLog()
	ctx := context.Background()

	// Fill a whole batch with permanently unresolvable rows, oldest first.
	for i := 0; i < 50; i++ {
		require.NoError(t, log.Append(ctx, &domain.SignalRecord{
			Symbol:     "OLDUSDT",
			Timestamp:  time.Now().Add(-domain.ReturnBackfillHorizon - time.Duration(50-i)*time.Hour),
			ClosePrice: 100,
		}))
	}
	require.NoError(t, log.Append(ctx, &domain.SignalRecord{
		Symbol:     "BTCUSDT",
		Timestamp:  time.Now().Add(-25 * time.Hour),
		ClosePrice: 100,
	}))

	pending, err := log.PendingReturns(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "BTCUSDT", pending[0].Symbol)
}

func TestUpdateReturnsClearsPending(t *testing.T) {
	log := NewInMemorySignalLog()
	ctx := context.Background()

	rec := &domain.SignalRecord{
		Symbol:     "BTCUSDT",
		Timestamp:  time.Now().Add(-25 * time.Hour),
		ClosePrice: 100,
	}
	require.NoError(t, log.Append(ctx, rec))

	pending, err := log.PendingReturns(ctx, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	future6h, future24h := 103.0, 110.0
	return6h, return24h := 3.0, 10.0
	pending[0].Future6h = &future6h
	pending[0].Future24h = &future24h
	pending[0].Return6h = &return6h
	pending[0].Return24h = &return24h
	require.NoError(t, log.UpdateReturns(ctx, pending[0]))

	pending, err = log.PendingReturns(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, pending)

	records := log.All()
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Return24h)
	assert.Equal(t, 10.0, *records[0].Return24h)
}
