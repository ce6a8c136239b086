package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"scanner-backend/internal/domain"
	"scanner-backend/internal/infrastructure/binance"
)

// PaperExecutor simulates fills at the last known price. It always succeeds
// as long as a price is available.
type PaperExecutor struct {
	market domain.MarketDataSource
}

func NewPaperExecutor(market domain.MarketDataSource) *PaperExecutor {
	return &PaperExecutor{market: market}
}

func (e *PaperExecutor) Submit(ctx context.Context, symbol string, side domain.OrderSide, amount float64) (*domain.Fill, error) {
	price, err := e.market.FetchLastPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("paper submit %s: %w", symbol, err)
	}

	log.Info().
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("amount", amount).
		Float64("price", price).
		Msg("paper trade")

	return &domain.Fill{
		Symbol:      symbol,
		Side:        side,
		Amount:      amount,
		FilledPrice: price,
		Paper:       true,
	}, nil
}

// LiveExecutor places real market orders through the signed Binance client.
type LiveExecutor struct {
	client *binance.TradingClient
}

func NewLiveExecutor(client *binance.TradingClient) *LiveExecutor {
	return &LiveExecutor{client: client}
}

func (e *LiveExecutor) Submit(ctx context.Context, symbol string, side domain.OrderSide, amount float64) (*domain.Fill, error) {
	order, err := e.client.PlaceMarketOrder(ctx, symbol, string(side), amount)
	if err != nil {
		return nil, fmt.Errorf("live submit %s: %w", symbol, err)
	}

	log.Info().
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("amount", amount).
		Float64("price", order.AvgFillPrice).
		Int64("orderId", order.OrderID).
		Msg("live trade executed")

	return &domain.Fill{
		Symbol:      symbol,
		Side:        side,
		Amount:      order.ExecutedQty,
		FilledPrice: order.AvgFillPrice,
	}, nil
}

// compile-time checks
var (
	_ domain.TradeExecutor = (*PaperExecutor)(nil)
	_ domain.TradeExecutor = (*LiveExecutor)(nil)
)
