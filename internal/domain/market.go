package domain

import "context"

// OrderSide is the direction of a trade submission.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// Fill is the result of a submitted order.
type Fill struct {
	Symbol      string  `json:"symbol"`
	Side        OrderSide `json:"side"`
	Amount      float64 `json:"amount"`
	FilledPrice float64 `json:"filledPrice"`
	Paper       bool    `json:"paper"`
}

// MarketDataSource provides read-only market data. Implementations may fail
// with wrapped ErrUnavailable; the orchestrator treats that as "skip this
// instrument this cycle".
type MarketDataSource interface {
	// FetchBars returns up to limit bars for symbol at the given timeframe,
	// ordered oldest to newest.
	FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]PriceBar, error)
	// FetchLastPrice returns the most recent traded price for symbol.
	FetchLastPrice(ctx context.Context, symbol string) (float64, error)
	// RankByVolume returns symbols quoted in quoteAsset ordered by 24h quote
	// volume, highest first, truncated to limit.
	RankByVolume(ctx context.Context, quoteAsset string, limit int) ([]string, error)
}

// TradeExecutor places orders against a venue. Amount is the order size in
// base units of the instrument. The paper implementation always fills at the
// last known price.
type TradeExecutor interface {
	Submit(ctx context.Context, symbol string, side OrderSide, amount float64) (*Fill, error)
}

// Notifier delivers user-visible messages. Delivery is best effort: failures
// are logged and never block or fail core logic.
type Notifier interface {
	Notify(ctx context.Context, text string) error
	NotifyImage(ctx context.Context, image []byte, caption string) error
}
