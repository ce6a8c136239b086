package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"scanner-backend/internal/domain"
	"scanner-backend/internal/infrastructure/indicators"
)

const (
	breadthEMAFast    = 20
	breadthEMASlow    = 50
	breadthRSICeiling = 70
	// breadthBullishPct is the share of majors that must look healthy for
	// the market to count as bullish overall.
	breadthBullishPct = 70.0
	breadthBars       = 100
)

// DefaultBreadthSymbols are the majors sampled for the market gauge.
var DefaultBreadthSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT",
	"ADAUSDT", "DOGEUSDT", "AVAXUSDT", "DOTUSDT", "LINKUSDT",
}

// Breadth is one reading of the market gauge.
type Breadth struct {
	Bullish      bool     `json:"bullish"`
	HealthyPct   float64  `json:"healthy_pct"`
	Healthy      []string `json:"healthy"`
	Unhealthy    []string `json:"unhealthy"`
	SampledCount int      `json:"sampled_count"`
}

// Summary renders the reading for chat delivery.
func (b *Breadth) Summary() string {
	state := "BEARISH 🐻"
	if b.Bullish {
		state = "BULLISH 🐂"
	}
	return fmt.Sprintf("Market breadth: %s (%.0f%% of %d majors healthy)\nHealthy: %s",
		state, b.HealthyPct, b.SampledCount, strings.Join(b.Healthy, ", "))
}

// BreadthGauge samples major instruments to decide whether the broad market
// supports opening new positions. A major is healthy when its short trend is
// above its long trend and momentum is not overheated.
type BreadthGauge struct {
	source    domain.MarketDataSource
	symbols   []string
	timeframe string
	log       zerolog.Logger
}

func NewBreadthGauge(source domain.MarketDataSource, symbols []string, timeframe string, log zerolog.Logger) *BreadthGauge {
	if len(symbols) == 0 {
		symbols = DefaultBreadthSymbols
	}
	if timeframe == "" {
		timeframe = "1h"
	}
	return &BreadthGauge{
		source:    source,
		symbols:   symbols,
		timeframe: timeframe,
		log:       log.With().Str("component", "breadth").Logger(),
	}
}

// Measure samples every configured major. Majors whose data cannot be
// fetched are excluded from the ratio rather than counted unhealthy.
func (g *BreadthGauge) Measure(ctx context.Context) (*Breadth, error) {
	reading := &Breadth{}

	for _, symbol := range g.symbols {
		bars, err := g.source.FetchBars(ctx, symbol, g.timeframe, breadthBars)
		if err != nil {
			g.log.Warn().Err(err).Str("symbol", symbol).Msg("breadth sample failed")
			continue
		}

		healthy, ok := g.isHealthy(bars)
		if !ok {
			continue
		}
		reading.SampledCount++
		if healthy {
			reading.Healthy = append(reading.Healthy, symbol)
		} else {
			reading.Unhealthy = append(reading.Unhealthy, symbol)
		}
	}

	if reading.SampledCount == 0 {
		return nil, fmt.Errorf("breadth: no majors sampled: %w", domain.ErrUnavailable)
	}

	reading.HealthyPct = float64(len(reading.Healthy)) / float64(reading.SampledCount) * 100
	reading.Bullish = reading.HealthyPct >= breadthBullishPct
	return reading, nil
}

func (g *BreadthGauge) isHealthy(bars []domain.PriceBar) (healthy, ok bool) {
	closes := domain.Closes(bars)
	if len(closes) < breadthEMASlow {
		return false, false
	}

	emaFast := indicators.CalculateEMA(closes, breadthEMAFast)
	emaSlow := indicators.CalculateEMA(closes, breadthEMASlow)
	rsi := indicators.CalculateRSI(closes, indicators.RSIPeriod)
	if len(rsi) == 0 {
		return false, false
	}

	last := len(closes) - 1
	trendUp := emaFast[last] > emaSlow[last]
	notOverheated := rsi[len(rsi)-1] < breadthRSICeiling
	return trendUp && notOverheated, true
}
