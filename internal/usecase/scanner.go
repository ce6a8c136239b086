package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scanner-backend/internal/domain"
	"scanner-backend/internal/metrics"
)

// scanConcurrency bounds parallel symbol evaluation so one cycle stays
// inside the exchange request weight.
const scanConcurrency = 10

// backfillBatchSize limits how many pending signal rows one cycle resolves.
const backfillBatchSize = 50

// ScannerConfig is the per-cycle tuning for the scan loop.
type ScannerConfig struct {
	NumSymbols     int
	QuoteAsset     string
	TradeAmountUSD float64

	ScanInterval  time.Duration
	ScanTimeframe string
	ScanBars      int

	ExitTimeframe string
	ExitBars      int

	BreadthEnabled      bool
	HealthCheckInterval time.Duration
}

// Scanner drives the trade cycle: rank candidates, evaluate entries in
// parallel, evaluate exits against a snapshot of positions taken before any
// entry, then sleep. The ledger, not the scanner, owns position invariants.
type Scanner struct {
	source    domain.MarketDataSource
	strategy  Strategy
	ledger    *PositionLedger
	exits     *ExitEvaluator
	executor  domain.TradeExecutor
	alerts    *AlertService
	signalLog domain.SignalLogRepository
	scanRepo  domain.ScanRepository
	breadth   *BreadthGauge
	metrics   *metrics.Metrics
	cfg       ScannerConfig
	log       zerolog.Logger

	startedAt time.Time
	cycles    int64
	mu        sync.Mutex
}

type ScannerDeps struct {
	Source    domain.MarketDataSource
	Strategy  Strategy
	Ledger    *PositionLedger
	Exits     *ExitEvaluator
	Executor  domain.TradeExecutor
	Alerts    *AlertService
	SignalLog domain.SignalLogRepository
	ScanRepo  domain.ScanRepository
	Breadth   *BreadthGauge
	Metrics   *metrics.Metrics
}

func NewScanner(deps ScannerDeps, cfg ScannerConfig, log zerolog.Logger) *Scanner {
	return &Scanner{
		source:    deps.Source,
		strategy:  deps.Strategy,
		ledger:    deps.Ledger,
		exits:     deps.Exits,
		executor:  deps.Executor,
		alerts:    deps.Alerts,
		signalLog: deps.SignalLog,
		scanRepo:  deps.ScanRepo,
		breadth:   deps.Breadth,
		metrics:   deps.Metrics,
		cfg:       cfg,
		log:       log.With().Str("component", "scanner").Logger(),
	}
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately.
func (s *Scanner) Run(ctx context.Context) error {
	s.startedAt = time.Now()
	s.log.Info().
		Str("strategy", s.strategy.Name()).
		Dur("interval", s.cfg.ScanInterval).
		Int("symbols", s.cfg.NumSymbols).
		Msg("scan loop starting")

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	healthInterval := s.cfg.HealthCheckInterval
	if healthInterval <= 0 {
		healthInterval = time.Hour
	}
	health := time.NewTicker(healthInterval)
	defer health.Stop()

	s.Cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scan loop stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Cycle(ctx)
		case <-health.C:
			s.healthCheck(ctx)
		}
	}
}

// Cycle runs one full pass. Errors inside a cycle are logged and absorbed;
// the loop must survive exchange outages.
func (s *Scanner) Cycle(ctx context.Context) {
	start := time.Now()

	// Positions opened during this cycle must not be exit-evaluated until
	// the next one, so the exit set is fixed before any entry runs.
	openBefore, err := s.ledger.ListOpen(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing open positions failed, skipping cycle")
		return
	}

	symbols, err := s.source.RankByVolume(ctx, s.cfg.QuoteAsset, s.cfg.NumSymbols)
	if err != nil {
		s.log.Warn().Err(err).Msg("candidate ranking unavailable, skipping entries")
		s.metrics.SymbolsSkipped.WithLabelValues("unavailable").Add(float64(s.cfg.NumSymbols))
	} else {
		s.evaluateEntries(ctx, symbols)
	}

	s.evaluateExits(ctx, openBefore)
	s.backfillReturns(ctx)

	if count, err := s.ledger.CountOpen(ctx); err == nil {
		s.metrics.OpenPositions.Set(float64(count))
	}

	s.mu.Lock()
	s.cycles++
	cycles := s.cycles
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.metrics.ScanCycles.Inc()
	s.metrics.ScanCycleDuration.Observe(elapsed.Seconds())
	s.log.Info().Int64("cycle", cycles).Dur("elapsed", elapsed).Msg("cycle complete")
}

type entryCandidate struct {
	symbol string
	eval   *Evaluation
	rank   int
}

func (s *Scanner) evaluateEntries(ctx context.Context, symbols []string) {
	// With every slot taken, no entry could be recorded anyway; skip the
	// whole evaluation phase instead of burning request weight.
	atCap, err := s.ledger.AtCapacity(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("capacity check failed, skipping entries")
		return
	}
	if atCap {
		s.log.Info().Msg("all position slots taken, entries skipped")
		s.metrics.SymbolsSkipped.WithLabelValues("capacity").Add(float64(len(symbols)))
		return
	}

	if s.cfg.BreadthEnabled && s.breadth != nil {
		reading, err := s.breadth.Measure(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("breadth unavailable, proceeding without gate")
		} else if !reading.Bullish {
			s.log.Info().Float64("healthy_pct", reading.HealthyPct).Msg("market bearish, entries paused")
			s.saveScanResults(nil)
			return
		}
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		candidates []entryCandidate
		results    []domain.ScanResult
	)
	sem := make(chan struct{}, scanConcurrency)

	for rank, symbol := range symbols {
		wg.Add(1)
		go func(rank int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			eval, err := s.evaluateSymbol(ctx, symbol)
			if err != nil {
				reason := "unavailable"
				if domain.IsDataQuality(err) {
					reason = "data_quality"
				}
				s.metrics.SymbolsSkipped.WithLabelValues(reason).Inc()
				s.log.Debug().Err(err).Str("symbol", symbol).Msg("symbol skipped")
				return
			}

			mu.Lock()
			defer mu.Unlock()
			results = append(results, toScanResult(symbol, eval))
			if eval.Enter {
				candidates = append(candidates, entryCandidate{symbol: symbol, eval: eval, rank: rank})
			}
		}(rank, symbol)
	}
	wg.Wait()

	s.saveScanResults(results)

	// Entries run serialized in volume-rank order so capacity goes to the
	// most liquid candidates.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].rank < candidates[j].rank })
	for _, cand := range candidates {
		s.tryEnter(ctx, cand.symbol, cand.eval)
	}
}

// evaluateSymbol fetches one bar window, runs the strategy and records the
// signal event.
func (s *Scanner) evaluateSymbol(ctx context.Context, symbol string) (*Evaluation, error) {
	fetchStart := time.Now()
	bars, err := s.source.FetchBars(ctx, symbol, s.cfg.ScanTimeframe, s.cfg.ScanBars)
	s.metrics.OperationDuration.WithLabelValues("fetch_bars").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, err
	}

	eval, err := s.strategy.Evaluate(symbol, bars)
	if err != nil {
		return nil, err
	}

	for _, sig := range eval.Signals {
		s.metrics.SignalsEmitted.WithLabelValues(string(sig.Kind)).Inc()
	}

	if len(eval.Signals) > 0 {
		s.appendSignalRecord(ctx, symbol, bars[len(bars)-1].Timestamp, eval)
	}
	return eval, nil
}

func (s *Scanner) appendSignalRecord(ctx context.Context, symbol string, ts time.Time, eval *Evaluation) {
	rec := &domain.SignalRecord{
		Symbol:     symbol,
		Timestamp:  ts,
		ClosePrice: eval.LastClose,
		Signals:    domain.SignalKinds(eval.Signals),
		Entered:    eval.Enter,
	}
	if eval.Snapshot.HasRSI {
		rsi := eval.Snapshot.RSI
		rec.RSI = &rsi
	}
	if eval.Snapshot.HasMACD {
		macd, sig := eval.Snapshot.MACD, eval.Snapshot.MACDSignal
		rec.MACD = &macd
		rec.MACDSignal = &sig
	}
	if eval.Snapshot.HasTrend {
		gc := eval.Snapshot.GoldenCross
		rec.GoldenCross = &gc
	}

	if err := s.signalLog.Append(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("signal log append failed")
	}
}

// tryEnter opens a position for a confirmed candidate. Capacity and the
// per-symbol check run BEFORE the order goes out, so no money moves for an
// entry the ledger would refuse; the ledger still re-checks every invariant
// under its own lock when the fill is recorded.
func (s *Scanner) tryEnter(ctx context.Context, symbol string, eval *Evaluation) {
	atCap, err := s.ledger.AtCapacity(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("capacity check failed")
		return
	}
	if atCap {
		s.metrics.SymbolsSkipped.WithLabelValues("capacity").Inc()
		return
	}
	hasOpen, err := s.ledger.HasOpen(ctx, symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("open position check failed")
		return
	}
	if hasOpen {
		s.metrics.SymbolsSkipped.WithLabelValues("already_open").Inc()
		return
	}

	// Orders are sized in base units from the configured quote notional.
	price, err := s.source.FetchLastPrice(ctx, symbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("price fetch failed, entry skipped")
		return
	}
	if price <= 0 {
		s.metrics.SymbolsSkipped.WithLabelValues("data_quality").Inc()
		return
	}
	quantity := s.cfg.TradeAmountUSD / price

	submitStart := time.Now()
	fill, err := s.executor.Submit(ctx, symbol, domain.OrderBuy, quantity)
	s.metrics.OperationDuration.WithLabelValues("submit_order").Observe(time.Since(submitStart).Seconds())
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("buy order failed")
		return
	}

	pos, err := s.ledger.Open(ctx, symbol, fill.Amount, fill.FilledPrice)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyOpen):
			s.metrics.SymbolsSkipped.WithLabelValues("already_open").Inc()
		case errors.Is(err, domain.ErrCapacityExceeded):
			s.metrics.SymbolsSkipped.WithLabelValues("capacity").Inc()
		case errors.Is(err, domain.ErrAlreadyTradedToday):
			s.metrics.SymbolsSkipped.WithLabelValues("already_traded").Inc()
		}
		s.log.Warn().Err(err).Str("symbol", symbol).Bool("paper", fill.Paper).
			Msg("fill not recorded, entry rejected by ledger")
		return
	}

	s.metrics.TradesExecuted.WithLabelValues(string(domain.OrderBuy)).Inc()
	s.log.Info().
		Str("symbol", symbol).
		Float64("price", pos.EntryPrice).
		Float64("surge_pct", eval.SurgePct).
		Int("signals", len(eval.Signals)).
		Msg("position opened")
	s.alerts.PositionOpened(ctx, pos, eval.Signals, eval.SurgePct)
}

func (s *Scanner) evaluateExits(ctx context.Context, positions []*domain.Position) {
	for _, pos := range positions {
		if err := s.evaluateExit(ctx, pos); err != nil {
			s.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("exit evaluation skipped")
		}
	}
}

func (s *Scanner) evaluateExit(ctx context.Context, pos *domain.Position) error {
	bars, err := s.source.FetchBars(ctx, pos.Symbol, s.cfg.ExitTimeframe, s.cfg.ExitBars)
	if err != nil {
		return fmt.Errorf("fetch bars: %w", err)
	}
	lastPrice, err := s.source.FetchLastPrice(ctx, pos.Symbol)
	if err != nil {
		return fmt.Errorf("fetch price: %w", err)
	}

	reasons := s.exits.Evaluate(pos, domain.Closes(bars), lastPrice)
	if len(reasons) == 0 {
		return nil
	}

	fill, err := s.executor.Submit(ctx, pos.Symbol, domain.OrderSell, pos.Amount)
	if err != nil {
		return fmt.Errorf("sell order: %w", err)
	}

	closed, err := s.ledger.Close(ctx, pos.Symbol, fill.FilledPrice, strings.Join(reasons, "; "))
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}

	s.metrics.TradesExecuted.WithLabelValues(string(domain.OrderSell)).Inc()
	s.log.Info().
		Str("symbol", pos.Symbol).
		Float64("exit_price", fill.FilledPrice).
		Strs("reasons", reasons).
		Msg("position closed")
	s.alerts.PositionClosed(ctx, closed, reasons)
	return nil
}

func (s *Scanner) saveScanResults(results []domain.ScanResult) {
	if s.scanRepo == nil {
		return
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	s.scanRepo.SaveResults(results)
}

// backfillReturns fills in the 6h and 24h forward returns for recorded
// signals once enough bars exist, so logged signals can be evaluated against
// what the market actually did.
func (s *Scanner) backfillReturns(ctx context.Context) {
	pending, err := s.signalLog.PendingReturns(ctx, backfillBatchSize)
	if err != nil {
		s.log.Warn().Err(err).Msg("loading pending signal returns failed")
		return
	}

	for _, rec := range pending {
		if time.Since(rec.Timestamp) < 24*time.Hour {
			continue
		}
		if err := s.resolveReturns(ctx, rec); err != nil {
			s.log.Debug().Err(err).Str("symbol", rec.Symbol).Msg("return backfill skipped")
		}
	}
}

func (s *Scanner) resolveReturns(ctx context.Context, rec *domain.SignalRecord) error {
	// 72 hourly bars cover the 24h horizon plus slack for signals a day or
	// two old; anything older is resolved on a later pass or never.
	bars, err := s.source.FetchBars(ctx, rec.Symbol, "1h", 72)
	if err != nil {
		return err
	}

	idx := -1
	target := rec.Timestamp.Truncate(time.Hour)
	for i, bar := range bars {
		if bar.Timestamp.Equal(target) {
			idx = i
			break
		}
	}
	if idx < 0 || idx+24 >= len(bars) {
		return fmt.Errorf("signal bar not in window")
	}

	future6h := bars[idx+6].Close
	future24h := bars[idx+24].Close
	if rec.ClosePrice <= 0 {
		return fmt.Errorf("zero close price on record")
	}
	return6h := (future6h - rec.ClosePrice) / rec.ClosePrice * 100
	return24h := (future24h - rec.ClosePrice) / rec.ClosePrice * 100

	rec.Future6h = &future6h
	rec.Future24h = &future24h
	rec.Return6h = &return6h
	rec.Return24h = &return24h
	return s.signalLog.UpdateReturns(ctx, rec)
}

func (s *Scanner) healthCheck(ctx context.Context) {
	count, err := s.ledger.CountOpen(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("health check ledger read failed")
		return
	}

	s.mu.Lock()
	cycles := s.cycles
	s.mu.Unlock()

	uptime := time.Since(s.startedAt).Round(time.Minute)
	s.log.Info().Int64("cycles", cycles).Int("open_positions", count).Str("uptime", uptime.String()).Msg("health check")
	s.alerts.Broadcast(ctx, fmt.Sprintf("✅ Scanner healthy\nUptime: %s\nCycles: %d\nOpen positions: %d", uptime, cycles, count))
}

func toScanResult(symbol string, eval *Evaluation) domain.ScanResult {
	result := domain.ScanResult{
		Symbol:      symbol,
		Price:       eval.LastClose,
		SurgePct:    eval.SurgePct,
		GoldenCross: eval.Snapshot.HasTrend && eval.Snapshot.GoldenCross,
		Signals:     eval.Signals,
		Enter:       eval.Enter,
		Timestamp:   time.Now(),
	}
	if eval.Snapshot.HasRSI {
		rsi := eval.Snapshot.RSI
		result.RSI = &rsi
	}
	if eval.Snapshot.HasMACD {
		macd, sig := eval.Snapshot.MACD, eval.Snapshot.MACDSignal
		result.MACD = &macd
		result.MACDSignal = &sig
	}
	return result
}
