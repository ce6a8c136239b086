package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"scanner-backend/internal/config"
	deliveryhttp "scanner-backend/internal/delivery/http"
	"scanner-backend/internal/delivery/websocket"
	"scanner-backend/internal/domain"
	"scanner-backend/internal/infrastructure/binance"
	"scanner-backend/internal/infrastructure/db"
	"scanner-backend/internal/infrastructure/fcm"
	"scanner-backend/internal/infrastructure/telegram"
	"scanner-backend/internal/metrics"
	"scanner-backend/internal/repository"
	"scanner-backend/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories: Postgres when a DATABASE_URL is set, in-memory otherwise.
	var (
		positionRepo domain.PositionRepository
		signalLog    domain.SignalLogRepository
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfigFromEnv())
		if err != nil {
			logger.Fatal().Err(err).Msg("database connection failed")
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
		positionRepo = repository.NewPostgresPositionRepository(pool)
		signalLog = repository.NewPostgresSignalLog(pool)
		logger.Info().Msg("using postgres persistence")
	} else {
		positionRepo = repository.NewInMemoryPositionRepository()
		signalLog = repository.NewInMemorySignalLog()
		logger.Warn().Msg("no DATABASE_URL set, positions will not survive restarts")
	}

	scanRepo := repository.NewInMemoryScanRepository()
	tokenRepo := repository.NewTokenRepository()

	// Market data and execution.
	marketClient := binance.NewClient(cfg.BinanceBaseURL)

	var executor domain.TradeExecutor
	if cfg.TradingMode == config.ModeLive {
		tradingClient := binance.NewTradingClient(cfg.BinanceAPIKey, cfg.BinanceSecret, cfg.BinanceBaseURL)
		if err := tradingClient.TestConnection(ctx); err != nil {
			logger.Fatal().Err(err).Msg("exchange credentials rejected")
		}
		if free, err := tradingClient.FreeBalance(ctx, cfg.QuoteAsset); err != nil {
			logger.Warn().Err(err).Msg("balance check failed")
		} else {
			logger.Info().Float64("free", free).Str("asset", cfg.QuoteAsset).Msg("account balance")
			if free < cfg.TradeAmountUSD {
				logger.Warn().Float64("trade_amount", cfg.TradeAmountUSD).Msg("balance below trade amount, entries will fail")
			}
		}
		executor = usecase.NewLiveExecutor(tradingClient)
		logger.Info().Msg("LIVE trading enabled")
	} else {
		executor = usecase.NewPaperExecutor(marketClient)
		logger.Info().Msg("paper trading enabled")
	}

	// Notifications.
	var notifier domain.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, "", logger)
	} else {
		notifier = telegram.NewLogNotifier(logger)
	}

	fcmClient, err := fcm.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("fcm initialization failed")
	}

	alerts := usecase.NewAlertService(notifier, fcmClient, tokenRepo, logger)

	// Trading core.
	ledger := usecase.NewPositionLedger(positionRepo, usecase.LedgerConfig{
		MaxConcurrentTrades: cfg.MaxConcurrentTrades,
		DayTradeRule:        cfg.DayTradeRule,
	})

	var strategy usecase.Strategy
	if cfg.Strategy == config.StrategyThreshold {
		strategy = &usecase.ThresholdStrategy{
			SurgeThresholdPct: cfg.SurgeThresholdPct,
			MinSignals:        cfg.MinSignals,
		}
	} else {
		strategy = &usecase.MomentumStrategy{
			MinPriceChangePct: cfg.MomentumMinChangePct,
			RequireMinChange:  cfg.MomentumRequireMinChange,
		}
	}

	exits := usecase.NewExitEvaluator(usecase.ExitConfig{
		ProfitTargetPct:     cfg.ProfitTargetPct,
		ProfitTargetEnabled: cfg.ProfitTargetEnabled,
		TrailingStopPct:     cfg.TrailingStopPct,
		TrailingStopEnabled: cfg.TrailingStopEnabled,
		StopLossPct:         cfg.StopLossPct,
		StopLossEnabled:     cfg.StopLossEnabled,
	})

	var breadth *usecase.BreadthGauge
	if cfg.BreadthEnabled {
		breadth = usecase.NewBreadthGauge(marketClient, cfg.BreadthSymbols, cfg.ScanTimeframe, logger)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	scanner := usecase.NewScanner(usecase.ScannerDeps{
		Source:    marketClient,
		Strategy:  strategy,
		Ledger:    ledger,
		Exits:     exits,
		Executor:  executor,
		Alerts:    alerts,
		SignalLog: signalLog,
		ScanRepo:  scanRepo,
		Breadth:   breadth,
		Metrics:   m,
	}, usecase.ScannerConfig{
		NumSymbols:          cfg.NumSymbols,
		QuoteAsset:          cfg.QuoteAsset,
		TradeAmountUSD:      cfg.TradeAmountUSD,
		ScanInterval:        cfg.ScanInterval,
		ScanTimeframe:       cfg.ScanTimeframe,
		ScanBars:            cfg.ScanBars,
		ExitTimeframe:       cfg.ExitTimeframe,
		ExitBars:            cfg.ExitBars,
		BreadthEnabled:      cfg.BreadthEnabled,
		HealthCheckInterval: cfg.HealthCheckInterval,
	}, logger)

	go func() {
		if err := scanner.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("scan loop stopped")
		}
	}()

	// Delivery.
	mux := http.NewServeMux()
	deliveryhttp.NewHandler(ledger, scanRepo, tokenRepo, logger).Register(mux)
	mux.HandleFunc("/ws", websocket.NewHandler(scanRepo, ledger, logger).Handle)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.ListenAddr).Str("mode", cfg.TradingMode).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
