package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"scanner-backend/internal/domain"
	"scanner-backend/internal/infrastructure/fcm"
	"scanner-backend/internal/repository"
)

// alertCooldown suppresses repeat alerts for the same symbol.
const alertCooldown = 5 * time.Minute

// AlertService fans trade events out to the chat notifier and registered
// push devices. Delivery is best effort and never blocks the scan loop.
type AlertService struct {
	notifier  domain.Notifier
	fcmClient *fcm.Client
	tokenRepo *repository.TokenRepository
	log       zerolog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

func NewAlertService(notifier domain.Notifier, fcmClient *fcm.Client, tokenRepo *repository.TokenRepository, log zerolog.Logger) *AlertService {
	return &AlertService{
		notifier:  notifier,
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		log:       log.With().Str("component", "alerts").Logger(),
		lastSent:  map[string]time.Time{},
		now:       time.Now,
	}
}

// PositionOpened announces a new entry with the signals behind it.
func (s *AlertService) PositionOpened(ctx context.Context, pos *domain.Position, signals []domain.Signal, surgePct float64) {
	if !s.shouldSend(pos.Symbol) {
		return
	}

	text := fmt.Sprintf("🟢 BUY %s @ %.4f\nChange: %.2f%%\nSignals: %s",
		pos.Symbol, pos.EntryPrice, surgePct, strings.Join(domain.SignalKinds(signals), ", "))
	s.send(ctx, pos.Symbol, "Entry: "+pos.Symbol, text, map[string]string{
		"symbol": pos.Symbol,
		"event":  "open",
		"price":  fmt.Sprintf("%.8f", pos.EntryPrice),
	})
}

// PositionClosed announces an exit with its reasons and realized return.
func (s *AlertService) PositionClosed(ctx context.Context, pos *domain.Position, reasons []string) {
	exitPrice := 0.0
	if pos.ExitPrice != nil {
		exitPrice = *pos.ExitPrice
	}
	ret := pos.ProfitPct(exitPrice)

	emoji := "🔴"
	if ret > 0 {
		emoji = "💰"
	}
	text := fmt.Sprintf("%s SELL %s @ %.4f\nReturn: %+.2f%%\n%s",
		emoji, pos.Symbol, exitPrice, ret, strings.Join(reasons, "; "))
	s.send(ctx, pos.Symbol, "Exit: "+pos.Symbol, text, map[string]string{
		"symbol": pos.Symbol,
		"event":  "close",
		"price":  fmt.Sprintf("%.8f", exitPrice),
		"return": fmt.Sprintf("%.2f", ret),
	})
}

// Broadcast sends a plain status message without cooldown tracking. Used for
// health checks and breadth summaries.
func (s *AlertService) Broadcast(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.log.Warn().Err(err).Msg("broadcast failed")
	}
}

func (s *AlertService) shouldSend(symbol string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSent[symbol]; ok && now.Sub(last) < alertCooldown {
		return false
	}
	s.lastSent[symbol] = now

	for sym, ts := range s.lastSent {
		if now.Sub(ts) > 2*alertCooldown {
			delete(s.lastSent, sym)
		}
	}
	return true
}

func (s *AlertService) send(ctx context.Context, symbol, title, text string, data map[string]string) {
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, text); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("chat notification failed")
		}
	}

	if s.fcmClient == nil || !s.fcmClient.Enabled() || s.tokenRepo == nil {
		return
	}
	tokens := s.tokenRepo.All()
	if len(tokens) == 0 {
		return
	}
	if err := s.fcmClient.SendMulticast(ctx, tokens, title, text, data); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("push notification failed")
	}
}
