package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner-backend/internal/config"
	"scanner-backend/internal/domain"
	"scanner-backend/internal/repository"
	"scanner-backend/internal/usecase"
)

func newTestHandler(t *testing.T) (*Handler, *usecase.PositionLedger, *repository.InMemoryScanRepository) {
	t.Helper()
	ledger := usecase.NewPositionLedger(repository.NewInMemoryPositionRepository(), usecase.LedgerConfig{
		MaxConcurrentTrades: 5,
		DayTradeRule:        config.DayRuleOff,
	})
	scanRepo := repository.NewInMemoryScanRepository()
	handler := NewHandler(ledger, scanRepo, repository.NewTokenRepository(), zerolog.Nop())
	return handler, ledger, scanRepo
}

func TestOpenPositionsEndpoint(t *testing.T) {
	handler, ledger, _ := newTestHandler(t)
	_, err := ledger.Open(context.Background(), "BTCUSDT", 50, 100)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.HandleOpenPositions(rec, httptest.NewRequest(http.MethodGet, "/api/positions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var positions []domain.Position
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "BTCUSDT", positions[0].Symbol)
	assert.Equal(t, domain.StatusOpen, positions[0].Status)
}

func TestStatsEndpoint(t *testing.T) {
	handler, ledger, _ := newTestHandler(t)
	_, err := ledger.Open(context.Background(), "BTCUSDT", 50, 100)
	require.NoError(t, err)
	_, err = ledger.Close(context.Background(), "BTCUSDT", 110, "Profit Hit (10.00%)")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.LedgerStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.Wins)
}

func TestTokenRegistration(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body := strings.NewReader(`{"token":"device-1","platform":"ios"}`)
	rec := httptest.NewRecorder()
	handler.HandleRegisterToken(rec, httptest.NewRequest(http.MethodPost, "/api/tokens/register", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)

	// Missing token is rejected.
	rec = httptest.NewRecorder()
	handler.HandleRegisterToken(rec, httptest.NewRequest(http.MethodPost, "/api/tokens/register", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleOpenPositions(rec, httptest.NewRequest(http.MethodPost, "/api/positions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
