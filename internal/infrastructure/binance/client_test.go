package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanner-backend/internal/domain"
)

func TestFetchBarsParsesKlines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1h", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			[1700000000000,"100.5","101.0","99.0","100.0","1200.5",1700003599999,"0","0","0","0","0"],
			[1700003600000,"100.0","102.0","100.0","101.5","1300.0",1700007199999,"0","0","0","0","0"]
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	bars, err := client.FetchBars(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, 100.5, bars[0].Open)
	assert.Equal(t, 101.0, bars[0].High)
	assert.Equal(t, 99.0, bars[0].Low)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 1200.5, bars[0].Volume)
	assert.Equal(t, int64(1700000000000), bars[0].Timestamp.UnixMilli())
	assert.Equal(t, 101.5, bars[1].Close)
}

func TestFetchBarsBadFieldIsDataQuality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"not-a-number","101.0","99.0","100.0","1200.5",1700003599999,"0","0","0","0","0"]]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchBars(context.Background(), "BTCUSDT", "1h", 1)
	require.Error(t, err)
	assert.True(t, domain.IsDataQuality(err))
}

func TestFetchBarsServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchBars(context.Background(), "BTCUSDT", "1h", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestFetchLastPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"2450.75"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	price, err := client.FetchLastPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2450.75, price)
}

func TestRankByVolumeFiltersAndSorts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","quoteVolume":"500000000"},
			{"symbol":"ETHBTC","quoteVolume":"900000000"},
			{"symbol":"ETHUSDT","quoteVolume":"700000000"},
			{"symbol":"DOGEUSDT","quoteVolume":"100000000"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	symbols, err := client.RankByVolume(context.Background(), "USDT", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"ETHUSDT", "BTCUSDT"}, symbols)
}

func TestPlaceMarketOrderAveragesFills(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/order", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "BUY", r.URL.Query().Get("side"))
		assert.Equal(t, "MARKET", r.URL.Query().Get("type"))
		assert.NotEmpty(t, r.URL.Query().Get("signature"))
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		w.Write([]byte(`{
			"orderId": 42,
			"symbol": "BTCUSDT",
			"status": "FILLED",
			"executedQty": "0.00200000",
			"cummulativeQuoteQty": "100.10",
			"fills": [
				{"price":"50000.00","qty":"0.00100000"},
				{"price":"50100.00","qty":"0.00100000"}
			]
		}`))
	}))
	defer server.Close()

	client := NewTradingClient("test-key", "test-secret", server.URL)
	order, err := client.PlaceMarketOrder(context.Background(), "BTCUSDT", "BUY", 0.002)
	require.NoError(t, err)

	assert.Equal(t, int64(42), order.OrderID)
	assert.Equal(t, "FILLED", order.Status)
	assert.InDelta(t, 0.002, order.ExecutedQty, 1e-9)
	assert.InDelta(t, 50050.0, order.AvgFillPrice, 1e-6)
}

func TestPlaceMarketOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1013,"msg":"Filter failure: MIN_NOTIONAL"}`))
	}))
	defer server.Close()

	client := NewTradingClient("k", "s", server.URL)
	_, err := client.PlaceMarketOrder(context.Background(), "BTCUSDT", "BUY", 0.0000001)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -1013, apiErr.Code)
	assert.Contains(t, apiErr.Message, "MIN_NOTIONAL")
}
