package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"scanner-backend/internal/domain"
)

// SpotBaseURL is the public Binance spot API.
const SpotBaseURL = "https://api.binance.com"

// Client fetches public market data. Requests go through a client-side rate
// limiter so a full scan cycle stays inside the exchange's request weight.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a market data client. An empty baseURL selects the
// production spot API; tests point it at a local server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = SpotBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(15), 30),
	}
}

type ticker24h struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

// FetchBars returns up to limit klines for symbol, oldest first.
// Binance returns [ [open_time, open, high, low, close, volume, ...], ... ]
// with prices as strings.
func (c *Client) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]domain.PriceBar, error) {
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d", c.baseURL, symbol, timeframe, limit)

	var klines [][]any
	if err := c.getJSON(ctx, u, &klines); err != nil {
		return nil, err
	}

	bars := make([]domain.PriceBar, 0, len(klines))
	for _, k := range klines {
		if len(k) < 6 {
			return nil, &domain.DataQualityError{Symbol: symbol, Reason: "short kline row"}
		}
		bar, err := parseKline(symbol, k)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// FetchLastPrice returns the most recent traded price for symbol.
func (c *Client) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, symbol)

	var out struct {
		Price string `json:"price"`
	}
	if err := c.getJSON(ctx, u, &out); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(out.Price, 64)
	if err != nil {
		return 0, &domain.DataQualityError{Symbol: symbol, Reason: "unparseable last price"}
	}
	return price, nil
}

// RankByVolume returns symbols quoted in quoteAsset ordered by 24h quote
// volume, highest first, truncated to limit.
func (c *Client) RankByVolume(ctx context.Context, quoteAsset string, limit int) ([]string, error) {
	u := c.baseURL + "/api/v3/ticker/24hr"

	var tickers []ticker24h
	if err := c.getJSON(ctx, u, &tickers); err != nil {
		return nil, err
	}

	type ranked struct {
		symbol string
		volume float64
	}
	candidates := make([]ranked, 0, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, quoteAsset) {
			continue
		}
		vol, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, ranked{symbol: t.Symbol, volume: vol})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].volume > candidates[j].volume
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	symbols := make([]string, len(candidates))
	for i, r := range candidates {
		symbols[i] = r.symbol
	}
	return symbols, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("binance: %v: %w", err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("binance: status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("binance: decode: %v: %w", err, domain.ErrUnavailable)
	}
	return nil
}

func parseKline(symbol string, k []any) (domain.PriceBar, error) {
	openTime, ok := k[0].(float64)
	if !ok {
		return domain.PriceBar{}, &domain.DataQualityError{Symbol: symbol, Reason: "bad kline open time"}
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := parseValue(k[i])
		if err != nil {
			return domain.PriceBar{}, &domain.DataQualityError{Symbol: symbol, Reason: "unparseable kline field"}
		}
		fields[i-1] = v
	}

	return domain.PriceBar{
		Timestamp: time.UnixMilli(int64(openTime)).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

func parseValue(v any) (float64, error) {
	switch val := v.(type) {
	case string:
		return strconv.ParseFloat(val, 64)
	case float64:
		return val, nil
	}
	return 0, fmt.Errorf("unsupported kline value type %T", v)
}

// compile-time check
var _ domain.MarketDataSource = (*Client)(nil)
