package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TradingClient handles authenticated Binance spot API requests.
type TradingClient struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// APIError captures structured error info returned by Binance.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"msg"`
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "binance API error"
	}
	if e.Code != 0 || e.Message != "" {
		return fmt.Sprintf("binance API error %d (code=%d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("binance API error %d: %s", e.StatusCode, e.Body)
}

func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Code != 0 || parsed.Msg != "") {
		return &APIError{StatusCode: statusCode, Code: parsed.Code, Message: parsed.Msg, Body: string(body)}
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}

// NewTradingClient creates an authenticated client. An empty baseURL selects
// the production spot API.
func NewTradingClient(apiKey, secretKey, baseURL string) *TradingClient {
	if baseURL == "" {
		baseURL = SpotBaseURL
	}
	return &TradingClient{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// TestConnection verifies that the API credentials are valid.
func (c *TradingClient) TestConnection(ctx context.Context) error {
	resp, err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, body)
	}
	return nil
}

// FreeBalance returns the free balance of one asset.
func (c *TradingClient) FreeBalance(ctx context.Context, asset string) (float64, error) {
	resp, err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, parseAPIError(resp.StatusCode, body)
	}

	var account struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return 0, err
	}

	for _, b := range account.Balances {
		if b.Asset == asset {
			free, _ := strconv.ParseFloat(b.Free, 64)
			return free, nil
		}
	}
	return 0, nil
}

// OrderResult is the outcome of a filled order.
type OrderResult struct {
	OrderID      int64
	Symbol       string
	Status       string
	ExecutedQty  float64
	AvgFillPrice float64
}

// PlaceMarketOrder places a MARKET order and reports the average fill price.
func (c *TradingClient) PlaceMarketOrder(ctx context.Context, symbol, side string, quantity float64) (*OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", side)
	params.Set("type", "MARKET")
	params.Set("quantity", strconv.FormatFloat(quantity, 'f', 8, 64))

	resp, err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var order struct {
		OrderID            int64  `json:"orderId"`
		Symbol             string `json:"symbol"`
		Status             string `json:"status"`
		ExecutedQty        string `json:"executedQty"`
		CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
		Fills              []struct {
			Price string `json:"price"`
			Qty   string `json:"qty"`
		} `json:"fills"`
	}
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, err
	}

	executedQty, _ := strconv.ParseFloat(order.ExecutedQty, 64)

	// Spot responses report individual fills; the average price is the
	// quantity-weighted mean, falling back to quote/base when fills are
	// missing.
	var avgPrice float64
	var filledQty float64
	for _, f := range order.Fills {
		price, _ := strconv.ParseFloat(f.Price, 64)
		qty, _ := strconv.ParseFloat(f.Qty, 64)
		avgPrice += price * qty
		filledQty += qty
	}
	if filledQty > 0 {
		avgPrice /= filledQty
	} else if executedQty > 0 {
		quoteQty, _ := strconv.ParseFloat(order.CummulativeQuoteQty, 64)
		avgPrice = quoteQty / executedQty
	}

	return &OrderResult{
		OrderID:      order.OrderID,
		Symbol:       order.Symbol,
		Status:       order.Status,
		ExecutedQty:  executedQty,
		AvgFillPrice: avgPrice,
	}, nil
}

// signedRequest makes a signed API request.
func (c *TradingClient) signedRequest(ctx context.Context, method, endpoint string, params url.Values) (*http.Response, error) {
	if params == nil {
		params = url.Values{}
	}

	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	queryString := params.Encode()
	params.Set("signature", c.sign(queryString))

	fullURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	return c.httpClient.Do(req)
}

// sign creates the HMAC SHA256 request signature.
func (c *TradingClient) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
