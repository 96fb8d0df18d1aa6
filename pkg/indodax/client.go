package indodax

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client represents Indodax API client
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new Indodax client
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Number decodes values Indodax sends either as JSON numbers or strings
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	*n = Number(f)
	return nil
}

// Float64 returns the plain float value
func (n Number) Float64() float64 {
	return float64(n)
}

// Pair is the trading rule set of one market from /api/pairs
type Pair struct {
	ID                     string `json:"id"`              // e.g. "btcidr"
	TickerID               string `json:"ticker_id"`       // e.g. "btc_idr"
	BaseCurrency           string `json:"base_currency"`   // quote side, e.g. "idr"
	TradedCurrency         string `json:"traded_currency"` // e.g. "btc"
	Description            string `json:"description"`
	PricePrecision         int    `json:"price_precision"`
	VolumePrecision        int    `json:"volume_precision"`
	PriceRound             int    `json:"price_round"`
	TradeMinBaseCurrency   Number `json:"trade_min_base_currency"`
	TradeMinTradedCurrency Number `json:"trade_min_traded_currency"`
}

// Ticker is one entry of /api/summaries
type Ticker struct {
	High       Number `json:"high"`
	Low        Number `json:"low"`
	Last       Number `json:"last"`
	Buy        Number `json:"buy"`
	Sell       Number `json:"sell"`
	VolIDR     Number `json:"vol_idr"`
	ServerTime int64  `json:"server_time"`
	Name       string `json:"name"`
}

// SummariesResponse is the /api/summaries payload; ticker keys use "btc_idr"
type SummariesResponse struct {
	Tickers map[string]Ticker `json:"tickers"`
}

// GetInfoResponse represents getInfo API response
type GetInfoResponse struct {
	Success int            `json:"success"`
	Return  *GetInfoReturn `json:"return"`
	Error   string         `json:"error,omitempty"`
}

// GetInfoReturn represents the return data from getInfo
type GetInfoReturn struct {
	ServerTime  int64             `json:"server_time"`
	Balance     map[string]Number `json:"balance"`
	BalanceHold map[string]Number `json:"balance_hold"`
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
}

// TradeRequest describes an order for the private trade method
type TradeRequest struct {
	Pair          string  // "btc_idr"
	Type          string  // buy, sell
	OrderType     string  // market, limit
	Price         float64 // limit price, or reference price for market orders
	QuoteAmount   float64 // amount of quote currency to spend (market buy)
	BaseAmount    float64 // amount of traded currency (sell, limit buy)
	ClientOrderID string
}

// TradeReturn is the receipt of a placed order. Amount maps are keyed by
// currency ("idr", "btc"); Indodax's "rp" is normalized to "idr".
type TradeReturn struct {
	OrderID       int64
	ClientOrderID string
	Receive       map[string]float64
	Spend         map[string]float64
	Sold          map[string]float64
	Remain        map[string]float64
	Fee           float64
}

// UnmarshalJSON collects the dynamic receive_*/spend_*/sold_*/remain_* keys
func (t *TradeReturn) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	t.Receive = map[string]float64{}
	t.Spend = map[string]float64{}
	t.Sold = map[string]float64{}
	t.Remain = map[string]float64{}

	for key, value := range raw {
		var n Number
		switch {
		case key == "order_id":
			if err := json.Unmarshal(value, &n); err == nil {
				t.OrderID = int64(n)
			}
		case key == "client_order_id":
			_ = json.Unmarshal(value, &t.ClientOrderID)
		case key == "fee":
			if err := json.Unmarshal(value, &n); err == nil {
				t.Fee = n.Float64()
			}
		default:
			idx := strings.IndexByte(key, '_')
			if idx <= 0 {
				continue
			}
			if err := json.Unmarshal(value, &n); err != nil {
				continue
			}
			currency := key[idx+1:]
			if currency == "rp" {
				currency = "idr"
			}
			switch key[:idx] {
			case "receive":
				t.Receive[currency] = n.Float64()
			case "spend":
				t.Spend[currency] = n.Float64()
			case "sold":
				t.Sold[currency] = n.Float64()
			case "remain":
				t.Remain[currency] = n.Float64()
			}
		}
	}
	return nil
}

// FillPrice derives the average price and traded quantity of base in quote
// units from the receipt. ok is false when the receipt carries no fill.
func (t *TradeReturn) FillPrice(side, base, quote string) (price, quantity float64, ok bool) {
	switch side {
	case "buy":
		quantity = t.Receive[base]
		if quantity > 0 && t.Spend[quote] > 0 {
			return t.Spend[quote] / quantity, quantity, true
		}
	case "sell":
		quantity = t.Sold[base]
		if quantity > 0 && t.Receive[quote] > 0 {
			return t.Receive[quote] / quantity, quantity, true
		}
	}
	return 0, quantity, false
}

type tradeResponse struct {
	Success int          `json:"success"`
	Return  *TradeReturn `json:"return"`
	Error   string       `json:"error,omitempty"`
}

// GetPairs returns the trading rules of every market
func (c *Client) GetPairs(ctx context.Context) ([]Pair, error) {
	var pairs []Pair
	if err := c.getPublic(ctx, "/api/pairs", &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// GetSummaries returns the latest ticker of every market
func (c *Client) GetSummaries(ctx context.Context) (*SummariesResponse, error) {
	var result SummariesResponse
	if err := c.getPublic(ctx, "/api/summaries", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateAPIKey validates Indodax API credentials by calling getInfo
func (c *Client) ValidateAPIKey(ctx context.Context, key, secret string) (bool, error) {
	var result GetInfoResponse
	if err := c.postPrivate(ctx, key, secret, "getInfo", nil, &result); err != nil {
		return false, err
	}
	return result.Success == 1 && result.Return != nil, nil
}

// GetInfo gets account information
func (c *Client) GetInfo(ctx context.Context, key, secret string) (*GetInfoReturn, error) {
	var result GetInfoResponse
	if err := c.postPrivate(ctx, key, secret, "getInfo", nil, &result); err != nil {
		return nil, err
	}

	if result.Success != 1 || result.Return == nil {
		if result.Error != "" {
			return nil, fmt.Errorf("indodax API error: %s", result.Error)
		}
		return nil, fmt.Errorf("invalid response from Indodax")
	}

	return result.Return, nil
}

// Trade places an order
func (c *Client) Trade(ctx context.Context, key, secret string, req TradeRequest) (*TradeReturn, error) {
	base, quote, found := strings.Cut(req.Pair, "_")
	if !found {
		return nil, fmt.Errorf("invalid pair %q", req.Pair)
	}

	data := url.Values{}
	data.Set("pair", req.Pair)
	data.Set("type", req.Type)
	if req.OrderType != "" {
		data.Set("order_type", req.OrderType)
	}
	if req.ClientOrderID != "" {
		data.Set("client_order_id", req.ClientOrderID)
	}

	if req.OrderType == "market" {
		if req.Type == "buy" {
			data.Set(quote, formatAmount(req.QuoteAmount))
		} else {
			data.Set(base, formatAmount(req.BaseAmount))
		}
	} else {
		data.Set("price", formatAmount(req.Price))
		data.Set(base, formatAmount(req.BaseAmount))
	}

	var result tradeResponse
	if err := c.postPrivate(ctx, key, secret, "trade", data, &result); err != nil {
		return nil, err
	}

	if result.Success != 1 || result.Return == nil {
		if result.Error != "" {
			return nil, fmt.Errorf("indodax API error: %s", result.Error)
		}
		return nil, fmt.Errorf("invalid trade response from Indodax")
	}

	return result.Return, nil
}

func (c *Client) getPublic(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("indodax %s returned status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) postPrivate(ctx context.Context, key, secret, method string, data url.Values, dest interface{}) error {
	if data == nil {
		data = url.Values{}
	}
	data.Set("method", method)
	data.Set("nonce", strconv.FormatInt(time.Now().UnixMilli(), 10))

	payload := data.Encode()
	signature := c.createSignature(payload, secret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/tapi", strings.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Key", key)
	req.Header.Set("Sign", signature)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// createSignature creates HMAC-SHA512 signature
func (c *Client) createSignature(message, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
