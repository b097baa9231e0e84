// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhayashi/kabuto/internal/common"
	"github.com/mhayashi/kabuto/internal/models"
)

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client fetches end-of-day prices and FX rates from EODHD.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        int64       `json:"volume"`
}

// GetDailyBars retrieves daily bars for a symbol between from and to
// (inclusive, "2006-01-02" strings), oldest first.
func (c *Client) GetDailyBars(ctx context.Context, symbol, from, to string) ([]models.EODBar, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if from != "" {
		params.Set("from", from)
	}
	if to != "" {
		params.Set("to", to)
	}

	path := fmt.Sprintf("/eod/%s", url.PathEscape(symbol))

	var raw []eodBarResponse
	if err := c.get(ctx, path, params, &raw); err != nil {
		return nil, err
	}

	bars := make([]models.EODBar, 0, len(raw))
	for _, bar := range raw {
		date, err := time.Parse("2006-01-02", bar.Date)
		if err != nil {
			continue
		}
		bars = append(bars, models.EODBar{
			Date:   date,
			Open:   float64(bar.Open),
			High:   float64(bar.High),
			Low:    float64(bar.Low),
			Close:  float64(bar.Close),
			Volume: bar.Volume,
		})
	}
	return bars, nil
}

// GetMonthlyBar aggregates one calendar month of daily bars for a symbol:
// close of the last trading day, intra-month high/low, mean close, the
// percentage move from the first to the last close, and mean daily volume.
func (c *Client) GetMonthlyBar(ctx context.Context, symbol string, year int, month time.Month) (*models.MonthlyBar, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	bars, err := c.GetDailyBars(ctx, symbol, first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no trading days for %s in %04d-%02d", symbol, year, int(month))
	}

	bar := &models.MonthlyBar{
		Code:  symbol,
		Year:  year,
		Month: month,
		Close: bars[len(bars)-1].Close,
		High:  bars[0].High,
		Low:   bars[0].Low,
	}

	var closeSum float64
	var volumeSum int64
	for _, b := range bars {
		if b.High > bar.High {
			bar.High = b.High
		}
		if b.Low < bar.Low {
			bar.Low = b.Low
		}
		closeSum += b.Close
		volumeSum += b.Volume
	}
	bar.Average = closeSum / float64(len(bars))
	bar.Volume = volumeSum / int64(len(bars))
	if firstClose := bars[0].Close; firstClose > 0 {
		bar.ChangeRate = (bar.Close/firstClose - 1) * 100
	}
	return bar, nil
}

// GetFXRate returns the currency→JPY rate on or nearest before date
// ("2006-01-02"), using EODHD's FOREX pseudo-tickers (e.g. USDJPY.FOREX).
// It looks back up to a week to cover weekends and market holidays.
func (c *Client) GetFXRate(ctx context.Context, currency, date string) (float64, error) {
	if currency == "" || currency == "JPY" {
		return 0, fmt.Errorf("fx rate requested for home currency")
	}

	end, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, fmt.Errorf("invalid fx date %q: %w", date, err)
	}
	start := end.AddDate(0, 0, -7)

	symbol := fmt.Sprintf("%sJPY.FOREX", currency)
	bars, err := c.GetDailyBars(ctx, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("no fx quotes for %s up to %s", symbol, date)
	}

	// Oldest first, so the last bar is the closest on-or-before quote.
	return bars[len(bars)-1].Close, nil
}
