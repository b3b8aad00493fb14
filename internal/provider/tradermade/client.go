// Package tradermade implements the RateProvider boundary against the
// TraderMade market-data REST API.
package tradermade

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	apperrors "fxdash/internal/errors"
	"fxdash/internal/market"
	"fxdash/internal/provider"
)

const (
	defaultBaseURL = "https://marketdata.tradermade.com/api/v1"
	defaultTimeout = 10 * time.Second

	endpointCurrencyList = "live_currencies_list"
	endpointConvert      = "convert"
	endpointTimeseries   = "timeseries"
)

// Config holds TraderMade client settings
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// RequestsPerSecond bounds outbound calls; free API keys are throttled hard.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Client is the TraderMade REST client. It applies a request timeout, a
// token-bucket rate limit on outbound calls and retries retryable statuses
// with exponential backoff.
type Client struct {
	cfg     *Config
	http    *http.Client
	limiter *rate.Limiter
	retry   *provider.RetryConfig
	log     *logrus.Entry
}

// New creates a TraderMade client
func New(cfg *Config, log *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		retry:   provider.DefaultRetryConfig(),
		log:     log.WithField("component", "tradermade"),
	}
}

// FetchCurrencyList fetches the available currencies
func (c *Client) FetchCurrencyList(ctx context.Context) ([]market.Currency, error) {
	var payload struct {
		AvailableCurrencies map[string]string `json:"available_currencies"`
	}
	err := provider.WithRetry(ctx, func(ctx context.Context) error {
		return c.fetchJSON(ctx, endpointCurrencyList, nil, &payload)
	}, c.retry)
	if err != nil {
		return nil, wrapFetchError(err, "failed to fetch currency list")
	}
	if payload.AvailableCurrencies == nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeMalformedPayload,
			"currency list response missing available_currencies", nil)
	}

	currencies := make([]market.Currency, 0, len(payload.AvailableCurrencies))
	for code, description := range payload.AvailableCurrencies {
		currencies = append(currencies, market.Currency{Code: code, Description: description})
	}
	sortCurrencies(currencies)
	return currencies, nil
}

// FetchLiveRate fetches the current exchange rate for base/quote via the
// convert endpoint with a unit amount.
func (c *Client) FetchLiveRate(ctx context.Context, base, quote string) (float64, error) {
	var payload struct {
		Total *float64 `json:"total"`
		Quote *float64 `json:"quote"`
	}
	params := url.Values{}
	params.Set("from", base)
	params.Set("to", quote)
	params.Set("amount", "1")

	err := provider.WithRetry(ctx, func(ctx context.Context) error {
		return c.fetchJSON(ctx, endpointConvert, params, &payload)
	}, c.retry)
	if err != nil {
		return 0, wrapFetchError(err, fmt.Sprintf("failed to fetch live rate for %s/%s", base, quote))
	}
	if payload.Quote == nil {
		return 0, apperrors.NewAppError(apperrors.ErrCodeMalformedPayload,
			"convert response missing quote", nil)
	}
	if *payload.Quote <= 0 {
		return 0, apperrors.NewAppError(apperrors.ErrCodeMalformedPayload,
			"convert response returned non-positive rate", nil).
			WithContext("rate", *payload.Quote)
	}
	return *payload.Quote, nil
}

// FetchOHLC fetches the historical OHLC series for a pair. An empty range is
// returned as an empty slice. The result is ascending by timestamp with
// duplicate timestamps removed; rows with missing fields are dropped the way
// the upstream data feed drops incomplete bars.
func (c *Client) FetchOHLC(ctx context.Context, base, quote string, start, end time.Time, interval market.Interval) ([]market.Candle, error) {
	var payload struct {
		Quotes []quoteRow `json:"quotes"`
	}
	params := url.Values{}
	params.Set("currency", base+quote)
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	params.Set("format", "records")
	setIntervalParams(params, interval)

	err := provider.WithRetry(ctx, func(ctx context.Context) error {
		return c.fetchJSON(ctx, endpointTimeseries, params, &payload)
	}, c.retry)
	if err != nil {
		return nil, wrapFetchError(err, fmt.Sprintf("failed to fetch history for %s%s", base, quote))
	}
	if payload.Quotes == nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeMalformedPayload,
			"timeseries response missing quotes", nil)
	}

	candles := make([]market.Candle, 0, len(payload.Quotes))
	dropped := 0
	for _, row := range payload.Quotes {
		candle, ok := row.toCandle()
		if !ok {
			dropped++
			continue
		}
		candles = append(candles, candle)
	}
	if dropped > 0 {
		c.log.WithFields(logrus.Fields{
			"pair":    base + quote,
			"dropped": dropped,
		}).Debug("dropped incomplete OHLC rows")
	}
	return market.SortAscending(candles), nil
}

// quoteRow is one record of the timeseries payload. Pointer fields detect
// nulls and missing columns.
type quoteRow struct {
	Date  string   `json:"date"`
	Open  *float64 `json:"open"`
	High  *float64 `json:"high"`
	Low   *float64 `json:"low"`
	Close *float64 `json:"close"`
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", "2006-01-02-15:04"}

func (r quoteRow) toCandle() (market.Candle, bool) {
	if r.Open == nil || r.High == nil || r.Low == nil || r.Close == nil {
		return market.Candle{}, false
	}
	var ts time.Time
	var err error
	for _, layout := range dateLayouts {
		if ts, err = time.Parse(layout, r.Date); err == nil {
			break
		}
	}
	if err != nil {
		return market.Candle{}, false
	}
	if *r.High < *r.Low {
		return market.Candle{}, false
	}
	return market.Candle{
		Timestamp: ts.UTC(),
		Open:      *r.Open,
		High:      *r.High,
		Low:       *r.Low,
		Close:     *r.Close,
	}, true
}

func setIntervalParams(params url.Values, interval market.Interval) {
	switch interval {
	case market.Interval1h:
		params.Set("interval", "hourly")
		params.Set("period", "1")
	case market.Interval4h:
		params.Set("interval", "hourly")
		params.Set("period", "4")
	case market.Interval1w:
		params.Set("interval", "weekly")
	default:
		params.Set("interval", "daily")
	}
}

// fetchJSON performs one GET against the API and decodes the response body.
func (c *Client) fetchJSON(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.cfg.APIKey)
	reqURL := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeFetchFailed, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperrors.WrapError(err, apperrors.ErrCodeFetchTimeout,
				"request to rate provider timed out").WithContext("endpoint", endpoint)
		}
		return apperrors.WrapError(err, apperrors.ErrCodeFetchFailed,
			"request to rate provider failed").WithContext("endpoint", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Body is read and discarded so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &provider.StatusError{Code: resp.StatusCode, Endpoint: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeMalformedPayload,
			"failed to decode provider response").WithContext("endpoint", endpoint)
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return stderrors.Is(err, context.DeadlineExceeded)
}

func wrapFetchError(err error, message string) error {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	var statusErr *provider.StatusError
	if stderrors.As(err, &statusErr) {
		return apperrors.NewAppErrorWithDetails(apperrors.ErrCodeFetchFailed, message,
			statusErr.Error(), statusErr)
	}
	return apperrors.WrapError(err, apperrors.ErrCodeFetchFailed, message)
}

func sortCurrencies(currencies []market.Currency) {
	// Stable order keeps the dashboard dropdown deterministic.
	sort.Slice(currencies, func(i, j int) bool {
		return currencies[i].Code < currencies[j].Code
	})
}
