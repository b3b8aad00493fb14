// Package service orchestrates the dashboard use cases: it pulls raw data
// through the rate provider, consults the response cache, and hands the
// records to the analytics functions. All derived numbers come out of
// analytics; this layer only wires, validates request shape and maps empty
// results.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fxdash/internal/analytics"
	"fxdash/internal/cache"
	apperrors "fxdash/internal/errors"
	"fxdash/internal/market"
	"fxdash/internal/monitoring"
	"fxdash/internal/provider"
)

// TTLConfig holds cache time-to-live settings per endpoint
type TTLConfig struct {
	CurrencyList time.Duration `yaml:"currency_list"`
	LiveRate     time.Duration `yaml:"live_rate"`
	History      time.Duration `yaml:"history"`
}

// DefaultTTLConfig mirrors the upstream call-volume budget: the currency
// catalogue barely changes, history is stable within minutes, live rates go
// stale fast.
func DefaultTTLConfig() *TTLConfig {
	return &TTLConfig{
		CurrencyList: time.Hour,
		LiveRate:     time.Minute,
		History:      5 * time.Minute,
	}
}

// DefaultVolatilityWindow is applied when a request does not name a window.
const DefaultVolatilityWindow = 20

// Dashboard exposes the dashboard operations to the API layer
type Dashboard struct {
	provider provider.RateProvider
	store    cache.Store
	ttl      *TTLConfig
	metrics  *monitoring.Metrics
	log      *logrus.Entry
}

// HistoryRequest describes a historical data query
type HistoryRequest struct {
	Base     string
	Quote    string
	Start    time.Time
	End      time.Time
	Interval market.Interval
	// Window is the number of trailing records used by volatility; zero
	// selects DefaultVolatilityWindow.
	Window int
}

// VolatilityResult pairs the computed value with the window actually used
type VolatilityResult struct {
	Volatility float64 `json:"volatility"`
	Window     int     `json:"window"`
	Records    int     `json:"records"`
	// AnnualizedPct is the log-return volatility in percent over the same
	// window, the figure the original dashboard plotted.
	AnnualizedPct float64 `json:"annualized_pct"`
}

// PivotResult pairs pivot levels with the bar they were derived from
type PivotResult struct {
	Levels analytics.PivotLevels `json:"levels"`
	AsOf   time.Time             `json:"as_of"`
}

// NewDashboard creates the dashboard service
func NewDashboard(p provider.RateProvider, store cache.Store, ttl *TTLConfig, metrics *monitoring.Metrics, log *logrus.Logger) *Dashboard {
	if ttl == nil {
		ttl = DefaultTTLConfig()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dashboard{
		provider: p,
		store:    store,
		ttl:      ttl,
		metrics:  metrics,
		log:      log.WithField("component", "dashboard"),
	}
}

// CurrencyList returns the available currencies, cached for the configured TTL.
func (d *Dashboard) CurrencyList(ctx context.Context) ([]market.Currency, error) {
	key := cache.Fingerprint("currency_list", nil)

	var currencies []market.Currency
	if d.lookup(ctx, "currency_list", key, &currencies) {
		return currencies, nil
	}

	currencies, err := d.fetchCurrencyList(ctx)
	if err != nil {
		return nil, err
	}
	d.remember(ctx, key, currencies, d.ttl.CurrencyList)
	return currencies, nil
}

// RefreshCurrencyList bypasses the cache and rewrites the entry. The cron
// refresher calls this to keep the dropdown warm between user requests.
func (d *Dashboard) RefreshCurrencyList(ctx context.Context) error {
	currencies, err := d.fetchCurrencyList(ctx)
	if err != nil {
		return err
	}
	d.remember(ctx, cache.Fingerprint("currency_list", nil), currencies, d.ttl.CurrencyList)
	return nil
}

// Convert converts an amount between currencies at the live rate. The
// returned amount always equals amount times the returned rate.
func (d *Dashboard) Convert(ctx context.Context, base, quote string, amount float64) (analytics.ConversionResult, error) {
	if err := validateCode(base); err != nil {
		return analytics.ConversionResult{}, err
	}
	if err := validateCode(quote); err != nil {
		return analytics.ConversionResult{}, err
	}

	rate, err := d.liveRate(ctx, base, quote)
	if err != nil {
		return analytics.ConversionResult{}, err
	}

	converted, err := analytics.Convert(amount, rate)
	if err != nil {
		return analytics.ConversionResult{}, err
	}
	return analytics.ConversionResult{ConvertedAmount: converted, Rate: rate}, nil
}

// History returns the OHLC series for the requested range. An empty range is
// a valid, empty result.
func (d *Dashboard) History(ctx context.Context, req HistoryRequest) ([]market.Candle, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	key := cache.Fingerprint("timeseries", map[string]string{
		"pair":     req.Base + req.Quote,
		"start":    req.Start.Format("2006-01-02"),
		"end":      req.End.Format("2006-01-02"),
		"interval": string(req.Interval),
	})

	var candles []market.Candle
	if d.lookup(ctx, "timeseries", key, &candles) {
		return candles, nil
	}

	start := time.Now()
	candles, err := d.provider.FetchOHLC(ctx, req.Base, req.Quote, req.Start, req.End, req.Interval)
	d.metrics.RecordProviderRequest("timeseries", statusLabel(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	d.remember(ctx, key, candles, d.ttl.History)
	return candles, nil
}

// Pivots computes floor-trader pivot levels from the most recent complete
// record of the requested range.
func (d *Dashboard) Pivots(ctx context.Context, req HistoryRequest) (PivotResult, error) {
	candles, err := d.History(ctx, req)
	if err != nil {
		return PivotResult{}, err
	}
	if len(candles) == 0 {
		return PivotResult{}, emptyData(req)
	}

	last := candles[len(candles)-1]
	levels, err := analytics.ComputePivotLevels(last)
	if err != nil {
		return PivotResult{}, err
	}
	return PivotResult{Levels: levels, AsOf: last.Timestamp}, nil
}

// Volatility computes the close-price volatility over the trailing window.
func (d *Dashboard) Volatility(ctx context.Context, req HistoryRequest) (VolatilityResult, error) {
	candles, err := d.History(ctx, req)
	if err != nil {
		return VolatilityResult{}, err
	}
	if len(candles) == 0 {
		return VolatilityResult{}, emptyData(req)
	}

	window := req.Window
	if window <= 0 {
		window = DefaultVolatilityWindow
	}
	return VolatilityResult{
		Volatility:    analytics.ComputeVolatility(candles, window),
		Window:        window,
		Records:       len(candles),
		AnnualizedPct: analytics.ComputeLogReturnVolatility(candles, window),
	}, nil
}

// ChartData returns the chart-ready series with pivot overlays when the
// range yields at least one record. An empty range produces an empty series;
// surfacing that as "no data" is the rendering layer's call.
func (d *Dashboard) ChartData(ctx context.Context, req HistoryRequest) (analytics.ChartSeries, error) {
	candles, err := d.History(ctx, req)
	if err != nil {
		return analytics.ChartSeries{}, err
	}
	if len(candles) == 0 {
		return analytics.PrepareChartSeries(nil, nil), nil
	}

	levels, err := analytics.ComputePivotLevels(candles[len(candles)-1])
	if err != nil {
		return analytics.ChartSeries{}, err
	}
	return analytics.PrepareChartSeries(candles, &levels), nil
}

func (d *Dashboard) fetchCurrencyList(ctx context.Context) ([]market.Currency, error) {
	start := time.Now()
	currencies, err := d.provider.FetchCurrencyList(ctx)
	d.metrics.RecordProviderRequest("currency_list", statusLabel(err), time.Since(start))
	return currencies, err
}

func (d *Dashboard) liveRate(ctx context.Context, base, quote string) (float64, error) {
	key := cache.Fingerprint("live_rate", map[string]string{"from": base, "to": quote})

	var rate float64
	if d.lookup(ctx, "live_rate", key, &rate) {
		return rate, nil
	}

	start := time.Now()
	rate, err := d.provider.FetchLiveRate(ctx, base, quote)
	d.metrics.RecordProviderRequest("convert", statusLabel(err), time.Since(start))
	if err != nil {
		return 0, err
	}

	d.remember(ctx, key, rate, d.ttl.LiveRate)
	return rate, nil
}

// lookup reads a cached value; any cache failure degrades to a miss.
func (d *Dashboard) lookup(ctx context.Context, endpoint, key string, dest interface{}) bool {
	if d.store == nil {
		return false
	}
	err := d.store.Get(ctx, key, dest)
	if err == nil {
		d.metrics.RecordCacheHit(endpoint)
		return true
	}
	d.metrics.RecordCacheMiss(endpoint)
	if !cache.IsMiss(err) {
		d.log.WithError(err).WithField("key", key).Warn("cache read failed")
	}
	return false
}

// remember writes through to the cache; failures are logged, never fatal.
func (d *Dashboard) remember(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if d.store == nil {
		return
	}
	if err := d.store.Set(ctx, key, value, ttl); err != nil {
		d.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (r HistoryRequest) validate() error {
	if err := validateCode(r.Base); err != nil {
		return err
	}
	if err := validateCode(r.Quote); err != nil {
		return err
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"start and end dates are required", nil)
	}
	if r.Start.After(r.End) {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"start date must not be after end date", nil).
			WithContext("start", r.Start.Format("2006-01-02")).
			WithContext("end", r.End.Format("2006-01-02"))
	}
	if r.Interval != "" && !r.Interval.IsValid() {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"unsupported interval", nil).WithContext("interval", string(r.Interval))
	}
	if r.Window < 0 {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"window must be positive", nil).WithContext("window", strconv.Itoa(r.Window))
	}
	return nil
}

func validateCode(code string) error {
	if len(code) != 3 || strings.ToUpper(code) != code {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"currency code must be a 3-letter uppercase ISO code", nil).
			WithContext("code", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
				"currency code must be a 3-letter uppercase ISO code", nil).
				WithContext("code", code)
		}
	}
	return nil
}

func emptyData(req HistoryRequest) error {
	return apperrors.NewAppError(apperrors.ErrCodeEmptyData,
		"no data available for the requested range", nil).
		WithContext("pair", req.Base+req.Quote)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
