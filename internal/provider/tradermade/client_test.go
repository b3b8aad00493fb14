package tradermade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fxdash/internal/errors"
	"fxdash/internal/market"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(&Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, nil)
	// Tests should not sit in backoff sleeps.
	client.retry.InitialWait = time.Millisecond
	client.retry.MaxWait = 5 * time.Millisecond
	return client, srv
}

func TestFetchCurrencyList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/live_currencies_list", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"available_currencies":{"USD":"US Dollar","EUR":"Euro","GBP":"British Pound"}}`))
	}))

	currencies, err := client.FetchCurrencyList(context.Background())
	require.NoError(t, err)
	require.Len(t, currencies, 3)

	// Sorted by code.
	assert.Equal(t, "EUR", currencies[0].Code)
	assert.Equal(t, "GBP", currencies[1].Code)
	assert.Equal(t, "USD", currencies[2].Code)
	assert.Equal(t, "Euro", currencies[0].Description)
}

func TestFetchCurrencyListMissingKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":true}`))
	}))

	_, err := client.FetchCurrencyList(context.Background())
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeMalformedPayload, appErr.Code)
}

func TestFetchLiveRate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convert", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("from"))
		assert.Equal(t, "USD", r.URL.Query().Get("to"))
		w.Write([]byte(`{"total":1.0842,"quote":1.0842}`))
	}))

	rate, err := client.FetchLiveRate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 1.0842, rate, 1e-9)
}

func TestFetchLiveRateNonPositive(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":0,"quote":0}`))
	}))

	_, err := client.FetchLiveRate(context.Background(), "EUR", "USD")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMalformedPayload, apperrors.GetAppError(err).Code)
}

func TestFetchOHLC(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeseries", r.URL.Path)
		assert.Equal(t, "EURUSD", r.URL.Query().Get("currency"))
		assert.Equal(t, "records", r.URL.Query().Get("format"))
		assert.Equal(t, "daily", r.URL.Query().Get("interval"))
		// Out of order with one duplicate and one incomplete row.
		w.Write([]byte(`{"quotes":[
			{"date":"2025-06-03","open":1.09,"high":1.10,"low":1.08,"close":1.095},
			{"date":"2025-06-01","open":1.08,"high":1.09,"low":1.07,"close":1.085},
			{"date":"2025-06-02","open":1.085,"high":1.095,"low":1.08,"close":1.09},
			{"date":"2025-06-02","open":1.086,"high":1.096,"low":1.081,"close":1.091},
			{"date":"2025-06-04","open":1.095,"high":null,"low":1.09,"close":1.10}
		]}`))
	}))

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	candles, err := client.FetchOHLC(context.Background(), "EUR", "USD", start, end, market.Interval1d)
	require.NoError(t, err)

	// Incomplete row dropped, duplicate collapsed, order ascending.
	require.Len(t, candles, 3)
	assert.True(t, market.IsAscending(candles))
	assert.Equal(t, start, candles[0].Timestamp)
	assert.InDelta(t, 1.091, candles[1].Close, 1e-9) // later duplicate wins
}

func TestFetchOHLCEmptyRange(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quotes":[]}`))
	}))

	candles, err := client.FetchOHLC(context.Background(), "EUR", "USD",
		time.Now().AddDate(0, 0, -1), time.Now(), market.Interval1d)
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestFetchOHLCHourlyParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hourly", r.URL.Query().Get("interval"))
		assert.Equal(t, "4", r.URL.Query().Get("period"))
		w.Write([]byte(`{"quotes":[]}`))
	}))

	_, err := client.FetchOHLC(context.Background(), "EUR", "USD",
		time.Now().AddDate(0, 0, -1), time.Now(), market.Interval4h)
	require.NoError(t, err)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"total":1.1,"quote":1.1}`))
	}))

	rate, err := client.FetchLiveRate(context.Background(), "EUR", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 1.1, rate, 1e-9)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.FetchLiveRate(context.Background(), "EUR", "USD")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeFetchFailed, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus())
}

func TestMalformedJSONPayload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quotes": not-json`))
	}))

	_, err := client.FetchOHLC(context.Background(), "EUR", "USD",
		time.Now().AddDate(0, 0, -1), time.Now(), market.Interval1d)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMalformedPayload, apperrors.GetAppError(err).Code)
}
