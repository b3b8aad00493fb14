// Package provider defines the boundary to the external exchange-rate data
// source. Implementations perform all network I/O, apply timeouts and
// validate payload shape so downstream consumers can assume well-formed,
// ascending, deduplicated records.
package provider

import (
	"context"
	"time"

	"fxdash/internal/market"
)

// RateProvider fetches currency metadata, live rates and historical OHLC
// series. Failures surface as AppErrors with a FETCH_* code; an empty OHLC
// range is a valid result, not an error.
type RateProvider interface {
	FetchCurrencyList(ctx context.Context) ([]market.Currency, error)
	FetchLiveRate(ctx context.Context, base, quote string) (float64, error)
	FetchOHLC(ctx context.Context, base, quote string, start, end time.Time, interval market.Interval) ([]market.Candle, error)
}
