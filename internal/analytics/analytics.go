// Package analytics implements the derived statistics behind the dashboard:
// currency conversion, floor-trader pivot levels, close-price volatility and
// chart series shaping. Every function is a pure transformation of its
// inputs; network fetching and caching live in the provider and cache
// packages.
package analytics

import (
	"math"

	"fxdash/internal/errors"
	"fxdash/internal/market"
)

// Convert applies an exchange rate to an amount. The amount must be
// non-negative and the rate strictly positive; both must be finite.
func Convert(amount, rate float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, errors.NewAppErrorWithDetails(errors.ErrCodeInvalidInput,
			"conversion inputs must be finite", "", nil)
	}
	if amount < 0 {
		return 0, errors.NewAppErrorWithDetails(errors.ErrCodeInvalidInput,
			"amount must be non-negative", "", nil).WithContext("amount", amount)
	}
	if rate <= 0 {
		return 0, errors.NewAppErrorWithDetails(errors.ErrCodeInvalidInput,
			"rate must be positive", "", nil).WithContext("rate", rate)
	}
	return amount * rate, nil
}

// ComputePivotLevels derives standard floor-trader pivot levels from one
// complete OHLC record. The record must satisfy high >= low.
//
// With P = (H+L+C)/3 the levels always order as
// s3 <= s2 <= s1 <= P <= r1 <= r2 <= r3.
func ComputePivotLevels(rec market.Candle) (PivotLevels, error) {
	if rec.High < rec.Low {
		return PivotLevels{}, errors.NewAppErrorWithDetails(errors.ErrCodeInvalidInput,
			"high must be >= low", "", nil).
			WithContext("high", rec.High).
			WithContext("low", rec.Low)
	}

	pivot := (rec.High + rec.Low + rec.Close) / 3
	return PivotLevels{
		Pivot: pivot,
		R1:    2*pivot - rec.Low,
		S1:    2*pivot - rec.High,
		R2:    pivot + (rec.High - rec.Low),
		S2:    pivot - (rec.High - rec.Low),
		R3:    rec.High + 2*(pivot-rec.Low),
		S3:    rec.Low - 2*(rec.High-pivot),
	}, nil
}

// ComputeVolatility returns the population standard deviation of close
// prices over the last min(window, len(candles)) records. Windows that
// select fewer than 2 records yield 0.
func ComputeVolatility(candles []market.Candle, window int) float64 {
	selected := market.Tail(candles, window)
	n := len(selected)
	if n < 2 {
		return 0
	}

	mean := 0.0
	for _, c := range selected {
		mean += c.Close
	}
	mean /= float64(n)

	variance := 0.0
	for _, c := range selected {
		diff := c.Close - mean
		variance += diff * diff
	}
	variance /= float64(n)
	return math.Sqrt(variance)
}

// annualization uses 252 trading days, matching the convention for daily FX bars.
const tradingDaysPerYear = 252

// ComputeLogReturnVolatility returns the annualized historical volatility in
// percent: the standard deviation of log returns of close prices over the
// last `window` returns, scaled by sqrt(252)*100. Fewer than 2 usable
// returns yield 0. Candles with non-positive closes produce no return.
func ComputeLogReturnVolatility(candles []market.Candle, window int) float64 {
	returns := make([]float64, 0, len(candles))
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Close, candles[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if window > 0 && len(returns) > window {
		returns = returns[len(returns)-window:]
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear) * 100
}

// PrepareChartSeries reshapes candles into chart coordinates and, when pivot
// levels are provided, attaches them as constant horizontal overlay lines.
// An empty input produces an empty series, not an error.
func PrepareChartSeries(candles []market.Candle, levels *PivotLevels) ChartSeries {
	series := ChartSeries{
		Points: make([]FinancialPoint, 0, len(candles)),
	}
	for _, c := range candles {
		series.Points = append(series.Points, toFinancialPoint(c))
	}

	if levels != nil {
		series.Overlays = []OverlayLine{
			{Label: "pivot", Value: levels.Pivot},
			{Label: "r1", Value: levels.R1},
			{Label: "r2", Value: levels.R2},
			{Label: "r3", Value: levels.R3},
			{Label: "s1", Value: levels.S1},
			{Label: "s2", Value: levels.S2},
			{Label: "s3", Value: levels.S3},
		}
	}
	return series
}
