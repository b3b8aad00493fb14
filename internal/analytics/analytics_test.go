package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxdash/internal/errors"
	"fxdash/internal/market"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, 0, len(closes))
	for i, c := range closes {
		candles = append(candles, market.Candle{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
		})
	}
	return candles
}

func TestConvert(t *testing.T) {
	got, err := Convert(250, 1.0842)
	require.NoError(t, err)
	assert.InDelta(t, 250*1.0842, got, 1e-12)

	got, err = Convert(0, 1.0842)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestConvertInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		rate   float64
	}{
		{"negative amount", -1, 1.1},
		{"zero rate", 100, 0},
		{"negative rate", 100, -0.5},
		{"nan amount", math.NaN(), 1.1},
		{"inf rate", 100, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.amount, tt.rate)
			require.Error(t, err)
			appErr := errors.GetAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, errors.ErrCodeInvalidInput, appErr.Code)
		})
	}
}

func TestComputePivotLevelsExample(t *testing.T) {
	levels, err := ComputePivotLevels(market.Candle{High: 110, Low: 90, Close: 100})
	require.NoError(t, err)

	assert.InDelta(t, 100, levels.Pivot, 1e-9)
	assert.InDelta(t, 110, levels.R1, 1e-9)
	assert.InDelta(t, 90, levels.S1, 1e-9)
	assert.InDelta(t, 120, levels.R2, 1e-9)
	assert.InDelta(t, 80, levels.S2, 1e-9)
	assert.InDelta(t, 130, levels.R3, 1e-9)
	assert.InDelta(t, 70, levels.S3, 1e-9)
}

func TestComputePivotLevelsOrdering(t *testing.T) {
	// Ordering must hold whenever high >= low, including skewed bars.
	records := []market.Candle{
		{High: 1.1050, Low: 1.0920, Close: 1.1048},
		{High: 1.1050, Low: 1.0920, Close: 1.0921},
		{High: 187.42, Low: 186.90, Close: 187.11},
		{High: 5, Low: 5, Close: 5},
		{High: 0.0075, Low: 0.0071, Close: 0.0073},
	}

	for _, rec := range records {
		levels, err := ComputePivotLevels(rec)
		require.NoError(t, err)

		assert.LessOrEqual(t, levels.S3, levels.S2)
		assert.LessOrEqual(t, levels.S2, levels.S1)
		assert.LessOrEqual(t, levels.S1, levels.Pivot)
		assert.LessOrEqual(t, levels.Pivot, levels.R1)
		assert.LessOrEqual(t, levels.R1, levels.R2)
		assert.LessOrEqual(t, levels.R2, levels.R3)
	}
}

func TestComputePivotLevelsInvertedBar(t *testing.T) {
	_, err := ComputePivotLevels(market.Candle{High: 1.0, Low: 2.0, Close: 1.5})
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeInvalidInput, appErr.Code)
}

func TestComputeVolatilityExample(t *testing.T) {
	candles := candlesFromCloses(100, 102, 98, 101)
	got := ComputeVolatility(candles, 4)

	// Population stdev of [100, 102, 98, 101].
	assert.InDelta(t, 1.479019945774904, got, 1e-9)
}

func TestComputeVolatilityShortWindows(t *testing.T) {
	assert.Zero(t, ComputeVolatility(nil, 10))
	assert.Zero(t, ComputeVolatility(candlesFromCloses(100), 10))
	assert.Zero(t, ComputeVolatility(candlesFromCloses(100, 102, 98), 1))
}

func TestComputeVolatilityIgnoresRecordsOutsideWindow(t *testing.T) {
	tail := []float64{100, 102, 98, 101}

	a := candlesFromCloses(append([]float64{500, 1, 250}, tail...)...)
	b := candlesFromCloses(append([]float64{3, 999, 42}, tail...)...)

	assert.Equal(t, ComputeVolatility(a, 4), ComputeVolatility(b, 4))
}

func TestComputeVolatilityWindowLargerThanSeries(t *testing.T) {
	candles := candlesFromCloses(100, 102, 98, 101)
	assert.Equal(t, ComputeVolatility(candles, 4), ComputeVolatility(candles, 400))
}

func TestComputeLogReturnVolatility(t *testing.T) {
	candles := candlesFromCloses(100, 102, 98, 101, 103, 99)

	got := ComputeLogReturnVolatility(candles, 20)
	assert.Greater(t, got, 0.0)

	// Constant closes have zero volatility.
	flat := candlesFromCloses(100, 100, 100, 100)
	assert.Zero(t, ComputeLogReturnVolatility(flat, 20))

	// Too few returns.
	assert.Zero(t, ComputeLogReturnVolatility(candlesFromCloses(100, 102), 20))
}

func TestPrepareChartSeries(t *testing.T) {
	candles := candlesFromCloses(100, 102, 98)
	levels, err := ComputePivotLevels(candles[len(candles)-1])
	require.NoError(t, err)

	series := PrepareChartSeries(candles, &levels)
	require.Equal(t, 3, series.Len())
	require.Len(t, series.Overlays, 7)

	assert.Equal(t, candles[0].Timestamp.UnixMilli(), series.Points[0].XAxis)
	assert.Equal(t, candles[0].Open, series.Points[0].Open)
	assert.Equal(t, candles[2].Close, series.Points[2].Close)

	byLabel := map[string]float64{}
	for _, o := range series.Overlays {
		byLabel[o.Label] = o.Value
	}
	assert.Equal(t, levels.Pivot, byLabel["pivot"])
	assert.Equal(t, levels.R3, byLabel["r3"])
	assert.Equal(t, levels.S3, byLabel["s3"])
}

func TestPrepareChartSeriesWithoutOverlays(t *testing.T) {
	series := PrepareChartSeries(candlesFromCloses(100, 101), nil)
	assert.Equal(t, 2, series.Len())
	assert.Empty(t, series.Overlays)
}

func TestPrepareChartSeriesEmptyInput(t *testing.T) {
	series := PrepareChartSeries(nil, nil)
	assert.Zero(t, series.Len())
	assert.NotNil(t, series.Points)
}
