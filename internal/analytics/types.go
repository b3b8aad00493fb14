package analytics

import (
	"fxdash/internal/market"
)

// PivotLevels holds the floor-trader pivot point and its support and
// resistance levels, derived from one complete OHLC record.
type PivotLevels struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	R3    float64 `json:"r3"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
}

// ConversionResult holds the outcome of a currency conversion
type ConversionResult struct {
	ConvertedAmount float64 `json:"converted_amount"`
	Rate            float64 `json:"rate"`
}

// FinancialPoint is one candlestick point in chart coordinates
type FinancialPoint struct {
	XAxis int64   `json:"x"`
	Open  float64 `json:"o"`
	High  float64 `json:"h"`
	Low   float64 `json:"l"`
	Close float64 `json:"c"`
}

// OverlayLine is a constant horizontal reference line spanning the visible range
type OverlayLine struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSeries is the chart-ready shape handed to the rendering layer:
// candlestick points plus optional pivot overlay lines.
type ChartSeries struct {
	Points   []FinancialPoint `json:"points"`
	Overlays []OverlayLine    `json:"overlays,omitempty"`
}

// Len returns the number of candlestick points in the series.
func (s ChartSeries) Len() int {
	return len(s.Points)
}

func toFinancialPoint(c market.Candle) FinancialPoint {
	return FinancialPoint{
		XAxis: c.Timestamp.UnixMilli(),
		Open:  c.Open,
		High:  c.High,
		Low:   c.Low,
		Close: c.Close,
	}
}
