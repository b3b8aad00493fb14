package market

import (
	"sort"
	"time"
)

// Interval represents a candlestick interval
type Interval string

const (
	Interval1h Interval = "1h"
	Interval4h Interval = "4h"
	Interval1d Interval = "1d"
	Interval1w Interval = "1w"
)

// ValidIntervals lists the intervals the timeseries endpoint accepts.
var ValidIntervals = []Interval{Interval1h, Interval4h, Interval1d, Interval1w}

// IsValid reports whether the interval is one the provider supports.
func (i Interval) IsValid() bool {
	for _, v := range ValidIntervals {
		if i == v {
			return true
		}
	}
	return false
}

// Candle represents one OHLC record of a currency pair
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// Currency represents an available currency
type Currency struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Pair represents a base/quote currency pair
type Pair struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// Symbol returns the concatenated pair symbol the provider expects, e.g. "EURUSD".
func (p Pair) Symbol() string {
	return p.Base + p.Quote
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// IsAscending reports whether candles are strictly ordered by timestamp.
func IsAscending(candles []Candle) bool {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Timestamp.After(candles[i-1].Timestamp) {
			return false
		}
	}
	return true
}

// Tail returns the last n candles without copying. It returns the whole
// slice when n exceeds its length.
func Tail(candles []Candle, n int) []Candle {
	if n <= 0 {
		return nil
	}
	if n >= len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}

// SortAscending sorts candles by timestamp in place and removes duplicate
// timestamps, keeping the last occurrence.
func SortAscending(candles []Candle) []Candle {
	if len(candles) < 2 {
		return candles
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	out := candles[:1]
	for _, c := range candles[1:] {
		if c.Timestamp.Equal(out[len(out)-1].Timestamp) {
			out[len(out)-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
