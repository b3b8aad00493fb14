package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func candleAt(day int, close float64) Candle {
	return Candle{
		Timestamp: time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
		Open:      close,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
	}
}

func TestIntervalIsValid(t *testing.T) {
	assert.True(t, Interval1d.IsValid())
	assert.True(t, Interval4h.IsValid())
	assert.False(t, Interval("15m").IsValid())
	assert.False(t, Interval("").IsValid())
}

func TestPairSymbol(t *testing.T) {
	p := Pair{Base: "EUR", Quote: "USD"}
	assert.Equal(t, "EURUSD", p.Symbol())
	assert.Equal(t, "EUR/USD", p.String())
}

func TestIsAscending(t *testing.T) {
	assert.True(t, IsAscending(nil))
	assert.True(t, IsAscending([]Candle{candleAt(1, 1)}))
	assert.True(t, IsAscending([]Candle{candleAt(1, 1), candleAt(2, 1), candleAt(3, 1)}))
	assert.False(t, IsAscending([]Candle{candleAt(2, 1), candleAt(1, 1)}))
	assert.False(t, IsAscending([]Candle{candleAt(1, 1), candleAt(1, 2)}))
}

func TestTail(t *testing.T) {
	candles := []Candle{candleAt(1, 1), candleAt(2, 2), candleAt(3, 3)}

	assert.Len(t, Tail(candles, 2), 2)
	assert.Equal(t, 2.0, Tail(candles, 2)[0].Close)
	assert.Len(t, Tail(candles, 10), 3)
	assert.Nil(t, Tail(candles, 0))
	assert.Nil(t, Tail(candles, -1))
}

func TestSortAscendingDedupes(t *testing.T) {
	dup := candleAt(2, 99)
	candles := []Candle{candleAt(3, 3), candleAt(1, 1), candleAt(2, 2), dup}

	sorted := SortAscending(candles)
	assert.Len(t, sorted, 3)
	assert.True(t, IsAscending(sorted))
	// Last occurrence of a duplicate timestamp wins.
	assert.Equal(t, 99.0, sorted[1].Close)
}
