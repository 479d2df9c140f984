package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"empty", nil, 12, 0},
		{"fallback to last", []float64{1, 2, 3}, 5, 3},
		{"seeded then smoothed", []float64{1, 2, 3, 4, 5}, 3, 4},
		{"single step", []float64{10, 10, 10, 20}, 3, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EMA(tt.prices, tt.period)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEMA_SeedEqualsSMAWhenLengthEqualsPeriod(t *testing.T) {
	prices := []float64{101.5, 99.25, 103, 104.75, 98, 100.5}
	ema, err := EMA(prices, len(prices))
	require.NoError(t, err)
	sma, err := SMA(prices, len(prices))
	require.NoError(t, err)
	assert.InDelta(t, sma, ema, 1e-12)
}

func TestEMA_InvalidPeriod(t *testing.T) {
	_, err := EMA([]float64{1, 2}, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestEMASignal(t *testing.T) {
	tests := []struct {
		current, ema float64
		want         Signal
	}{
		{101.6, 100, Bullish},
		{101.4, 100, Neutral},
		{98.6, 100, Neutral},
		{98.4, 100, Bearish},
	}
	for _, tt := range tests {
		got, err := EMASignal(tt.current, tt.ema)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "current=%v ema=%v", tt.current, tt.ema)
	}

	_, err := EMASignal(100, 0)
	require.ErrorIs(t, err, ErrZeroReference)
}

// Short series must always fall back, for every period.
func TestFallbacks_NeverFailForShortSeries(t *testing.T) {
	for period := 1; period <= 60; period++ {
		for n := 0; n < period; n++ {
			prices := make([]float64, n)
			for i := range prices {
				prices[i] = 100 + float64(i)
			}
			want := 0.0
			if n > 0 {
				want = prices[n-1]
			}

			sma, err := SMA(prices, period)
			require.NoError(t, err)
			assert.Equal(t, want, sma)

			ema, err := EMA(prices, period)
			require.NoError(t, err)
			assert.Equal(t, want, ema)

			rsi, err := RSI(prices, period)
			require.NoError(t, err)
			assert.Equal(t, RSINeutral, rsi)
		}
		rsi, err := RSI(repeat(100, period), period)
		require.NoError(t, err)
		assert.Equal(t, RSINeutral, rsi, "len == period must still fall back")
	}
}
