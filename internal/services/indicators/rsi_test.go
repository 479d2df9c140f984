package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRSI_InsufficientHistory(t *testing.T) {
	for _, prices := range [][]float64{nil, {}, {100}, {1, 2, 3}, repeat(100, 14)} {
		got, err := RSI(prices, 14)
		require.NoError(t, err)
		assert.Equal(t, RSINeutral, got, "len=%d", len(prices))
	}
}

func TestRSI_ConstantSeriesHasNoLosses(t *testing.T) {
	got, err := RSI(repeat(100, 20), 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)
}

func TestRSI_KnownValues(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"balanced", []float64{1, 2, 1}, 2, 50},
		{"mixed", []float64{10, 12, 11, 14}, 3, 100 - 100.0/6},
		{"falling", []float64{5, 4, 3, 2}, 3, 0},
		{"rising", []float64{1, 2, 3, 4, 5, 6}, 5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RSI(tt.prices, tt.period)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRSI_OnlyFirstWindowCounts(t *testing.T) {
	base := []float64{10, 12, 11, 14}
	a, err := RSI(append(append([]float64{}, base...), 0.5, 3), 3)
	require.NoError(t, err)
	b, err := RSI(append(append([]float64{}, base...), 100, 250), 3)
	require.NoError(t, err)
	assert.InDelta(t, a, b, 1e-12)
	assert.InDelta(t, 100-100.0/6, a, 1e-9)
}

func TestRSI_InvalidArguments(t *testing.T) {
	_, err := RSI([]float64{1, 2, 3}, 0)
	require.ErrorIs(t, err, ErrInvalidPeriod)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = RSI([]float64{1, 2, 3}, -5)
	require.ErrorIs(t, err, ErrInvalidPeriod)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		_, err = RSI([]float64{1, bad, 3}, 14)
		require.ErrorIs(t, err, ErrInvalidPrice, "price %v", bad)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestRSISignal(t *testing.T) {
	tests := []struct {
		rsi  float64
		want Signal
	}{
		{0, Bullish},
		{29.99, Bullish},
		{30, Neutral},
		{50, Neutral},
		{70, Neutral},
		{70.01, Bearish},
		{100, Bearish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RSISignal(tt.rsi), "rsi %.2f", tt.rsi)
	}
}
