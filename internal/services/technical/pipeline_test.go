package technical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TechPulse/internal/domain/models"
	"TechPulse/internal/services/indicators"
)

// risingSeries climbs one unit per tick with a 1.5 pullback every third tick.
func risingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 60 + float64(i)
		if i%3 == 2 {
			out[i] -= 1.5
		}
	}
	return out
}

func TestAnalyzeTechnicals_Order(t *testing.T) {
	set, err := AnalyzeTechnicals(risingSeries(50), 116)
	require.NoError(t, err)

	names := make([]string, 0, len(set))
	for _, ind := range set {
		names = append(names, ind.Name)
	}
	assert.Equal(t, []string{"RSI(14)", "SMA(20)", "SMA(50)", "EMA(12)", "EMA(26)"}, names)
}

func TestAnalyzeTechnicals_RisingTrend(t *testing.T) {
	prices := risingSeries(50)
	set, err := AnalyzeTechnicals(prices, 116)
	require.NoError(t, err)
	require.Len(t, set, 5)

	assert.Greater(t, set[0].Value, 70.0)
	assert.Equal(t, models.SignalBearish, set[0].Signal)
	for _, ind := range set[1:] {
		assert.Less(t, ind.Value, 116.0, ind.Name)
		assert.Equal(t, models.SignalBullish, ind.Signal, ind.Name)
	}

	agg := Aggregate(set)
	assert.Equal(t, models.SignalBullish, agg.Sentiment)
	assert.InDelta(t, 0.8, agg.Confidence, 1e-9)
}

func TestAnalyzeTechnicals_ShortSeries(t *testing.T) {
	// One point: every calculator falls back, RSI to 50 and the averages
	// to the last price.
	set, err := AnalyzeTechnicals([]float64{100}, 100)
	require.NoError(t, err)
	require.Len(t, set, 5)

	assert.Equal(t, indicators.RSINeutral, set[0].Value)
	for _, ind := range set {
		assert.False(t, math.IsNaN(ind.Value))
		assert.Equal(t, models.SignalNeutral, ind.Signal, ind.Name)
	}
	for _, ind := range set[1:] {
		assert.Equal(t, 100.0, ind.Value)
	}
}

func TestAnalyzeTechnicals_EmptySeriesIsNeutral(t *testing.T) {
	for _, prices := range [][]float64{nil, {}} {
		set, err := AnalyzeTechnicals(prices, 100)
		require.NoError(t, err)
		require.Len(t, set, 5)

		assert.Equal(t, indicators.RSINeutral, set[0].Value)
		for _, ind := range set {
			assert.Equal(t, models.SignalNeutral, ind.Signal, ind.Name)
		}
		for _, ind := range set[1:] {
			assert.Equal(t, 0.0, ind.Value, ind.Name)
		}
	}

	rep, err := Run(nil, 100, DefaultPeriods())
	require.NoError(t, err)
	assert.Equal(t, models.SignalNeutral, rep.Sentiment)
}

func TestAnalyzeTechnicals_AllZeroSeriesHasZeroReference(t *testing.T) {
	set, err := AnalyzeTechnicals([]float64{0, 0, 0}, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, indicators.ErrZeroReference)
	assert.ErrorIs(t, err, indicators.ErrInvalidArgument)
	assert.Nil(t, set)
}

func TestAnalyzeTechnicals_InvalidInput(t *testing.T) {
	cases := []struct {
		name    string
		prices  []float64
		current float64
	}{
		{"negative price", []float64{1, 2, -3}, 2},
		{"nan price", []float64{1, math.NaN(), 3}, 2},
		{"infinite current", []float64{1, 2, 3}, math.Inf(1)},
		{"negative current", []float64{1, 2, 3}, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := AnalyzeTechnicals(tc.prices, tc.current)
			require.Error(t, err)
			assert.ErrorIs(t, err, indicators.ErrInvalidArgument)
			assert.Nil(t, set)
		})
	}
}

func TestAnalyzeWithPeriods(t *testing.T) {
	p := Periods{RSI: 2, SMAShort: 2, SMALong: 3, EMAFast: 2, EMASlow: 3}
	set, err := AnalyzeWithPeriods([]float64{1, 2, 3, 4, 5}, 5, p)
	require.NoError(t, err)

	assert.Equal(t, "RSI(2)", set[0].Name)
	assert.Equal(t, "SMA(2)", set[1].Name)
	assert.InDelta(t, 4.5, set[1].Value, 1e-9)
	assert.Equal(t, "SMA(3)", set[2].Name)
	assert.InDelta(t, 4.0, set[2].Value, 1e-9)
	assert.Equal(t, "EMA(3)", set[4].Name)

	_, err = AnalyzeWithPeriods([]float64{1, 2, 3}, 3, Periods{RSI: 0, SMAShort: 2, SMALong: 3, EMAFast: 2, EMASlow: 3})
	assert.ErrorIs(t, err, indicators.ErrInvalidPeriod)
}

func TestPeriods_WithDefaults(t *testing.T) {
	got := Periods{SMAShort: 10}.WithDefaults(DefaultPeriods())
	assert.Equal(t, Periods{RSI: 14, SMAShort: 10, SMALong: 50, EMAFast: 12, EMASlow: 26}, got)
	assert.Equal(t, DefaultPeriods(), Periods{}.WithDefaults(DefaultPeriods()))
}

func TestRun(t *testing.T) {
	report, err := Run(risingSeries(50), 116, DefaultPeriods())
	require.NoError(t, err)

	assert.Len(t, report.Indicators, 5)
	assert.Equal(t, models.SignalBullish, report.Sentiment)
	assert.InDelta(t, 0.8, report.Confidence, 1e-9)
	assert.Equal(t, Summarize(report.Indicators), report.Summary)

	_, err = Run([]float64{-1}, 1, DefaultPeriods())
	assert.ErrorIs(t, err, indicators.ErrInvalidPrice)
}
