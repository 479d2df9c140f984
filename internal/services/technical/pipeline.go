package technical

import (
	"fmt"

	"TechPulse/internal/domain/models"
	"TechPulse/internal/services/indicators"
)

// step pairs a calculator with its classifier.
type step struct {
	name     string
	calc     func(prices []float64) (float64, error)
	classify func(current, value float64) (models.Signal, error)
}

func (p Periods) steps() []step {
	rsiClassify := func(_ float64, v float64) (models.Signal, error) { return indicators.RSISignal(v), nil }
	period := func(fn func([]float64, int) (float64, error), n int) func([]float64) (float64, error) {
		return func(prices []float64) (float64, error) { return fn(prices, n) }
	}
	return []step{
		{rsiName(p.RSI), period(indicators.RSI, p.RSI), rsiClassify},
		{smaName(p.SMAShort), period(indicators.SMA, p.SMAShort), indicators.SMASignal},
		{smaName(p.SMALong), period(indicators.SMA, p.SMALong), indicators.SMASignal},
		{emaName(p.EMAFast), period(indicators.EMA, p.EMAFast), indicators.EMASignal},
		{emaName(p.EMASlow), period(indicators.EMA, p.EMASlow), indicators.EMASignal},
	}
}

// AnalyzeTechnicals runs the default pipeline: RSI(14), SMA(20), SMA(50),
// EMA(12), EMA(26), in that order.
func AnalyzeTechnicals(prices []float64, currentPrice float64) (models.IndicatorSet, error) {
	return AnalyzeWithPeriods(prices, currentPrice, DefaultPeriods())
}

// AnalyzeWithPeriods runs the pipeline with custom periods. Short series are
// handled by each calculator's fallback; an empty series yields a neutral
// call for every indicator. Either the full set is returned or an error,
// never a partial set.
func AnalyzeWithPeriods(prices []float64, currentPrice float64, p Periods) (models.IndicatorSet, error) {
	steps := p.steps()
	out := make(models.IndicatorSet, 0, len(steps))
	for _, s := range steps {
		v, err := s.calc(prices)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		if len(prices) == 0 {
			// The zero average is a fallback, not a price; there is nothing to deviate from.
			out = append(out, models.Indicator{Name: s.name, Value: v, Signal: models.SignalNeutral})
			continue
		}
		sig, err := s.classify(currentPrice, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		out = append(out, models.Indicator{Name: s.name, Value: v, Signal: sig})
	}
	return out, nil
}

// Run produces the complete report for one series: indicators, aggregate call
// and summary text.
func Run(prices []float64, currentPrice float64, p Periods) (models.TechnicalReport, error) {
	set, err := AnalyzeWithPeriods(prices, currentPrice, p)
	if err != nil {
		return models.TechnicalReport{}, err
	}
	agg := Aggregate(set)
	return models.TechnicalReport{
		Indicators: set,
		Sentiment:  agg.Sentiment,
		Confidence: agg.Confidence,
		Summary:    Summarize(set),
	}, nil
}
