package indicators

// EMA returns the exponential moving average after walking the whole series.
// The average is seeded with the mean of the first `period` prices. An empty
// series yields 0 and a series shorter than `period` yields its last price.
func EMA(prices []float64, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}
	if err := ValidatePrices(prices); err != nil {
		return 0, err
	}
	if len(prices) < period {
		return last(prices), nil
	}

	multiplier := 2.0 / float64(period+1)
	ema := mean(prices[:period])
	for _, p := range prices[period:] {
		ema = (p-ema)*multiplier + ema
	}
	return checkFinite(ema)
}

// EMASignal classifies the current price against an EMA using a ±1.5% band.
func EMASignal(current, ema float64) (Signal, error) {
	return deviationSignal(current, ema, EMABand)
}
