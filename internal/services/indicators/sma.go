package indicators

// SMA returns the simple moving average of the last `period` prices.
// With fewer than `period` prices it returns the last price, or 0 for an
// empty series.
func SMA(prices []float64, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}
	if err := ValidatePrices(prices); err != nil {
		return 0, err
	}
	if len(prices) < period {
		return last(prices), nil
	}
	return checkFinite(mean(prices[len(prices)-period:]))
}

// SMASignal classifies the current price against an SMA using a ±2% band.
func SMASignal(current, sma float64) (Signal, error) {
	return deviationSignal(current, sma, SMABand)
}

func last(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	return prices[len(prices)-1]
}
