package indicators

// RSINeutral is returned when the series is too short for an RSI.
const RSINeutral = 50.0

// RSI computes the Relative Strength Index over the given period.
//
// Gains and losses are averaged over the first `period` price changes only,
// as a plain arithmetic mean. Later changes do not affect the result.
// Requires at least period+1 prices; returns RSINeutral otherwise.
func RSI(prices []float64, period int) (float64, error) {
	if err := validatePeriod(period); err != nil {
		return 0, err
	}
	if err := ValidatePrices(prices); err != nil {
		return 0, err
	}
	if len(prices) < period+1 {
		return RSINeutral, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return checkFinite(100.0 - 100.0/(1.0+rs))
}

// RSISignal classifies an RSI reading. Low RSI reads as oversold and is
// therefore bullish; high RSI is bearish.
func RSISignal(rsi float64) Signal {
	switch {
	case rsi < RSIOversold:
		return Bullish
	case rsi > RSIOverbought:
		return Bearish
	default:
		return Neutral
	}
}
