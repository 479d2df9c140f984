package indicators

import (
	"fmt"

	"TechPulse/internal/domain/models"
)

// Signal aliases the domain label so callers of this package need not import models.
type Signal = models.Signal

const (
	Bullish = models.SignalBullish
	Bearish = models.SignalBearish
	Neutral = models.SignalNeutral
)

// Classifier thresholds. The bands are percentages of the moving average.
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
	SMABand       = 2.0
	EMABand       = 1.5
)

// deviationSignal classifies current against ref by percentage deviation.
// A zero reference cannot produce a finite deviation and is rejected.
func deviationSignal(current, ref, band float64) (Signal, error) {
	if err := ValidatePrice(current); err != nil {
		return Neutral, fmt.Errorf("current price: %w", err)
	}
	if ref == 0 {
		return Neutral, ErrZeroReference
	}
	if err := ValidatePrice(ref); err != nil {
		return Neutral, fmt.Errorf("reference: %w", err)
	}

	d, err := Deviation(current, ref)
	if err != nil {
		return Neutral, err
	}
	switch {
	case d > band:
		return Bullish, nil
	case d < -band:
		return Bearish, nil
	default:
		return Neutral, nil
	}
}

// Deviation returns the percentage distance of current from ref.
func Deviation(current, ref float64) (float64, error) {
	if ref == 0 {
		return 0, ErrZeroReference
	}
	return checkFinite((current - ref) / ref * 100)
}
