// Package indicators implements the RSI, SMA and EMA calculators over a close
// price series together with the classifiers that turn their output into a
// directional signal.
//
// Every function is pure: inputs are never mutated or retained. Short history
// is not an error; each calculator has a documented fallback value instead.
package indicators

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is the root of every validation failure in this package.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidPeriod  = fmt.Errorf("%w: period must be positive", ErrInvalidArgument)
	ErrInvalidPrice   = fmt.Errorf("%w: price must be finite and non-negative", ErrInvalidArgument)
	ErrZeroReference  = fmt.Errorf("%w: reference price must be non-zero", ErrInvalidArgument)
	ErrNonFiniteValue = fmt.Errorf("%w: computed value is not finite", ErrInvalidArgument)
)

func validatePeriod(period int) error {
	if period <= 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidPeriod, period)
	}
	return nil
}

// ValidatePrice rejects NaN, infinities and negative prices.
func ValidatePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w (got %v)", ErrInvalidPrice, p)
	}
	return nil
}

// ValidatePrices checks every element of a series.
func ValidatePrices(prices []float64) error {
	for i, p := range prices {
		if err := ValidatePrice(p); err != nil {
			return fmt.Errorf("prices[%d]: %w", i, err)
		}
	}
	return nil
}

func checkFinite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFiniteValue
	}
	return v, nil
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
