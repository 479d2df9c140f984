package models

// Signal is the three-way directional label attached to an indicator and to
// the aggregate call.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// Valid reports whether s is one of the three known labels.
func (s Signal) Valid() bool {
	switch s {
	case SignalBullish, SignalBearish, SignalNeutral:
		return true
	default:
		return false
	}
}

func (s Signal) String() string { return string(s) }

// Indicator is a single computed metric together with its classification.
// Name carries the metric and parameter, e.g. "RSI(14)".
type Indicator struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Signal Signal  `json:"signal"`
}

// IndicatorSet is ordered by evaluation order; the summary relies on it.
type IndicatorSet []Indicator

// Count returns how many indicators carry the given signal.
func (s IndicatorSet) Count(sig Signal) int {
	n := 0
	for _, ind := range s {
		if ind.Signal == sig {
			n++
		}
	}
	return n
}

// AggregateResult is the overall call derived from an IndicatorSet.
type AggregateResult struct {
	Sentiment  Signal  `json:"sentiment"`
	Confidence float64 `json:"confidence"` // 0.0 ~ 1.0
}

// TechnicalReport is the full output of one analysis run.
type TechnicalReport struct {
	Indicators IndicatorSet `json:"indicators"`
	Sentiment  Signal       `json:"sentiment"`
	Confidence float64      `json:"confidence"`
	Summary    string       `json:"summary"`
}
