package technical

import (
	"math"

	"TechPulse/internal/domain/models"
)

// MajorityThreshold is the vote share a direction must exceed to win.
const MajorityThreshold = 0.6

// Aggregate votes the indicator signals into one call.
//
// A direction wins with more than 60% of the votes and its share becomes the
// confidence. Otherwise the call is neutral with confidence
// 1 - |bullish share - bearish share|: an evenly split vote is a confident
// neutral, not a weak one.
func Aggregate(set models.IndicatorSet) models.AggregateResult {
	if len(set) == 0 {
		return models.AggregateResult{Sentiment: models.SignalNeutral, Confidence: 0}
	}

	total := float64(len(set))
	bullish := float64(set.Count(models.SignalBullish)) / total
	bearish := float64(set.Count(models.SignalBearish)) / total

	switch {
	case bullish > MajorityThreshold:
		return models.AggregateResult{Sentiment: models.SignalBullish, Confidence: bullish}
	case bearish > MajorityThreshold:
		return models.AggregateResult{Sentiment: models.SignalBearish, Confidence: bearish}
	default:
		return models.AggregateResult{
			Sentiment:  models.SignalNeutral,
			Confidence: 1 - math.Abs(bullish-bearish),
		}
	}
}
