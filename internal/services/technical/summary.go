package technical

import (
	"strconv"
	"strings"

	"TechPulse/internal/domain/models"
)

// Summarize renders the indicator counts followed by one line per indicator
// in pipeline order. Output does not depend on locale.
func Summarize(set models.IndicatorSet) string {
	var b strings.Builder

	b.WriteString("Technical Analysis Summary:\n")
	b.WriteString("- Bullish Indicators: " + strconv.Itoa(set.Count(models.SignalBullish)) + "\n")
	b.WriteString("- Bearish Indicators: " + strconv.Itoa(set.Count(models.SignalBearish)) + "\n")
	b.WriteString("- Neutral Indicators: " + strconv.Itoa(set.Count(models.SignalNeutral)) + "\n")
	b.WriteString("\nTop Signals:")
	for _, ind := range set {
		b.WriteString("\n- ")
		b.WriteString(ind.Name)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(ind.Value, 'f', 2, 64))
		b.WriteString(" (")
		b.WriteString(string(ind.Signal))
		b.WriteString(")")
	}
	return b.String()
}
