// Package technical runs the fixed indicator pipeline over a price series and
// turns the resulting indicator set into an aggregate call and a text summary.
package technical

import (
	"fmt"
	"sync"

	"github.com/creasty/defaults"
)

// Periods selects the look-back window of each indicator in the pipeline.
type Periods struct {
	RSI      int `json:"rsi" default:"14"`
	SMAShort int `json:"smaShort" default:"20"`
	SMALong  int `json:"smaLong" default:"50"`
	EMAFast  int `json:"emaFast" default:"12"`
	EMASlow  int `json:"emaSlow" default:"26"`
}

var defaultPeriods = sync.OnceValue(func() Periods {
	var p Periods
	if err := defaults.Set(&p); err != nil {
		panic(fmt.Sprintf("technical: periods defaults: %v", err))
	}
	return p
})

// DefaultPeriods returns RSI(14), SMA(20), SMA(50), EMA(12), EMA(26), as
// declared by the default tags on Periods.
func DefaultPeriods() Periods {
	return defaultPeriods()
}

// WithDefaults returns p with every zero field taken from base.
func (p Periods) WithDefaults(base Periods) Periods {
	if p.RSI == 0 {
		p.RSI = base.RSI
	}
	if p.SMAShort == 0 {
		p.SMAShort = base.SMAShort
	}
	if p.SMALong == 0 {
		p.SMALong = base.SMALong
	}
	if p.EMAFast == 0 {
		p.EMAFast = base.EMAFast
	}
	if p.EMASlow == 0 {
		p.EMASlow = base.EMASlow
	}
	return p
}

func rsiName(period int) string { return fmt.Sprintf("RSI(%d)", period) }
func smaName(period int) string { return fmt.Sprintf("SMA(%d)", period) }
func emaName(period int) string { return fmt.Sprintf("EMA(%d)", period) }
