package technical

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPeriods(t *testing.T) {
	assert.Equal(t, Periods{RSI: 14, SMAShort: 20, SMALong: 50, EMAFast: 12, EMASlow: 26}, DefaultPeriods())

	// The default tags fill only zero fields, like WithDefaults.
	p := Periods{RSI: 7, EMASlow: 30}
	require.NoError(t, defaults.Set(&p))
	assert.Equal(t, Periods{RSI: 7, EMASlow: 30}.WithDefaults(DefaultPeriods()), p)
}

func TestPeriods_Names(t *testing.T) {
	assert.Equal(t, "RSI(14)", rsiName(14))
	assert.Equal(t, "SMA(20)", smaName(20))
	assert.Equal(t, "EMA(26)", emaName(26))
}
