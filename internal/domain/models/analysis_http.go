package models

// Requests for analysis endpoints. Defined in domain so the HTTP handler and the
// Kafka request consumer share one shape.

// PeriodsRequest overrides indicator periods. Zero fields fall back to the
// configured defaults.
type PeriodsRequest struct {
	RSI      int `json:"rsi" validate:"omitempty,gte=1,lte=500"`
	SMAShort int `json:"smaShort" validate:"omitempty,gte=1,lte=500"`
	SMALong  int `json:"smaLong" validate:"omitempty,gte=1,lte=500"`
	EMAFast  int `json:"emaFast" validate:"omitempty,gte=1,lte=500"`
	EMASlow  int `json:"emaSlow" validate:"omitempty,gte=1,lte=500"`
}

type AnalysisRequest struct {
	Symbol           string          `json:"symbol" validate:"omitempty,max=32"`
	Timeframe        string          `json:"timeframe" default:"1d" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d 1w"`
	HistoricalPrices []float64       `json:"historicalPrices" validate:"required,min=1,max=10000,dive,gte=0"`
	CurrentPrice     float64         `json:"currentPrice" validate:"gte=0"`
	Periods          *PeriodsRequest `json:"periods,omitempty"`
}

type BatchAnalysisRequest struct {
	Items []AnalysisRequest `json:"items" validate:"required,min=1,max=50,dive"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" validate:"required,max=32"`
	Limit  int    `query:"limit" default:"20" validate:"gte=1,lte=500"`
}
