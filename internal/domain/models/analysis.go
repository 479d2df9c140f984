package models

import "time"

// Analysis is a completed analysis as seen by the service layer: the report
// plus the request metadata it was produced for.
// Note: no transport (json/http) concerns beyond field tags here.
type Analysis struct {
	ID         string       `json:"id"`
	Symbol     string       `json:"symbol,omitempty"`
	Timeframe  string       `json:"timeframe,omitempty"`
	Indicators IndicatorSet `json:"indicators"`
	Sentiment  Signal       `json:"sentiment"`
	Confidence float64      `json:"confidence"`
	Summary    string       `json:"summary"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// EventAnalysisComplete is the envelope type published once an analysis finishes.
const EventAnalysisComplete = "analysis_complete"

// AnalysisEvent is the envelope used on Kafka and the websocket stream.
type AnalysisEvent struct {
	Type string    `json:"type"`
	Data *Analysis `json:"data"`
}

// BatchItemResult holds either an analysis or the error that prevented it.
type BatchItemResult struct {
	Index    int       `json:"index"`
	Analysis *Analysis `json:"analysis,omitempty"`
	Error    string    `json:"error,omitempty"`
}
