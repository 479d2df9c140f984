package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	analysesTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	confidence    *prometheus.HistogramVec
	cacheTotal    *prometheus.CounterVec
	streamClients prometheus.Gauge
}

// New creates a Prometheus metrics recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		analysesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_analyses_total",
				Help: "Completed analyses by entry point and sentiment",
			},
			[]string{"source", "sentiment"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "techpulse_analysis_duration_seconds",
				Help:    "Time to compute one analysis",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"source"},
		),
		confidence: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "techpulse_analysis_confidence",
				Help:    "Aggregate confidence of completed analyses",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
			},
			[]string{"sentiment"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techpulse_cache_requests_total",
				Help: "Result cache lookups by outcome",
			},
			[]string{"result"},
		),
		streamClients: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "techpulse_stream_clients",
				Help: "Connected websocket stream clients",
			},
		),
	}
}

// RecordAnalysis records one completed analysis.
func (r *Recorder) RecordAnalysis(source, sentiment string, confidence, seconds float64) {
	r.analysesTotal.WithLabelValues(source, sentiment).Inc()
	r.confidence.WithLabelValues(sentiment).Observe(confidence)
	r.latency.WithLabelValues(source).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCache records a cache hit or miss.
func (r *Recorder) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(result).Inc()
}

// SetStreamClients sets the connected websocket client count.
func (r *Recorder) SetStreamClients(n int) {
	r.streamClients.Set(float64(n))
}
