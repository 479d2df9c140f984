package repository

import (
	"context"

	"TechPulse/internal/domain/models"
)

// AnalysisPublisher delivers a completed analysis to downstream consumers.
type AnalysisPublisher interface {
	PublishAnalysis(ctx context.Context, a *models.Analysis) error
}

// EventPublishers is the set of publishers notified after every analysis.
type EventPublishers []AnalysisPublisher

// AnalysisRecorder persists completed analyses.
type AnalysisRecorder interface {
	RecordAnalysis(ctx context.Context, a *models.Analysis) error
	Close() error
}

// ResultCache stores analyses by the fingerprint of their input.
// A miss is (nil, nil).
type ResultCache interface {
	Get(ctx context.Context, key string) (*models.Analysis, error)
	Set(ctx context.Context, key string, a *models.Analysis) error
}

type Metrics interface {
	RecordAnalysis(source, sentiment string, confidence, seconds float64)
	RecordError(kind string)
	RecordCache(hit bool)
	SetStreamClients(n int)
}

// AnalysisHistory reads back recorded analyses.
type AnalysisHistory interface {
	Recent(ctx context.Context, symbol string, limit int) ([]*models.Analysis, error)
}
