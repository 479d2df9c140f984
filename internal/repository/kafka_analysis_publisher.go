package repository

import (
	"context"
	"errors"

	"TechPulse/internal/domain/models"
	pkgkafka "TechPulse/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaAnalysisPublisher publishes analysis_complete events keyed by symbol,
// so one symbol's events stay ordered within a partition.
type KafkaAnalysisPublisher struct {
	producer producer
	topic    string
}

// NewKafkaAnalysisPublisher creates the publisher. A nil producer yields nil,
// meaning event publication is disabled.
func NewKafkaAnalysisPublisher(p *pkgkafka.Producer, topic string) *KafkaAnalysisPublisher {
	if p == nil {
		return nil
	}
	return &KafkaAnalysisPublisher{producer: p, topic: topic}
}

func (p *KafkaAnalysisPublisher) PublishAnalysis(ctx context.Context, a *models.Analysis) error {
	if a == nil {
		return errors.New("nil analysis")
	}
	key := a.Symbol
	if key == "" {
		key = a.ID
	}
	return p.producer.Publish(ctx, p.topic, []byte(key), models.AnalysisEvent{
		Type: models.EventAnalysisComplete,
		Data: a,
	})
}

func (p *KafkaAnalysisPublisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
