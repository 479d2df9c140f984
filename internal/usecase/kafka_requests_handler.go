package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"TechPulse/internal/domain/models"
	"TechPulse/internal/services/indicators"
	xhttp "TechPulse/pkg/http"
	pkgkafka "TechPulse/pkg/kafka"
)

// KafkaRequestsHandler consumes analysis requests from Kafka. Results leave
// through the usecase's publishers like any other analysis.
type KafkaRequestsHandler struct {
	topic string
	uc    *AnalysisUseCase
}

func NewKafkaRequestsHandler(topic string, uc *AnalysisUseCase) *KafkaRequestsHandler {
	return &KafkaRequestsHandler{topic: topic, uc: uc}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// incoming message schema: models.AnalysisRequest as JSON.
// Bad input is permanent so the consumer dead-letters it instead of retrying.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.uc.recordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode analysis request: %w", err))
	}
	if verrs := xhttp.ValidateRequest(ctx, &req); verrs != nil {
		h.uc.recordError("consumer_validation")
		return pkgkafka.Permanent(verrs)
	}

	if _, err := h.uc.Analyze(ctx, SourceKafka, req); err != nil {
		if errors.Is(err, indicators.ErrInvalidArgument) {
			return pkgkafka.Permanent(err)
		}
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
