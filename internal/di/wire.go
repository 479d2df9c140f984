//go:build wireinject
// +build wireinject

package di

import (
	"TechPulse/internal/domain/repository"
	"TechPulse/pkg/config"
	"TechPulse/pkg/metrics"
	"TechPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideStreamHub,

		// Repositories
		ProvideResultCache,
		ProvideAnalysisStore,
		ProvideAnalysisRecorder,
		ProvideAnalysisHistory,
		ProvideEventPublishers,

		// Use cases
		ProvideAnalysisUseCase,
		ProvideKafkaRequestsHandler,

		// Transport and application server
		ProvideAnalysisHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
