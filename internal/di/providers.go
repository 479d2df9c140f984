package di

import (
	"context"
	"fmt"
	"time"

	"TechPulse/internal/domain/repository"
	"TechPulse/internal/handler/api"
	internalrepo "TechPulse/internal/repository"
	"TechPulse/internal/service/ratelimit"
	"TechPulse/internal/service/stream"
	"TechPulse/internal/services/technical"
	"TechPulse/internal/usecase"
	"TechPulse/pkg/cache"
	pkgch "TechPulse/pkg/clickhouse"
	"TechPulse/pkg/config"
	xhttp "TechPulse/pkg/http"
	pkgkafka "TechPulse/pkg/kafka"
	applogger "TechPulse/pkg/logger"
	"TechPulse/pkg/metrics"
	"TechPulse/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Optional components are returned as nil when their config section is
// empty. Interface-typed providers must return an untyped nil in that case.

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry shared by every component.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideCache builds the cache backend selected by cache.type.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	c := cfg.Cache
	newMemory := func(ttl time.Duration) *cache.MemoryCache {
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(c.Memory.MaxEntries),
			cache.WithMemoryCleanup(c.Memory.CleanupInterval),
			cache.WithMemoryDefaultTTL(ttl),
		)
	}
	newRedis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(c.Redis.Addr),
			cache.WithRedisPassword(c.Redis.Password),
			cache.WithRedisDB(c.Redis.DB),
			cache.WithRedisPool(c.Redis.PoolSize, 2, 30*time.Second),
			cache.WithRedisPrefix(c.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch c.Type {
	case cache.TypeMemory:
		return newMemory(c.TTL), nil
	case cache.TypeRedis:
		rc, err := newRedis()
		if err != nil {
			return nil, err
		}
		return rc, nil
	case cache.TypeLayered:
		rc, err := newRedis()
		if err != nil {
			return nil, err
		}
		return cache.NewLayeredCache(newMemory(c.Memory.LocalTTL), rc, c.Memory.LocalTTL), nil
	default:
		return nil, nil
	}
}

// ProvideResultCache stores analyses in the configured cache backend.
func ProvideResultCache(svc cache.Service, cfg *config.Config) repository.ResultCache {
	if svc == nil {
		return nil
	}
	return internalrepo.NewAnalysisCache(svc, cfg.Cache.TTL)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// analyses table exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouseEnabled() {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.AnalysisSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideAnalysisStore creates the ClickHouse analysis sink.
func ProvideAnalysisStore(ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHAnalysisStore {
	return internalrepo.NewCHAnalysisStore(ch, l)
}

func ProvideAnalysisRecorder(s *internalrepo.CHAnalysisStore) repository.AnalysisRecorder {
	if s == nil {
		return nil
	}
	return s
}

func ProvideAnalysisHistory(s *internalrepo.CHAnalysisStore) repository.AnalysisHistory {
	if s == nil {
		return nil
	}
	return s
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.KafkaEnabled() {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerMetrics(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the analysis request consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerMetrics(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideStreamHub creates the websocket hub when streaming is enabled.
func ProvideStreamHub(cfg *config.Config, l *applogger.Logger, m *metrics.Recorder) *stream.Hub {
	if !cfg.Stream.Enabled {
		return nil
	}
	var gauge stream.ClientGauge
	if m != nil {
		gauge = m
	}
	return stream.NewHub(stream.Config{
		SendBuffer:     cfg.Stream.SendBuffer,
		WriteWait:      cfg.Stream.WriteWait,
		PongWait:       cfg.Stream.PongWait,
		MaxMessageSize: cfg.Stream.MaxMessageSize,
		AllowOrigins:   cfg.Server.CORSOrigins,
	}, l, gauge)
}

// ProvideEventPublishers collects every enabled analysis_complete sink.
func ProvideEventPublishers(producer *pkgkafka.Producer, hub *stream.Hub, cfg *config.Config) repository.EventPublishers {
	var pubs repository.EventPublishers
	if producer != nil {
		pubs = append(pubs, internalrepo.NewKafkaAnalysisPublisher(producer, cfg.Kafka.Topics.Results))
	}
	if hub != nil {
		pubs = append(pubs, hub)
	}
	return pubs
}

// ProvideAnalysisUseCase creates the analysis use case.
func ProvideAnalysisUseCase(
	cfg *config.Config,
	rc repository.ResultCache,
	rec repository.AnalysisRecorder,
	hist repository.AnalysisHistory,
	pubs repository.EventPublishers,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AnalysisUseCase {
	p := cfg.Analysis.Periods
	return usecase.NewAnalysisUseCase(usecase.AnalysisOptions{
		DefaultPeriods: technical.Periods{
			RSI:      p.RSI,
			SMAShort: p.SMAShort,
			SMALong:  p.SMALong,
			EMAFast:  p.EMAFast,
			EMASlow:  p.EMASlow,
		}.WithDefaults(technical.DefaultPeriods()),
		BatchConcurrency: cfg.Analysis.BatchConcurrency,
	}, rc, rec, hist, pubs, m, l)
}

// ProvideKafkaRequestsHandler consumes analysis requests.
func ProvideKafkaRequestsHandler(cfg *config.Config, uc *usecase.AnalysisUseCase) *usecase.KafkaRequestsHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.Topics.Requests, uc)
}

// ProvideAnalysisHandler creates the HTTP handler.
func ProvideAnalysisHandler(cfg *config.Config, l *applogger.Logger, uc *usecase.AnalysisUseCase, hub *stream.Hub) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(l, uc, hub, cfg.Stream.Path)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry, h *api.AnalysisEchoHandler) (*xhttp.Server, error) {
	proxies, err := cfg.TrustedProxyNets()
	if err != nil {
		return nil, err
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithTrustedProxies(proxies...),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	if rl := cfg.Server.RateLimit; rl.RPS > 0 {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(float64(rl.Burst), rl.RPS)))
	}
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...), nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestsHandler,
	producer *pkgkafka.Producer,
	hub *stream.Hub,
	cacheSvc cache.Service,
	ch *pkgch.Client,
) *server.App {
	// Closed in reverse: hub, producer, cache, then clickhouse.
	var res []server.Resource
	if ch != nil {
		res = append(res, server.Resource{Name: "clickhouse", Closer: ch})
	}
	if cacheSvc != nil {
		res = append(res, server.Resource{Name: "cache", Closer: cacheSvc})
	}
	if producer != nil {
		res = append(res, server.Resource{Name: "kafka producer", Closer: producer})
	}
	if hub != nil {
		res = append(res, server.Resource{Name: "stream hub", Closer: hub})
	}

	var handler pkgkafka.MessageHandler
	if consumer != nil {
		handler = kh
	}
	return server.New(l, srv, consumer, handler, cfg.Server.ShutdownTimeout, res...)
}
