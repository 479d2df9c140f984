package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	applogger "TechPulse/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// PermanentError marks a handler failure that retrying cannot fix, such as
// an undecodable or invalid payload.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the consumer skips retries for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads registered topics and dispatches messages to a worker pool.
// Every partition is owned by one worker, so messages of a partition are
// handled in offset order. Offsets are committed explicitly once a message
// is handled, dead-lettered or rejected as permanent.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	readers  map[string]messageReader
	handlers map[string]MessageHandler
	dlq      messageWriter
	metrics  *consumerMetrics

	queues    []chan kafka.Message
	stopChan  chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	readersWg sync.WaitGroup
	stopOnce  sync.Once

	newReader func(topic string) messageReader
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(log *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := newConsumer(cfg, log)
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.GroupID,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			StartOffset: kafka.FirstOffset,
		})
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		}
	}
	return c, nil
}

func newConsumer(cfg *ConsumerConfig, log *applogger.Logger) *Consumer {
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}
	c := &Consumer{
		cfg:      cfg,
		log:      log,
		readers:  make(map[string]messageReader),
		handlers: make(map[string]MessageHandler),
		queues:   make([]chan kafka.Message, workers),
		stopChan: make(chan struct{}),
	}
	for i := range c.queues {
		c.queues[i] = make(chan kafka.Message, cfg.BufferSize)
	}
	if cfg.Registerer != nil {
		c.metrics = newConsumerMetrics(cfg.Registerer)
	}
	return c
}

// RegisterHandler registers a message handler for a specific topic.
// Must be called before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka consumer: handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// Start creates one reader per registered topic and starts the workers.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}
	ctx, c.cancel = context.WithCancel(ctx)

	for topic := range c.handlers {
		if _, ok := c.readers[topic]; !ok {
			c.readers[topic] = c.newReader(topic)
		}
		c.log.Info("kafka consumer: registered topic", applogger.String("topic", topic))
	}

	for _, q := range c.queues {
		c.wg.Add(1)
		go c.messageWorker(ctx, q)
	}

	for topic, reader := range c.readers {
		c.readersWg.Add(1)
		go c.consumeMessages(ctx, topic, reader)
	}

	c.log.Info("kafka consumer: started",
		applogger.Int("workers", len(c.queues)),
		applogger.String("group_id", c.cfg.GroupID),
	)
	return nil
}

// Stop stops fetching, drains buffered messages and closes the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		c.log.Info("kafka consumer: stopping")

		close(c.stopChan)
		if c.cancel != nil {
			c.cancel()
		}
		// Readers are the only senders on the worker queues.
		c.readersWg.Wait()
		for _, q := range c.queues {
			close(q)
		}

		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Error("kafka consumer: close reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Error("kafka consumer: close dlq writer", applogger.Error(err))
			}
		}

		if stopErr == nil {
			c.log.Info("kafka consumer: stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	doneChan := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-doneChan:
		return nil
	}
}

func (c *Consumer) consumeMessages(ctx context.Context, topic string, reader messageReader) {
	defer c.readersWg.Done()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("kafka consumer: fetch", applogger.String("topic", topic), applogger.Error(err))
			select {
			case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, 1)):
				continue
			case <-c.stopChan:
				return
			}
		}
		if msg.Topic == "" {
			msg.Topic = topic
		}

		// Blocks when the owning worker is saturated; that is the backpressure.
		q := c.queueFor(msg.Topic, msg.Partition)
		select {
		case q <- msg:
			c.metrics.queueDepth(topic, len(q))
		case <-c.stopChan:
			return
		}
	}
}

// queueFor returns the queue of the worker that owns topic/partition.
func (c *Consumer) queueFor(topic string, partition int) chan kafka.Message {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	idx := (int(h.Sum32()%uint32(len(c.queues))) + partition) % len(c.queues)
	if idx < 0 {
		idx += len(c.queues)
	}
	return c.queues[idx]
}

func (c *Consumer) messageWorker(ctx context.Context, queue <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range queue {
		c.process(ctx, msg)
	}
}

// process handles one message end to end: retries, DLQ and commit.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	handler, ok := c.handlers[msg.Topic]
	if !ok {
		return
	}
	start := time.Now()

	var err error
	attempts := 0
	for {
		attempts++
		err = c.safeHandle(ctx, handler, msg.Value)
		if err == nil || IsPermanent(err) || attempts > c.cfg.RetryMax {
			break
		}
		sleep := backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)
		select {
		case <-time.After(sleep):
		case <-c.stopChan:
			// Not committed: the message is redelivered after restart.
			return
		}
	}

	result := "ok"
	commit := err == nil
	if err != nil {
		result = "failed"
		if IsPermanent(err) {
			result = "rejected"
			commit = true
		}
		c.log.Error("kafka consumer: handle message",
			applogger.String("topic", msg.Topic),
			applogger.Int("partition", msg.Partition),
			applogger.Int64("offset", msg.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		if c.dlq != nil && c.cfg.DLQTopic != "" {
			if dlqErr := c.writeDLQ(ctx, msg, err); dlqErr != nil {
				c.log.Error("kafka consumer: write dlq", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
			} else {
				commit = true
			}
		}
	}

	if commit {
		if reader := c.readers[msg.Topic]; reader != nil {
			_ = c.commitWithRetry(reader, msg, 3)
		}
	}
	c.metrics.handled(msg.Topic, result, time.Since(start))
}

func (c *Consumer) safeHandle(ctx context.Context, h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("panic in handler: %v", r))
		}
	}()
	return h.Handle(ctx, data)
}

func (c *Consumer) writeDLQ(ctx context.Context, msg kafka.Message, cause error) error {
	// Detached from ctx so a shutdown does not lose the dead letter.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return c.dlq.WriteMessages(wctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "source_topic", Value: []byte(msg.Topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(reader messageReader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka consumer: commit", applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := max
	if attempt < 32 {
		if e := min * time.Duration(1<<uint(attempt-1)); e > 0 && e < max {
			exp = e
		}
	}
	// jitter up to 50%
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

type consumerMetrics struct {
	depth   *prometheus.GaugeVec
	total   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	f := promauto.With(reg)
	return &consumerMetrics{
		depth: f.NewGaugeVec(
			prometheus.GaugeOpts{Name: "techpulse_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		),
		total: f.NewCounterVec(
			prometheus.CounterOpts{Name: "techpulse_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{Name: "techpulse_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		),
	}
}

func (m *consumerMetrics) queueDepth(topic string, n int) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(topic).Set(float64(n))
}

func (m *consumerMetrics) handled(topic, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(topic, result).Inc()
	m.latency.WithLabelValues(topic).Observe(d.Seconds())
}
