package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "TechPulse/pkg/http"
	pkgkafka "TechPulse/pkg/kafka"
	applogger "TechPulse/pkg/logger"
)

// Resource is an infrastructure client the app closes on shutdown.
type Resource struct {
	Name string
	io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	log             *applogger.Logger
	httpServer      *xhttp.Server
	consumer        *pkgkafka.Consumer
	kh              pkgkafka.MessageHandler
	resources       []Resource
	shutdownTimeout time.Duration
}

// New creates a new App. consumer and kh may be nil when Kafka requests are
// not consumed. Resources are closed in reverse order on shutdown.
func New(
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	shutdownTimeout time.Duration,
	resources ...Resource,
) *App {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}
	return &App{
		log:             log,
		httpServer:      httpServer,
		consumer:        consumer,
		kh:              kh,
		resources:       resources,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts the application and blocks until SIGINT/SIGTERM or a fatal
// server error.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with the stop signal supplied by ctx.
func (a *App) RunContext(ctx context.Context) error {
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(consumerCtx); err != nil {
			a.closeResources()
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	errCh := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.log.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops intake first (HTTP, consumer), then closes the sinks the
// in-flight analyses publish to.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.closeResources()

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources() {
	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if r.Closer == nil {
			continue
		}
		if err := r.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", r.Name), applogger.Error(err))
		}
	}
}
