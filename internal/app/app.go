// Package app initializes and holds long-lived services of a crawl run, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.uber.org/zap"

	"github.com/JakeFAU/maman/internal/api"
	"github.com/JakeFAU/maman/internal/config"
	"github.com/JakeFAU/maman/internal/crawler"
	"github.com/JakeFAU/maman/internal/logging"
	"github.com/JakeFAU/maman/internal/queue"
	kafkaqueue "github.com/JakeFAU/maman/internal/queue/kafka"
	"github.com/JakeFAU/maman/internal/queue/memory"
	redisqueue "github.com/JakeFAU/maman/internal/queue/redis"
)

// App holds the shared services for one invocation: the logger, the job
// queue and, when configured, the metrics listener.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	queue  queue.Provider

	metricsStarted bool
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetQueue returns the provider jobs are pushed to.
func (a *App) GetQueue() queue.Provider {
	return a.queue
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// NewApp instantiates the queue provider named by cfg.Queue.Backend.
// It fails fast when the backend cannot be reached.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	l := logging.OrNop(logger)
	l.Info("initializing application services", zap.String("queue_backend", cfg.Queue.Backend))

	var (
		q   queue.Provider
		err error
	)
	switch cfg.Queue.Backend {
	case queue.BackendRedis:
		l.Info("connecting to redis", zap.String("key", crawler.RedisQueueName(cfg.Env)))
		q, err = redisqueue.New(ctx, cfg.Redis.URL, cfg.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize queue: %w", err)
		}
	case queue.BackendKafka:
		l.Info("using kafka queue", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
		q = kafkaqueue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	case queue.BackendMemory:
		l.Info("using in-memory queue; jobs are logged and discarded")
		q = memory.NewQueue(l)
	default:
		return nil, fmt.Errorf("queue backend %q: %w", cfg.Queue.Backend, queue.ErrUnknownBackend)
	}

	return NewWithProvider(cfg, l, q), nil
}

// NewWithProvider builds an App around an already constructed queue.
func NewWithProvider(cfg config.Config, logger *zap.Logger, q queue.Provider) *App {
	return &App{
		cfg:    cfg,
		logger: logging.OrNop(logger),
		queue:  q,
	}
}

// StartMetrics serves /metrics and /healthz on cfg.Metrics.Addr until ctx
// ends. It is a no-op when no address is configured.
func (a *App) StartMetrics(ctx context.Context) {
	addr := a.cfg.Metrics.Addr
	if addr == "" || a.metricsStarted {
		return
	}
	a.metricsStarted = true
	server := api.NewServer(a.logger)
	go func() {
		if err := server.ListenAndServe(ctx, addr); err != nil {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Close gracefully shuts down all services in the container.
func (a *App) Close() {
	a.logger.Debug("shutting down application services")
	if err := a.queue.Close(); err != nil {
		a.logger.Warn("error closing queue client", zap.Error(err))
	}
	if err := a.logger.Sync(); err != nil && !isIgnorableSyncError(err) {
		a.logger.Warn("error syncing logger on shutdown", zap.Error(err))
	}
}

// isIgnorableSyncError reports errors zap returns when stdout/stderr are terminals.
func isIgnorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
