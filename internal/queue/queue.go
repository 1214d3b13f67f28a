// Package queue defines the job sink the crawler publishes visited pages to.
// This abstraction keeps the crawler independent of a specific backend
// (Sidekiq on Redis, Kafka, or an in-memory recorder for dry runs).
package queue

import (
	"context"
	"errors"

	"github.com/JakeFAU/maman/internal/crawler"
)

// ErrUnknownBackend is returned when configuration names an unsupported backend.
var ErrUnknownBackend = errors.New("unknown queue backend")

// Backend names accepted by configuration.
const (
	BackendRedis  = "redis"
	BackendKafka  = "kafka"
	BackendMemory = "memory"
)

// Provider defines the common interface for a job queue.
type Provider interface {
	// Push serializes the job and hands it to the backend.
	Push(ctx context.Context, job crawler.Job) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpProvider discards every job.
type NoOpProvider struct{}

// Push for NoOpProvider does nothing and returns nil.
func (n *NoOpProvider) Push(_ context.Context, _ crawler.Job) error { return nil }

// Close for NoOpProvider does nothing and returns nil.
func (n *NoOpProvider) Close() error { return nil }

var (
	_ Provider           = (*NoOpProvider)(nil)
	_ crawler.JobPusher = (Provider)(nil)
)
