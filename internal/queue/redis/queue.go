// Package redisqueue pushes jobs onto a Sidekiq-compatible Redis queue.
package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/JakeFAU/maman/internal/crawler"
)

// Queue enqueues jobs the way a Sidekiq client does: the queue name is
// registered in the namespaced "queues" set and the payload is LPUSHed onto
// the namespaced queue list.
type Queue struct {
	client    *redis.Client
	namespace string
}

// New parses redisURL, connects and verifies the server answers PING.
func New(ctx context.Context, redisURL, namespace string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, namespace), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, namespace string) *Queue {
	return &Queue{client: client, namespace: namespace}
}

// Key returns the list the jobs are pushed onto.
func (q *Queue) Key() string {
	return crawler.RedisQueueName(q.namespace)
}

// Push serializes job and enqueues it atomically.
func (q *Queue) Push(ctx context.Context, job crawler.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.JID, err)
	}
	pipe := q.client.TxPipeline()
	pipe.SAdd(ctx, crawler.NamespacedKey(q.namespace, "queues"), job.Queue)
	pipe.LPush(ctx, q.Key(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push job %s: %w", job.JID, err)
	}
	return nil
}

// Close closes the Redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
