// Package memory provides a queue implementation for local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/maman/internal/crawler"
	"github.com/JakeFAU/maman/internal/logging"
)

// Queue records pushed jobs in memory and logs each one.
type Queue struct {
	mu     sync.Mutex
	jobs   []crawler.Job
	logger *zap.Logger
	closed bool
}

// NewQueue constructs an empty queue. A nil logger is replaced by a no-op.
func NewQueue(logger *zap.Logger) *Queue {
	return &Queue{logger: logging.OrNop(logger)}
}

// Push records the job unless the context has ended or the queue is closed.
func (q *Queue) Push(ctx context.Context, job crawler.Job) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("push canceled: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("push job %s: queue closed", job.JID)
	}
	q.jobs = append(q.jobs, job)
	url := ""
	if len(job.Args) > 0 {
		url = job.Args[0].URL
	}
	q.logger.Info("job recorded",
		zap.String("jid", job.JID),
		zap.String("queue", job.Queue),
		zap.String("url", url),
	)
	return nil
}

// Jobs returns a copy of every recorded job in push order.
func (q *Queue) Jobs() []crawler.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]crawler.Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}

// Close rejects further pushes.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
