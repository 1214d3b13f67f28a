package crawler

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/maman/internal/version"
)

// DefaultRetry is the retry budget stamped on every job.
const DefaultRetry = 25

// Job is a Sidekiq-compatible unit of work describing one visited page.
// Field names and nesting are the wire contract of the downstream worker.
type Job struct {
	Class      string       `json:"class"`
	Args       []PageObject `json:"args"`
	Retry      int          `json:"retry"`
	Queue      string       `json:"queue"`
	JID        string       `json:"jid"`
	CreatedAt  int64        `json:"created_at"`
	EnqueuedAt int64        `json:"enqueued_at"`
}

// QueueName is the queue every job is published on.
func QueueName() string {
	return strings.ToLower(version.Name)
}

// RedisQueueName is the list key the queue lives under for env, e.g. "test:queue:maman".
func RedisQueueName(env string) string {
	return NamespacedKey(env, "queue:"+QueueName())
}

// NamespacedKey prefixes key with "<env>:" unless env is empty.
func NamespacedKey(env, key string) string {
	if env == "" {
		return key
	}
	return env + ":" + key
}

// JobBuilder turns Pages into Jobs.
type JobBuilder struct {
	ids   IDGenerator
	clock Clock
}

// NewJobBuilder returns a builder drawing ids and timestamps from the given sources.
func NewJobBuilder(ids IDGenerator, clock Clock) *JobBuilder {
	return &JobBuilder{ids: ids, clock: clock}
}

// Build wraps page into a Job.
func (b *JobBuilder) Build(page *Page) (Job, error) {
	jid, err := b.ids.NewID()
	if err != nil {
		return Job{}, fmt.Errorf("build job for %s: %w", page.URL, err)
	}
	now := b.clock.Now().Unix()
	return Job{
		Class:      version.Name,
		Args:       []PageObject{page.Object()},
		Retry:      DefaultRetry,
		Queue:      QueueName(),
		JID:        jid,
		CreatedAt:  now,
		EnqueuedAt: now,
	}, nil
}
