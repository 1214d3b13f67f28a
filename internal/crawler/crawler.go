package crawler

import (
	"context"
	"net/url"
	"time"
)

// DefaultTimeout bounds every page fetch.
const DefaultTimeout = 5 * time.Second

// DefaultEnv is the namespace used when none is configured.
const DefaultEnv = "development"

// Config holds the settings for one crawl run.
// It is built by the caller (CLI, tests) so the engine never reads the process environment.
type Config struct {
	// BaseURL is the origin and first page of the crawl.
	BaseURL *url.URL
	// Limit caps the number of visited pages; 0 means unbounded.
	Limit int
	// MIMETypes is the content type allow-list; empty allows everything.
	MIMETypes []string
	// Env namespaces the queue the jobs land in.
	Env string
}

// Fetcher performs one raw GET. Implementations own timeouts, TLS and
// redirect policy; acceptance rules live in Gate.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (FetchResponse, error)
}

// RobotsPolicy decides whether the crawler may fetch a URL.
type RobotsPolicy interface {
	Load(ctx context.Context, base *url.URL) error
	Allowed(u *url.URL) bool
}

// JobPusher hands a finished job to the backing queue.
type JobPusher interface {
	Push(ctx context.Context, job Job) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs.
type IDGenerator interface {
	NewID() (string, error)
}
