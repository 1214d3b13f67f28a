package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/maman/internal/logging"
	"github.com/JakeFAU/maman/internal/metrics"
)

// ErrNotText reports a body that is not valid UTF-8 text.
var ErrNotText = errors.New("document is not text")

// Stats summarizes a crawl run.
type Stats struct {
	Visited      int
	Skipped      int
	Denied       int
	PushFailures int
}

// Spider owns the frontier of a single crawl: the ordered visited set and the
// LIFO stack of discovered URLs. It is not safe for concurrent use.
type Spider struct {
	cfg    Config
	gate   *Gate
	robots RobotsPolicy
	jobs   *JobBuilder
	queue  JobPusher
	logger *zap.Logger

	visited    []*url.URL
	visitedSet map[string]struct{}
	unvisited  []*url.URL
	stats      Stats
}

// NewSpider wires a Spider. cfg.BaseURL must be an absolute http(s) URL.
func NewSpider(
	cfg Config,
	fetcher Fetcher,
	robots RobotsPolicy,
	queue JobPusher,
	ids IDGenerator,
	clock Clock,
	logger *zap.Logger,
) (*Spider, error) {
	if cfg.BaseURL == nil {
		return nil, errors.New("crawler: base url is required")
	}
	base, err := NormalizeURL(cfg.BaseURL.String())
	if err != nil {
		return nil, fmt.Errorf("crawler: base url: %w", err)
	}
	if !isHTTPScheme(base) {
		return nil, fmt.Errorf("crawler: base url %s: scheme must be http or https", base)
	}
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}
	if cfg.Env == "" {
		cfg.Env = DefaultEnv
	}
	if robots == nil {
		robots = AllowAll()
	}
	cfg.BaseURL = base
	return &Spider{
		cfg:        cfg,
		gate:       NewGate(fetcher, cfg.MIMETypes),
		robots:     robots,
		jobs:       NewJobBuilder(ids, clock),
		queue:      queue,
		logger:     logging.OrNop(logger),
		visitedSet: make(map[string]struct{}),
	}, nil
}

// Crawl loads the robots policy, visits the base URL and then drains the
// frontier depth-first until it is empty or the visit limit is reached.
// Per-URL failures are skipped; only context cancellation is returned.
func (s *Spider) Crawl(ctx context.Context) (Stats, error) {
	s.logger.Debug("crawl starting",
		zap.String("base_url", s.cfg.BaseURL.String()),
		zap.String("queue", RedisQueueName(s.cfg.Env)),
	)
	if err := s.robots.Load(ctx, s.cfg.BaseURL); err != nil {
		s.logger.Info("robots.txt not loaded; crawling without restrictions", zap.Error(err))
	}

	s.visit(ctx, s.cfg.BaseURL)
	for len(s.unvisited) > 0 && s.continueToCrawl() {
		if err := ctx.Err(); err != nil {
			return s.stats, fmt.Errorf("crawl %s: %w", s.cfg.BaseURL, err)
		}
		next := s.pop()
		if s.IsVisited(next) {
			continue
		}
		s.visit(ctx, next)
	}
	if err := ctx.Err(); err != nil {
		return s.stats, fmt.Errorf("crawl %s: %w", s.cfg.BaseURL, err)
	}
	return s.stats, nil
}

// VisitPage records page as visited, queues its links and pushes its job.
// A failed push is logged; the page stays visited. Pages already visited are ignored.
func (s *Spider) VisitPage(ctx context.Context, page *Page) {
	key := page.URL.String()
	if _, seen := s.visitedSet[key]; seen {
		return
	}
	s.visitedSet[key] = struct{}{}
	s.visited = append(s.visited, page.URL)
	s.unvisited = append(s.unvisited, page.URLs...)
	s.stats.Visited++
	metrics.ObservePage(key, metrics.PageVisited, len(page.Document))

	job, err := s.jobs.Build(page)
	if err == nil {
		err = s.queue.Push(ctx, job)
	}
	metrics.ObserveJobPush(err)
	if err != nil {
		s.stats.PushFailures++
		s.logger.Error("job push failed", zap.String("url", key), zap.Error(err))
	}
}

// IsVisited reports whether u has already been recorded.
func (s *Spider) IsVisited(u *url.URL) bool {
	_, ok := s.visitedSet[u.String()]
	return ok
}

// Visited returns the visited URLs in visit order.
func (s *Spider) Visited() []string {
	return urlStrings(s.visited)
}

// Unvisited returns the frontier stack bottom to top; the last entry is popped next.
func (s *Spider) Unvisited() []string {
	return urlStrings(s.unvisited)
}

// Stats returns the counters accumulated so far.
func (s *Spider) Stats() Stats {
	return s.stats
}

func (s *Spider) visit(ctx context.Context, u *url.URL) {
	raw := u.String()
	if !s.robots.Allowed(u) {
		s.stats.Denied++
		metrics.ObservePage(raw, metrics.PageDenied, 0)
		s.logger.Debug("robots.txt denies url", zap.String("url", raw))
		return
	}
	page, err := s.load(ctx, u)
	if err != nil {
		s.stats.Skipped++
		metrics.ObservePage(raw, metrics.PageSkipped, 0)
		s.logger.Debug("skipping url", zap.String("url", raw), zap.Error(err))
		return
	}
	s.logger.Info("visiting", zap.String("url", raw), zap.Int("links", len(page.URLs)))
	s.VisitPage(ctx, page)
}

func (s *Spider) load(ctx context.Context, u *url.URL) (*Page, error) {
	resp, err := s.gate.Load(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(resp.Body) {
		return nil, fmt.Errorf("%w: %s", ErrNotText, u)
	}
	document := string(resp.Body)
	page := NewPage(u, document, flattenHeaders(resp.Headers), resp.Status())
	return ReadPage(page, document), nil
}

func (s *Spider) continueToCrawl() bool {
	return s.cfg.Limit == 0 || len(s.visited) < s.cfg.Limit
}

func (s *Spider) pop() *url.URL {
	last := len(s.unvisited) - 1
	u := s.unvisited[last]
	s.unvisited[last] = nil
	s.unvisited = s.unvisited[:last]
	return u
}

func urlStrings(in []*url.URL) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		out = append(out, u.String())
	}
	return out
}
