package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/JakeFAU/maman/internal/logging"
)

// ErrRobotsUnavailable reports a robots.txt that could not be fetched or parsed.
var ErrRobotsUnavailable = errors.New("robots.txt unavailable")

const maxRobotsBytes = 1 << 20

// RobotsEnforcer evaluates one origin's robots.txt for a fixed agent.
// Until Load succeeds every URL is allowed.
type RobotsEnforcer struct {
	client    *http.Client
	agent     string
	userAgent string
	logger    *zap.Logger

	loaded bool
	data   *robotstxt.RobotsData
}

// NewRobotsEnforcer builds an enforcer matching rules for agent and sending
// userAgent on the robots.txt request. A nil client gets a 5 second timeout.
func NewRobotsEnforcer(client *http.Client, agent, userAgent string, logger *zap.Logger) *RobotsEnforcer {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &RobotsEnforcer{
		client:    client,
		agent:     agent,
		userAgent: userAgent,
		logger:    logging.OrNop(logger),
	}
}

// Load fetches /robots.txt relative to base. On failure the enforcer stays
// in its permit-all state and the error is returned for logging only.
func (r *RobotsEnforcer) Load(ctx context.Context, base *url.URL) error {
	r.loaded = false
	r.data = nil

	robotsURL, err := base.Parse("/robots.txt")
	if err != nil {
		return fmt.Errorf("%w: resolve: %w", ErrRobotsUnavailable, err)
	}
	data, err := r.fetch(ctx, robotsURL.String())
	if err != nil {
		r.logger.Warn("robots fetch failed; allowing access",
			zap.String("url", robotsURL.String()), zap.Error(err))
		return err
	}
	r.data = data
	r.loaded = true
	return nil
}

// Allowed implements RobotsPolicy.
func (r *RobotsEnforcer) Allowed(u *url.URL) bool {
	if r == nil || !r.loaded || r.data == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return r.data.TestAgent(path, r.agent)
}

// Loaded reports whether rules from a robots.txt are in force.
func (r *RobotsEnforcer) Loaded() bool {
	return r.loaded
}

func (r *RobotsEnforcer) fetch(ctx context.Context, rawURL string) (*robotstxt.RobotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new request: %w", ErrRobotsUnavailable, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %w", ErrRobotsUnavailable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("Failed to close robots response body", zap.Error(cerr))
		}
	}()
	// A server error counts as no policy at all, not as disallow-all.
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrRobotsUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRobotsUnavailable, err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse: %w", ErrRobotsUnavailable, err)
	}
	return data, nil
}

// allowAllPolicy permits everything; used when robots enforcement is switched off.
type allowAllPolicy struct{}

// AllowAll returns a RobotsPolicy that never loads anything and permits every URL.
func AllowAll() RobotsPolicy { return allowAllPolicy{} }

func (allowAllPolicy) Load(context.Context, *url.URL) error { return nil }

func (allowAllPolicy) Allowed(*url.URL) bool { return true }
