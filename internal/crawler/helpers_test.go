package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errTransport = errors.New("connection refused")

// stubFetcher serves canned responses keyed by URL and records every call.
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]FetchResponse
	calls     []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{responses: make(map[string]FetchResponse)}
}

func (f *stubFetcher) html(rawURL, body string) *stubFetcher {
	return f.respond(rawURL, http.StatusOK, "text/html; charset=utf-8", body)
}

func (f *stubFetcher) respond(rawURL string, status int, contentType, body string) *stubFetcher {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	f.responses[rawURL] = FetchResponse{URL: rawURL, StatusCode: status, Headers: h, Body: []byte(body)}
	return f
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rawURL)
	resp, ok := f.responses[rawURL]
	if !ok {
		return FetchResponse{}, errTransport
	}
	return resp, nil
}

// recordingQueue keeps every pushed job; fail makes Push return an error instead.
type recordingQueue struct {
	jobs []Job
	fail error
}

func (q *recordingQueue) Push(_ context.Context, job Job) error {
	if q.fail != nil {
		return q.fail
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// MockRobotsPolicy is a mock implementation of the RobotsPolicy interface.
type MockRobotsPolicy struct {
	mock.Mock
}

func (m *MockRobotsPolicy) Load(ctx context.Context, base *url.URL) error {
	args := m.Called(ctx, base)
	return args.Error(0)
}

func (m *MockRobotsPolicy) Allowed(u *url.URL) bool {
	args := m.Called(u.String())
	return args.Bool(0)
}

type sequenceIDs struct{ n int }

func (s *sequenceIDs) NewID() (string, error) {
	s.n++
	return fmt.Sprintf("jid-%d", s.n), nil
}

type failingIDs struct{}

func (failingIDs) NewID() (string, error) { return "", errors.New("entropy exhausted") }

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var testNow = time.Unix(1_700_000_000, 0).UTC()

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := NormalizeURL(raw)
	require.NoError(t, err)
	return u
}

func newTestSpider(t *testing.T, cfg Config, fetcher Fetcher, robots RobotsPolicy, queue JobPusher) *Spider {
	t.Helper()
	s, err := NewSpider(cfg, fetcher, robots, queue, &sequenceIDs{}, fixedClock(testNow), nil)
	require.NoError(t, err)
	return s
}
