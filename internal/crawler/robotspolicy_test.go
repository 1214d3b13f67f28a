package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type seenHeader struct {
	mu    sync.Mutex
	value string
}

func (s *seenHeader) set(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
}

func (s *seenHeader) get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *seenHeader) {
	t.Helper()
	seenUA := &seenHeader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		seenUA.set(r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, seenUA
}

func parse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestRobotsEnforcer(t *testing.T) {
	t.Parallel()

	srv, seenUA := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /blocked\n\nUser-agent: Maman\nDisallow: /private\n")
	enforcer := NewRobotsEnforcer(srv.Client(), "Maman", "Maman v0 (test)", zap.NewNop())

	require.NoError(t, enforcer.Load(context.Background(), parse(t, srv.URL+"/start")))
	assert.True(t, enforcer.Loaded())
	assert.Equal(t, "Maman v0 (test)", seenUA.get())

	assert.True(t, enforcer.Allowed(parse(t, srv.URL+"/allowed")))
	assert.False(t, enforcer.Allowed(parse(t, srv.URL+"/private/page")))
	assert.True(t, enforcer.Allowed(parse(t, srv.URL+"/blocked")), "agent specific group takes precedence over *")
}

func TestRobotsEnforcerWildcardGroup(t *testing.T) {
	t.Parallel()

	srv, _ := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /blocked\n")
	enforcer := NewRobotsEnforcer(srv.Client(), "Maman", "ua", nil)

	require.NoError(t, enforcer.Load(context.Background(), parse(t, srv.URL)))
	assert.False(t, enforcer.Allowed(parse(t, srv.URL+"/blocked?x=1")))
	assert.True(t, enforcer.Allowed(parse(t, srv.URL)))
}

func TestRobotsEnforcerFailOpen(t *testing.T) {
	t.Parallel()

	t.Run("not found allows all", func(t *testing.T) {
		t.Parallel()
		srv, _ := robotsServer(t, http.StatusNotFound, "")
		enforcer := NewRobotsEnforcer(srv.Client(), "Maman", "ua", nil)
		require.NoError(t, enforcer.Load(context.Background(), parse(t, srv.URL)))
		assert.True(t, enforcer.Allowed(parse(t, srv.URL+"/anything")))
	})

	t.Run("server error allows all", func(t *testing.T) {
		t.Parallel()
		srv, _ := robotsServer(t, http.StatusServiceUnavailable, "User-agent: *\nDisallow: /\n")
		enforcer := NewRobotsEnforcer(srv.Client(), "Maman", "ua", nil)
		err := enforcer.Load(context.Background(), parse(t, srv.URL))
		require.ErrorIs(t, err, ErrRobotsUnavailable)
		assert.False(t, enforcer.Loaded())
		assert.True(t, enforcer.Allowed(parse(t, srv.URL+"/anything")))
	})

	t.Run("unreachable allows all", func(t *testing.T) {
		t.Parallel()
		srv, _ := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /\n")
		base := parse(t, srv.URL)
		srv.Close()
		enforcer := NewRobotsEnforcer(nil, "Maman", "ua", nil)
		require.ErrorIs(t, enforcer.Load(context.Background(), base), ErrRobotsUnavailable)
		assert.True(t, enforcer.Allowed(parse(t, srv.URL+"/anything")))
	})

	t.Run("reload failure drops previous rules", func(t *testing.T) {
		t.Parallel()
		srv, _ := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /\n")
		enforcer := NewRobotsEnforcer(srv.Client(), "Maman", "ua", nil)
		require.NoError(t, enforcer.Load(context.Background(), parse(t, srv.URL)))
		assert.False(t, enforcer.Allowed(parse(t, srv.URL+"/x")))

		srv.Close()
		require.Error(t, enforcer.Load(context.Background(), parse(t, srv.URL)))
		assert.True(t, enforcer.Allowed(parse(t, srv.URL+"/x")))
	})
}

func TestAllowAll(t *testing.T) {
	t.Parallel()

	p := AllowAll()
	require.NoError(t, p.Load(context.Background(), parse(t, "http://example.net/")))
	assert.True(t, p.Allowed(parse(t, "http://example.net/private")))
}
