package crawler

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// ErrNoContent marks a fetch that produced nothing worth visiting. Every
// error returned by Gate.Load wraps it.
var ErrNoContent = errors.New("no content")

// Gate wraps a Fetcher with the acceptance rules of a crawl: status 200 or
// 304 and, when an allow-list is set, a matching base content type.
type Gate struct {
	fetcher   Fetcher
	mimeTypes map[string]struct{}
}

// NewGate builds a Gate. Entries of mimeTypes that do not parse as a media
// type are ignored; parameters such as charset are dropped.
func NewGate(fetcher Fetcher, mimeTypes []string) *Gate {
	allowed := make(map[string]struct{}, len(mimeTypes))
	for _, raw := range mimeTypes {
		if mt, ok := baseMediaType(raw); ok {
			allowed[mt] = struct{}{}
		}
	}
	return &Gate{fetcher: fetcher, mimeTypes: allowed}
}

// Load fetches rawURL and applies the acceptance rules.
func (g *Gate) Load(ctx context.Context, rawURL string) (FetchResponse, error) {
	resp, err := g.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return FetchResponse{}, fmt.Errorf("%w: %w", ErrNoContent, err)
	}
	if !acceptStatus(resp.StatusCode) {
		return FetchResponse{}, fmt.Errorf("%w: status %d", ErrNoContent, resp.StatusCode)
	}
	if len(g.mimeTypes) == 0 {
		return resp, nil
	}
	contentType := resp.Headers.Get("Content-Type")
	mt, ok := baseMediaType(contentType)
	if !ok {
		return FetchResponse{}, fmt.Errorf("%w: unreadable content type %q", ErrNoContent, contentType)
	}
	if _, allowed := g.mimeTypes[mt]; !allowed {
		return FetchResponse{}, fmt.Errorf("%w: content type %q not allowed", ErrNoContent, mt)
	}
	return resp, nil
}

func acceptStatus(code int) bool {
	return code == http.StatusOK || code == http.StatusNotModified
}

func baseMediaType(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return "", false
	}
	if !strings.Contains(mt, "/") {
		return "", false
	}
	return mt, true
}
