package crawler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// FetchResponse is the raw result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Status renders the status line the way it is published in jobs, e.g. "200 OK".
func (r FetchResponse) Status() string {
	code := strconv.Itoa(r.StatusCode)
	if text := http.StatusText(r.StatusCode); text != "" {
		return code + " " + text
	}
	return code
}

// Page is one fetched and parsed document. Its URLs grow while the tokenizer
// runs; afterwards it is turned into a Job once and dropped.
type Page struct {
	URL      *url.URL
	Document string
	Headers  map[string]string
	Status   string
	URLs     []*url.URL
}

// NewPage builds an empty-linked Page for u.
func NewPage(u *url.URL, document string, headers map[string]string, status string) *Page {
	if headers == nil {
		headers = make(map[string]string)
	}
	return &Page{
		URL:      u,
		Document: document,
		Headers:  headers,
		Status:   status,
	}
}

// PageObject is the serialized form of a Page inside a job's args.
type PageObject struct {
	URL      string            `json:"url"`
	Document string            `json:"document"`
	Headers  map[string]string `json:"headers"`
	Status   string            `json:"status"`
	URLs     []string          `json:"urls"`
}

// Object serializes the page for the job payload.
func (p *Page) Object() PageObject {
	urls := make([]string, 0, len(p.URLs))
	for _, u := range p.URLs {
		urls = append(urls, u.String())
	}
	headers := p.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return PageObject{
		URL:      p.URL.String(),
		Document: p.Document,
		Headers:  headers,
		Status:   p.Status,
		URLs:     urls,
	}
}

// flattenHeaders lowercases header names and joins repeated values with ", ".
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		out[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return out
}
