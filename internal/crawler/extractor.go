package crawler

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// TokenSink consumes the tokens produced by Tokenize, in document order.
type TokenSink interface {
	ProcessToken(token html.Token)
}

// Tokenize streams r through the HTML tokenizer into sink.
// Malformed markup never fails; only read errors from r are returned.
func Tokenize(r io.Reader, sink TokenSink) error {
	z := html.NewTokenizer(r)
	for {
		if z.Next() == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return fmt.Errorf("tokenize document: %w", err)
			}
			return nil
		}
		sink.ProcessToken(z.Token())
	}
}

// LinkExtractor is the token sink that collects crawl-eligible anchors into
// the Page it holds.
type LinkExtractor struct {
	page *Page
}

// NewLinkExtractor returns a sink appending to page.URLs.
func NewLinkExtractor(page *Page) *LinkExtractor {
	return &LinkExtractor{page: page}
}

// ProcessToken implements TokenSink.
func (e *LinkExtractor) ProcessToken(token html.Token) {
	if token.Type != html.StartTagToken && token.Type != html.SelfClosingTagToken {
		return
	}
	if token.Data != "a" {
		return
	}
	for _, attr := range token.Attr {
		if attr.Namespace != "" || attr.Key != "href" {
			continue
		}
		if u, ok := e.page.CanEnqueue(attr.Val); ok {
			e.page.URLs = append(e.page.URLs, u)
		}
	}
}

// ReadPage tokenizes document and fills page.URLs. The page is returned for chaining.
func ReadPage(page *Page, document string) *Page {
	// strings.Reader never fails, so Tokenize cannot return an error here.
	_ = Tokenize(strings.NewReader(document), NewLinkExtractor(page))
	return page
}

// CanEnqueue resolves href against the page URL and reports whether the
// result may join the frontier: http(s) only, same host, never the page itself.
func (p *Page) CanEnqueue(href string) (*url.URL, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, false
	}
	u := ref
	if !ref.IsAbs() {
		u = p.URL.ResolveReference(ref)
	}
	u = normalize(u)

	switch {
	case !isHTTPScheme(u):
		return nil, false
	case u.Host == "":
		return nil, false
	case u.String() == p.URL.String():
		return nil, false
	case !sameHost(p.URL, u):
		return nil, false
	}
	return u, true
}
