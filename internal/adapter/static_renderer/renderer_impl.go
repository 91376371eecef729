// Package static_renderer renders pages without a browser: the HTML is
// fetched as-is and queried with goquery. Scripts are not executed, so
// content injected client side is invisible to it.
package static_renderer

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/site-mirror/internal/repository"
)

// DocumentFetcher is implemented by fetchers that follow redirects and can
// report where the body was finally served from. Relative links resolve
// against that URL, as they would in a browser.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) ([]byte, string, error)
}

// RendererImpl builds pages from raw HTML downloaded by a Fetcher.
type RendererImpl struct {
	fetcher repository.Fetcher
}

// NewRenderer creates a static renderer on top of fetcher.
func NewRenderer(fetcher repository.Fetcher) *RendererImpl {
	return &RendererImpl{fetcher: fetcher}
}

// Launch returns a session. There is no process to start.
func (r *RendererImpl) Launch(_ context.Context) (repository.RenderSession, error) {
	return &session{fetcher: r.fetcher}, nil
}

type session struct {
	fetcher repository.Fetcher
	closed  bool
}

func (s *session) Open(ctx context.Context, rawURL string) (repository.Page, error) {
	if s.closed {
		return nil, fmt.Errorf("open %s: session closed", rawURL)
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	body, final, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", rawURL, err)
	}
	if final != rawURL {
		if u, err := url.Parse(final); err == nil {
			pageURL = u
		}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return &page{url: rawURL, base: documentBase(doc, pageURL), body: string(body), doc: doc}, nil
}

func (s *session) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if df, ok := s.fetcher.(DocumentFetcher); ok {
		return df.FetchDocument(ctx, rawURL)
	}
	body, err := s.fetcher.Fetch(ctx, rawURL)
	return body, rawURL, err
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

// documentBase honours <base href> the way a browser does.
func documentBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	b, err := pageURL.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	return b
}

type page struct {
	url  string
	base *url.URL
	body string
	doc  *goquery.Document
}

func (p *page) URL() string { return p.url }

func (p *page) Content(_ context.Context) (string, error) { return p.body, nil }

func (p *page) Query(_ context.Context, selector string) ([]repository.Element, error) {
	sel := p.doc.Find(selector)
	elements := make([]repository.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &element{sel: s, base: p.base})
	})
	return elements, nil
}

type element struct {
	sel  *goquery.Selection
	base *url.URL
}

// Property mimics DOM properties: href and src come back resolved against the
// document base, anything else is the raw attribute value.
func (e *element) Property(_ context.Context, name string) (string, error) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", nil
	}
	switch name {
	case "href", "src":
		v = strings.TrimSpace(v)
		if v == "" {
			return "", nil
		}
		resolved, err := e.base.Parse(v)
		if err != nil {
			// Leave it to the classifier to reject.
			return v, nil
		}
		return resolved.String(), nil
	}
	return v, nil
}
