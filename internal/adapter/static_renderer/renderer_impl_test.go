package static_renderer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	body, ok := m[url]
	if !ok {
		return nil, errors.New("404")
	}
	return []byte(body), nil
}

// redirectFetcher serves bodies keyed by final URL and follows moves.
type redirectFetcher struct {
	moves  map[string]string
	bodies mapFetcher
}

func (r redirectFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, err := r.FetchDocument(ctx, url)
	return body, err
}

func (r redirectFetcher) FetchDocument(ctx context.Context, url string) ([]byte, string, error) {
	if to, ok := r.moves[url]; ok {
		url = to
	}
	body, err := r.bodies.Fetch(ctx, url)
	return body, url, err
}

const docHTML = `<!DOCTYPE html><html><head>
<link rel="stylesheet" href="/css/site.css">
<link rel="icon" href="/favicon.ico">
<script src="app.js"></script><script>inline()</script>
</head><body>
<a href="about?x=1">About</a><a>no href</a><a href="">empty</a>
<img src="img/logo.png"><video><source src="/v/clip.mp4"></video>
<a href="http://[::1">broken</a>
</body></html>`

func TestStaticRendererQueryAndProperties(t *testing.T) {
	ctx := context.Background()
	r := NewRenderer(mapFetcher{"http://example.com/docs/": docHTML})
	s, err := r.Launch(ctx)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Open(ctx, "http://example.com/docs/")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/docs/", p.URL())

	content, err := p.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, docHTML, content)

	read := func(selector, prop string) []string {
		els, err := p.Query(ctx, selector)
		require.NoError(t, err)
		var out []string
		for _, el := range els {
			v, err := el.Property(ctx, prop)
			require.NoError(t, err)
			out = append(out, v)
		}
		return out
	}

	assert.Equal(t, []string{"stylesheet", "icon"}, read("link", "rel"))
	assert.Equal(t, []string{"http://example.com/css/site.css", "http://example.com/favicon.ico"}, read("link", "href"))
	assert.Equal(t, []string{"http://example.com/docs/app.js"}, read("script[src]", "src"))
	assert.Equal(t, []string{"http://example.com/docs/img/logo.png"}, read("img", "src"))
	assert.Equal(t, []string{"http://example.com/v/clip.mp4"}, read("video>source", "src"))
	assert.Equal(t, []string{"http://example.com/docs/about?x=1", "", "", "http://[::1"}, read("a", "href"))
}

func TestStaticRendererHonoursBaseHref(t *testing.T) {
	ctx := context.Background()
	html := `<html><head><base href="http://cdn.example.com/root/"></head><body><img src="a.png"></body></html>`
	s, _ := NewRenderer(mapFetcher{"http://example.com/": html}).Launch(ctx)

	p, err := s.Open(ctx, "http://example.com/")
	require.NoError(t, err)
	els, err := p.Query(ctx, "img")
	require.NoError(t, err)
	require.Len(t, els, 1)
	v, _ := els[0].Property(ctx, "src")
	assert.Equal(t, "http://cdn.example.com/root/a.png", v)
}

func TestStaticRendererNavigationError(t *testing.T) {
	ctx := context.Background()
	s, _ := NewRenderer(mapFetcher{}).Launch(ctx)
	_, err := s.Open(ctx, "http://example.com/missing")
	assert.ErrorContains(t, err, "navigate to http://example.com/missing")

	require.NoError(t, s.Close())
	_, err = s.Open(ctx, "http://example.com/")
	assert.ErrorContains(t, err, "session closed")
}

func TestStaticRendererResolvesAgainstRedirectTarget(t *testing.T) {
	ctx := context.Background()
	f := redirectFetcher{
		moves:  map[string]string{"http://example.com/docs": "http://example.com/docs/"},
		bodies: mapFetcher{"http://example.com/docs/": `<a href="a.html">a</a><img src="../logo.png">`},
	}
	s, _ := NewRenderer(f).Launch(ctx)

	p, err := s.Open(ctx, "http://example.com/docs")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/docs", p.URL())

	links, err := p.Query(ctx, "a")
	require.NoError(t, err)
	require.Len(t, links, 1)
	href, _ := links[0].Property(ctx, "href")
	assert.Equal(t, "http://example.com/docs/a.html", href)

	imgs, err := p.Query(ctx, "img")
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	src, _ := imgs[0].Property(ctx, "src")
	assert.Equal(t, "http://example.com/logo.png", src)
}
