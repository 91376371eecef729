package chromedp_renderer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findChrome skips the test when no Chrome binary is installed.
func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary found")
	return ""
}

func TestRenderSession(t *testing.T) {
	execPath := findChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html><html><head><link rel="stylesheet" href="/site.css"></head>
<body><a href="/about?x=1">About</a><img src="logo.png">
<script>document.body.insertAdjacentHTML("beforeend", '<a href="/dynamic">dyn</a>')</script></body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := NewRenderer(Options{Headless: true, ExecPath: execPath, PageLoadTimeout: 30 * time.Second}).Launch(ctx)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Open(ctx, srv.URL+"/")
	require.NoError(t, err)

	content, err := p.Content(ctx)
	require.NoError(t, err)
	assert.Contains(t, content, "<!DOCTYPE html>")

	anchors, err := p.Query(ctx, "a")
	require.NoError(t, err)
	require.Len(t, anchors, 2, "script-inserted links are part of the rendered DOM")

	href, err := anchors[0].Property(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/about?x=1", href)

	imgs, err := p.Query(ctx, "img")
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	src, err := imgs[0].Property(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/logo.png", src)

	videos, err := p.Query(ctx, "video>source")
	require.NoError(t, err)
	assert.Empty(t, videos)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "closing twice is harmless")
}
