package httpfetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mirror-test", r.UserAgent())
		w.Write([]byte{0x89, 'P', 'N', 'G', 0x00, 0xff})
	})
	mux.HandleFunc("/gz.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("body{color:red}"))
		gz.Close()
	})
	mux.HandleFunc("/br.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		bw.Write([]byte("console.log(1)"))
		bw.Close()
		w.Write(buf.Bytes())
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<a href=\"a.html\">a</a>"))
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 64))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchBinaryBody(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher(Options{UserAgent: "mirror-test"})

	body, err := f.Fetch(context.Background(), srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}, body)
}

func TestFetchDecodesContentEncoding(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher(Options{UserAgent: "mirror-test"})

	body, err := f.Fetch(context.Background(), srv.URL+"/gz.css")
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(body))

	body, err = f.Fetch(context.Background(), srv.URL+"/br.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(body))
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	srv := newServer(t)
	_, err := NewFetcher(Options{}).Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchBodyLimit(t *testing.T) {
	srv := newServer(t)
	_, err := NewFetcher(Options{MaxBodyBytes: 16}).Fetch(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewFetcher(Options{}).Fetch(context.Background(), addr+"/x")
	assert.Error(t, err)
}

func TestFetchDocumentReportsFinalURL(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher(Options{})

	body, final, err := f.FetchDocument(context.Background(), srv.URL+"/docs")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/docs/", final)
	assert.Contains(t, string(body), "a.html")

	_, final, err = f.FetchDocument(context.Background(), srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/logo.png", final)
}
