package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/site-mirror/pkg/config"
)

func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.HasSuffix(r.URL.Path, ".css") {
			w.Header().Set("Content-Type", "text/css")
		} else {
			w.Header().Set("Content-Type", "text/html")
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "sitemirror", cmd.Use)
	assert.NotEmpty(t, cmd.Version)

	for _, name := range []string{"url", "only-host"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	for _, name := range []string{"out", "engine", "on-page-error", "max-pages", "state", "redis-addr", "postgres-dsn", "metrics-addr", "log-level", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "version")
}

func TestRun_MirrorsSite(t *testing.T) {
	srv := newSite(t, map[string]string{
		"/":          `<html><head><link rel="stylesheet" href="/style.css"></head><body><a href="/about?x=1">About</a></body></html>`,
		"/about":     `<html><body><a href="/">Home</a></body></html>`,
		"/style.css": `body{color:red}`,
	})
	out := t.TempDir()

	stdout, err := execute(t, "--url", srv.URL+"/", "--only-host", "127.0.0.1", "--out", out, "--engine", "static")
	require.NoError(t, err)
	assert.Equal(t, exitOK, exitCode(err))

	assert.Contains(t, stdout, "pages:    2")
	assert.Contains(t, stdout, "assets:   1")
	assert.Contains(t, readFile(t, filepath.Join(out, "index.html")), `href="/about?x=1"`)
	assert.Contains(t, readFile(t, filepath.Join(out, "about")), "Home")
	assert.Equal(t, "body{color:red}", readFile(t, filepath.Join(out, "style.css")))
}

func TestRun_PartialFailureExitCode(t *testing.T) {
	srv := newSite(t, map[string]string{
		"/": `<img src="/missing.png">`,
	})

	stdout, err := execute(t, "--url", srv.URL, "--out", t.TempDir(), "--engine", "static")
	require.Error(t, err)
	assert.Equal(t, exitPartial, exitCode(err))
	assert.Contains(t, stdout, "failures: 1")
	assert.Contains(t, stdout, "/missing.png")
}

func TestRun_PageFailureExitCode(t *testing.T) {
	srv := newSite(t, map[string]string{
		"/": `<a href="/gone">gone</a>`,
	})

	_, err := execute(t, "--url", srv.URL, "--out", t.TempDir(), "--engine", "static")
	assert.Equal(t, exitFailed, exitCode(err))

	_, err = execute(t, "--url", srv.URL, "--out", t.TempDir(), "--engine", "static", "--on-page-error", "skip")
	assert.Equal(t, exitPartial, exitCode(err))
}

func TestRun_UsageErrors(t *testing.T) {
	_, err := execute(t, "--out", t.TempDir())
	assert.True(t, errors.Is(err, config.ErrMissingURL))
	assert.Equal(t, exitFailed, exitCode(err))

	_, err = execute(t, "--url", "http://example.com/")
	assert.ErrorIs(t, err, config.ErrMissingOut)

	_, err = execute(t, "--url", "http://example.com/", "--out", t.TempDir(), "--engine", "firefox")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine")

	_, err = execute(t, "--url", "mailto:someone@example.com", "--out", t.TempDir(), "--engine", "static")
	assert.Equal(t, exitFailed, exitCode(err))
}

func TestRun_EnvironmentConfig(t *testing.T) {
	srv := newSite(t, map[string]string{"/": `hello`})
	out := t.TempDir()
	t.Setenv("MIRROR_URL", srv.URL)
	t.Setenv("MIRROR_OUT", out)
	t.Setenv("MIRROR_ENGINE", "static")

	_, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, "hello", readFile(t, filepath.Join(out, "index.html")))
}

func TestRun_ConfigFile(t *testing.T) {
	srv := newSite(t, map[string]string{"/": `from file`})
	out := t.TempDir()
	file := filepath.Join(t.TempDir(), "mirror.yaml")
	require.NoError(t, os.WriteFile(file, []byte("url: "+srv.URL+"\nout: "+out+"\nengine: static\n"), 0o644))

	_, err := execute(t, "--config", file)
	require.NoError(t, err)
	assert.Equal(t, "from file", readFile(t, filepath.Join(out, "index.html")))
}

func TestRun_RedisState(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newSite(t, map[string]string{
		"/":  `<a href="/a">a</a>`,
		"/a": `<a href="/">home</a>`,
	})
	out := t.TempDir()

	stdout, err := execute(t, "--url", srv.URL, "--out", out, "--engine", "static",
		"--state", "redis", "--redis-addr", mr.Addr())
	require.NoError(t, err)
	assert.Contains(t, stdout, "pages:    2")
	assert.Empty(t, mr.Keys())
}

func TestRun_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := execute(t, "--url", "http://example.com/", "--out", t.TempDir(), "--engine", "static",
		"--state", "redis", "--redis-addr", addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}
