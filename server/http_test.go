package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/world-in-progress/hermes/client"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/discovery"
	"github.com/world-in-progress/hermes/uri"
)

func TestDispatchEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, config.ServerConfig{})
	paths := make(chan string, 1)
	s.Register("content", EndpointFunc(func(path string, _ map[string]string) error {
		paths <- path
		return nil
	}))

	req := httptest.NewRequest(http.MethodPost, client.DispatchPath, strings.NewReader("content/Game/Map"))
	req.Header.Set(client.RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get(client.RequestIDHeader))
	select {
	case path := <-paths:
		assert.Equal(t, "/Game/Map", path)
	case <-time.After(2 * time.Second):
		t.Fatal("message was not dispatched")
	}
}

func TestDispatchRejects(t *testing.T) {
	s, _, _ := newTestServer(t, config.ServerConfig{})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, client.DispatchPath, strings.NewReader("  ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	big := strings.Repeat("a", uri.MaxMessageSize+1)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, client.DispatchPath, strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, client.DispatchPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthAndURI(t *testing.T) {
	s, _, _ := newTestServer(t, config.ServerConfig{})
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, client.HealthPath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, client.URIPath+"?endpoint=content&path=/Game/Map", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, s.UpdateScheme(context.Background(), "hunreal", false))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, client.URIPath+"?endpoint=content&path=/Game/Map", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hunreal://content/Game/Map", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, client.URIPath, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunRelaysFromClient(t *testing.T) {
	dir := t.TempDir()
	s, _, _ := newTestServer(t, config.ServerConfig{StateDir: dir, DefaultUriScheme: "hermestest"})
	paths := make(chan string, 2)
	s.Register("content", EndpointFunc(func(path string, _ map[string]string) error {
		paths <- path
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "content/Launch") }()

	select {
	case path := <-paths:
		assert.Equal(t, "/Launch", path)
	case <-time.After(2 * time.Second):
		t.Fatal("launch path was not dispatched")
	}

	var rec *discovery.Record
	require.Eventually(t, func() bool {
		rec, _ = discovery.Lookup(dir, "hermestest")
		return rec != nil
	}, 2*time.Second, 20*time.Millisecond)

	c := client.NewClient(config.RelayConfig{Timeout: time.Second, MaxElapsed: time.Second})
	require.Eventually(t, func() bool {
		return c.Forward(ctx, rec, "content/Game/Relayed") == nil
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case path := <-paths:
		assert.Equal(t, "/Game/Relayed", path)
	case <-time.After(2 * time.Second):
		t.Fatal("relayed message was not dispatched")
	}

	cancel()
	require.NoError(t, <-done)
	rec, err := discovery.Read(dir, "hermestest")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
