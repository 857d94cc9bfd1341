package client

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/discovery"
	"github.com/world-in-progress/hermes/uri"
)

func recordFor(t *testing.T, srv *httptest.Server) *discovery.Record {
	_, port, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return &discovery.Record{PID: 42, Port: p, Scheme: "hunreal"}
}

func TestForward(t *testing.T) {
	var gotBody, gotID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotID = r.Header.Get(RequestIDHeader)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(config.RelayConfig{Timeout: time.Second, MaxElapsed: time.Second})
	require.NoError(t, c.Forward(context.Background(), recordFor(t, srv), "content/Game/Spells/Fireball?edit"))

	assert.Equal(t, "content/Game/Spells/Fireball?edit", gotBody)
	assert.Equal(t, DispatchPath, gotPath)
	assert.Len(t, gotID, 36)
}

func TestForwardStatusErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	c := NewClient(config.RelayConfig{Timeout: time.Second, MaxElapsed: time.Second})
	err := c.Forward(context.Background(), recordFor(t, srv), "content/x")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusErr.Code)
	assert.Equal(t, "message too large", statusErr.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestForwardRetriesConnectionFailures(t *testing.T) {
	// reserve a port and leave it closed
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	c := NewClient(config.RelayConfig{Timeout: 100 * time.Millisecond, MaxElapsed: 300 * time.Millisecond})
	err = c.Forward(context.Background(), &discovery.Record{Port: port}, "content/x")
	assert.ErrorContains(t, err, "error sending request")
}

func TestForwardRejectsOversizedMessage(t *testing.T) {
	c := NewClient(config.RelayConfig{})
	err := c.Forward(context.Background(), &discovery.Record{Port: 1}, strings.Repeat("a", uri.MaxMessageSize+1))
	assert.ErrorIs(t, err, uri.ErrMessageTooLarge)
	assert.ErrorContains(t, err, "exceeds")

	assert.Error(t, c.Forward(context.Background(), nil, "content/x"))
}
