package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/world-in-progress/hermes/discovery"
)

const (
	// RequestIDHeader carries the id the helper and the server both log for one relayed link.
	RequestIDHeader = "X-Hermes-Request-Id"
	DispatchPath    = "/dispatch"
	HealthPath      = "/health"
	URIPath         = "/uri"
)

type RequestBuilder struct {
	// Host is the loopback address servers listen on.
	Host string
}

// DispatchURL is where the server for rec accepts relayed messages.
func (b *RequestBuilder) DispatchURL(rec *discovery.Record) string {
	host := b.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(rec.Port)) + DispatchPath
}

// BuildDispatch creates the POST carrying message, stamped with a fresh request id.
func (b *RequestBuilder) BuildDispatch(ctx context.Context, rec *discovery.Record, message string) (*http.Request, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.DispatchURL(rec), strings.NewReader(message))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %v", err)
	}
	id := uuid.New().String()
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set(RequestIDHeader, id)
	return req, id, nil
}
