// Package client relays a Hermes message from the helper to a running dispatch server.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/discovery"
	"github.com/world-in-progress/hermes/uri"
)

type Client struct {
	Builder   RequestBuilder
	Executor  HTTPExecutor
	Responses ResponseHandler
	// MaxElapsed bounds the retries of connection failures; zero tries once.
	MaxElapsed time.Duration
}

func NewClient(cfg config.RelayConfig) *Client {
	return &Client{
		Executor:   HTTPExecutor{Client: &http.Client{Timeout: cfg.Timeout}},
		MaxElapsed: cfg.MaxElapsed,
	}
}

// Forward posts message to the server described by rec. Connection failures are retried
// with exponential backoff; an answer other than 2xx is returned as a *StatusError at once.
func (c *Client) Forward(ctx context.Context, rec *discovery.Record, message string) error {
	if rec == nil || rec.Port <= 0 {
		return fmt.Errorf("no server to relay to")
	}
	if len(message) > uri.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", uri.ErrMessageTooLarge, len(message), uri.MaxMessageSize)
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = 50 * time.Millisecond
	retry.MaxElapsedTime = c.MaxElapsed
	var policy backoff.BackOff = retry
	if c.MaxElapsed <= 0 {
		policy = &backoff.StopBackOff{}
	}

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		req, id, err := c.Builder.BuildDispatch(ctx, rec, message)
		if err != nil {
			return backoff.Permanent(err)
		}
		logger.Debug("relaying %q to %s (request %s, attempt %d)", message, req.URL, id, attempt)

		resp, err := c.Executor.Execute(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			logger.Debug("relay attempt %d failed: %v", attempt, err)
			return fmt.Errorf("error sending request: %w", err)
		}
		if err := c.Responses.Handle(resp); err != nil {
			return backoff.Permanent(err)
		}
		logger.Debug("request %s accepted by pid %d", id, rec.PID)
		return nil
	}, backoff.WithContext(policy, ctx))
}
