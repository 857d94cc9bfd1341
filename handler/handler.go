// Package handler implements what hermes-urls does when the OS hands it a link, and the
// registration commands that set that up.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/world-in-progress/hermes/client"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/discovery"
	"github.com/world-in-progress/hermes/osreg"
	"github.com/world-in-progress/hermes/scheme"
	"github.com/world-in-progress/hermes/store"
	"github.com/world-in-progress/hermes/uri"
	"go.uber.org/multierr"
)

var ErrNoHandler = errors.New("no handler registered")

type (
	Relay interface {
		Forward(ctx context.Context, rec *discovery.Record, message string) error
	}

	Handler struct {
		Store      store.Store
		Integrator osreg.Integrator
		Relay      Relay
		Runner     Runner
		// StateDir holds the discovery records of running servers.
		StateDir string
		// Executable is what the OS association launches, normally this binary.
		Executable string
		// Discover finds a live server for a scheme.
		Discover func(dir, scheme string) (*discovery.Record, error)
	}
)

// Open dispatches one activated link: to a running server when there is one, otherwise to
// the hostname command, otherwise to the protocol's launch command.
func (h *Handler) Open(ctx context.Context, raw string) error {
	u, err := uri.Parse(raw)
	if err != nil {
		return err
	}
	message := uri.Message(u)
	logger.Debug("opening %s (message %q)", u, message)

	relayed, err := h.relay(ctx, u.Scheme, message)
	if relayed || err != nil {
		return err
	}

	p, err := h.Store.Get(ctx, u.Scheme)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%s://: %w", u.Scheme, ErrNoHandler)
	}
	if err != nil {
		return err
	}

	if cmd, ok := p.HostCommand(u.Host); ok {
		if len(cmd) == 0 {
			return fmt.Errorf("empty command specified for hostname %s", u.Host)
		}
		// hostname commands get the path still percent-encoded
		args := substitute(cmd, u.EscapedPath())
		code, err := h.Runner.Run(ctx, args)
		if err != nil {
			return fmt.Errorf("failed to execute %q: %w", args, err)
		}
		if code != 0 {
			return fmt.Errorf("exit status %d when opening %s", code, raw)
		}
		return nil
	}

	if len(p.Command) == 0 {
		return fmt.Errorf("%s://%s: %w", u.Scheme, u.Host, ErrNoHandler)
	}
	args := substitute(p.Command, message)
	if err := h.Runner.Start(args); err != nil {
		return fmt.Errorf("failed to execute %q: %w", args, err)
	}
	return nil
}

// relay reports whether a live server took the message. A server that answers with an
// error status, or a message it could never accept, is final; a server that cannot be
// reached falls back to launching.
func (h *Handler) relay(ctx context.Context, protocol, message string) (bool, error) {
	if h.Relay == nil {
		return false, nil
	}
	discover := h.Discover
	if discover == nil {
		discover = discovery.Lookup
	}
	rec, err := discover(h.StateDir, protocol)
	if err != nil {
		logger.Warn("discovery for %s failed: %v", protocol, err)
		return false, nil
	}
	if rec == nil {
		logger.Debug("no running server for %s", protocol)
		return false, nil
	}

	err = h.Relay.Forward(ctx, rec, message)
	var statusErr *client.StatusError
	switch {
	case err == nil:
		logger.Info("relayed %q to pid %d", message, rec.PID)
		return true, nil
	case errors.As(err, &statusErr):
		return true, fmt.Errorf("server for %s rejected %q: %w", protocol, message, err)
	case errors.Is(err, uri.ErrMessageTooLarge):
		// the server is up, launching would only start a second editor
		return true, fmt.Errorf("cannot relay to the server for %s: %w", protocol, err)
	default:
		logger.Warn("server for %s (pid %d) unreachable, launching instead: %v", protocol, rec.PID, err)
		return false, nil
	}
}

// Register installs the OS association for protocol and stores its launch command.
// An empty command keeps the one already stored.
func (h *Handler) Register(ctx context.Context, protocol string, command []string, debug bool) error {
	if err := validateProtocol(protocol); err != nil {
		return err
	}
	logger.Info("registering handler for %s://", protocol)

	p, err := h.load(ctx, protocol)
	if err != nil {
		return err
	}
	if len(command) > 0 {
		p.Command = command
	}
	p.Debug = debug

	if err := h.Integrator.Install(protocol, osreg.HandlerCommand(h.Executable, debug)); err != nil {
		return fmt.Errorf("failed to register handler for %s://: %w", protocol, err)
	}
	return h.Store.Put(ctx, p)
}

// RegisterHostname stores commandline for protocol://hostname, registering the protocol if needed.
func (h *Handler) RegisterHostname(ctx context.Context, protocol, hostname string, commandline []string) error {
	if err := validateProtocol(protocol); err != nil {
		return err
	}
	if hostname == "" {
		return fmt.Errorf("empty hostname")
	}
	logger.Info("registering host %s://%s as %q", protocol, hostname, commandline)

	p, err := h.load(ctx, protocol)
	if err != nil {
		return err
	}
	if p.Hosts == nil {
		p.Hosts = make(map[string][]string)
	}
	p.Hosts[hostname] = commandline

	if err := h.Integrator.Install(protocol, osreg.HandlerCommand(h.Executable, p.Debug)); err != nil {
		return fmt.Errorf("failed to register host for %s://%s: %w", protocol, hostname, err)
	}
	return h.Store.Put(ctx, p)
}

// Unregister removes protocol, its hostnames and its OS association.
func (h *Handler) Unregister(ctx context.Context, protocol string) error {
	logger.Info("unregistering handler for %s://", protocol)
	return multierr.Append(
		h.Store.Delete(ctx, protocol),
		h.Integrator.Uninstall(protocol),
	)
}

// UnregisterHostname removes one hostname; removing the last one unregisters the protocol.
func (h *Handler) UnregisterHostname(ctx context.Context, protocol, hostname string) error {
	p, err := h.Store.Get(ctx, protocol)
	if errors.Is(err, store.ErrNotFound) {
		return h.Unregister(ctx, protocol)
	}
	if err != nil {
		return err
	}

	delete(p.Hosts, hostname)
	if len(p.Hosts) == 0 {
		return h.Unregister(ctx, protocol)
	}
	logger.Info("unregistered host %s://%s", protocol, hostname)
	return h.Store.Put(ctx, p)
}

func (h *Handler) List(ctx context.Context) ([]store.Protocol, error) {
	return h.Store.List(ctx)
}

func (h *Handler) load(ctx context.Context, protocol string) (*store.Protocol, error) {
	p, err := h.Store.Get(ctx, protocol)
	if errors.Is(err, store.ErrNotFound) {
		return &store.Protocol{Name: protocol}, nil
	}
	return p, err
}

func validateProtocol(protocol string) error {
	if sanitized, ok := scheme.Sanitize(protocol); !ok || sanitized != protocol {
		return fmt.Errorf("invalid protocol %q", protocol)
	}
	return nil
}

// substitute replaces the placeholder in every argument after the executable.
func substitute(cmd []string, value string) []string {
	args := make([]string, len(cmd))
	args[0] = cmd[0]
	for i, arg := range cmd[1:] {
		args[i+1] = strings.ReplaceAll(arg, osreg.Placeholder, value)
	}
	return args
}
