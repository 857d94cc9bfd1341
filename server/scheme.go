package server

import (
	"context"
	"os"

	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/discovery"
	"github.com/world-in-progress/hermes/scheme"
)

// Refresh picks the scheme and registers it if it changed. Before the server is fully
// initialized the scheme from the previous run is preferred over the configured default.
func (s *Server) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	cfg := s.config()
	last := s.settings.LastScheme()
	picker := scheme.Picker{
		Providers: s.providers,
		Default:   scheme.DefaultScheme(cfg.DefaultUriScheme, cfg.ProjectName),
	}
	picked := picker.Pick(s.initialized.Load(), last)

	// drop the scheme from the last run if it is no longer used, and remember the new one
	if picked != last {
		if last != "" {
			if err := s.registrar.UnregisterScheme(ctx, last); err != nil {
				logger.Warn("failed to unregister previous scheme %s://: %v", last, err)
			}
		}
		if err := s.settings.SetLastScheme(picked); err != nil {
			logger.Warn("failed to persist last scheme %s: %v", picked, err)
		}
	}

	return s.updateScheme(ctx, picked, cfg.Debug)
}

// UpdateScheme registers scheme in place of the current one. It does nothing when scheme
// is already registered.
func (s *Server) UpdateScheme(ctx context.Context, name string, debug bool) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.updateScheme(ctx, name, debug)
}

func (s *Server) updateScheme(ctx context.Context, name string, debug bool) error {
	previous := s.Scheme()
	if previous == name {
		return nil
	}

	if previous != "" {
		s.retract(previous)
		if err := s.registrar.UnregisterScheme(ctx, previous); err != nil {
			logger.Warn("failed to unregister %s://: %v", previous, err)
		}
		s.setRegistered("")
	}

	if err := s.registrar.RegisterScheme(ctx, name, debug); err != nil {
		logger.Error("unable to register %s://: %v", name, err)
		return err
	}
	s.setRegistered(name)
	logger.Info("registered %s://", name)
	s.publish()
	return nil
}

func (s *Server) setRegistered(name string) {
	s.mu.Lock()
	s.registered = name
	s.mu.Unlock()
}

// publish advertises the listening port for the registered scheme.
func (s *Server) publish() {
	s.mu.RLock()
	name, port, dir := s.registered, s.port, s.cfg.StateDir
	s.mu.RUnlock()
	if name == "" || port == 0 {
		return
	}

	rec := discovery.Record{PID: os.Getpid(), Port: port, Scheme: name, Version: Version}
	if err := discovery.Write(dir, rec); err != nil {
		logger.Error("failed to publish discovery record for %s://: %v", name, err)
		return
	}
	logger.Debug("published %s:// on port %d", name, port)
}

func (s *Server) retract(name string) {
	if err := discovery.Remove(s.config().StateDir, name, os.Getpid()); err != nil {
		logger.Warn("failed to remove discovery record for %s://: %v", name, err)
	}
}

func (s *Server) onProvidersChanged() {
	if err := s.Refresh(context.Background()); err != nil {
		logger.Error("scheme refresh after provider change failed: %v", err)
	}
}
