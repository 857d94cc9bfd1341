package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/world-in-progress/hermes/config"
	"github.com/world-in-progress/hermes/core/logger"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Listen binds the loopback listener and records its port.
func (s *Server) Listen() (net.Listener, error) {
	cfg := s.config()
	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.mu.Unlock()
	logger.Info("listening on %s", ln.Addr())
	return ln, nil
}

// Run serves until ctx is done. The scheme is registered early from the previous run's
// value, then again once the server is up, after which launchPath (the -HermesPath= the
// editor was started with) is dispatched.
func (s *Server) Run(ctx context.Context, launchPath string) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		logger.Warn("early scheme registration failed: %v", err)
	}
	s.initialized.Store(true)
	if err := s.Refresh(ctx); err != nil {
		logger.Error("scheme registration failed: %v", err)
	}
	logger.Info("serving %s:// with endpoints %v", s.Scheme(), s.Endpoints())

	if launchPath != "" {
		logger.Debug("handling command line path %s", launchPath)
		if err := s.HandlePath(launchPath); err != nil {
			logger.Error("command line path %s: %v", launchPath, err)
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown(context.Background())
	})
	return g.Wait()
}

// Shutdown stops the listener, retracts the discovery record and drains the worker pool.
// The OS registration is kept so links launch the editor again.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		var err error
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			err = multierr.Append(err, s.httpServer.Shutdown(ctx))
			cancel()
		}
		if name := s.Scheme(); name != "" {
			s.retract(name)
		}
		if r, ok := s.registrar.(*ExecRegistrar); ok {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			r.Wait(ctx)
			cancel()
		}
		s.pool.Close()
		s.shutdownErr = err
		logger.Info("server stopped")
	})
	return s.shutdownErr
}

// Reconfigure swaps in cfg and refreshes the scheme, which may now resolve differently.
func (s *Server) Reconfigure(ctx context.Context, cfg config.ServerConfig) error {
	s.mu.Lock()
	// the listener and state directory are fixed once running
	cfg.Host, cfg.Port, cfg.StateDir = s.cfg.Host, s.cfg.Port, s.cfg.StateDir
	s.cfg = cfg
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// WatchConfig reloads the server configuration whenever v's config file changes. hooks run
// with the new configuration before the scheme is refreshed.
func (s *Server) WatchConfig(v *viper.Viper, hooks ...func(config.ServerConfig)) {
	if v.ConfigFileUsed() == "" {
		logger.Debug("no config file to watch")
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("config file changed: %s", e.Name)
		cfg, err := config.LoadServerConfig(v)
		if err != nil {
			logger.Error("failed to reload config: %v", err)
			return
		}
		for _, hook := range hooks {
			hook(cfg)
		}
		if err := s.Reconfigure(context.Background(), cfg); err != nil {
			logger.Error("scheme refresh after config change failed: %v", err)
		}
	})
	v.WatchConfig()
}
