package server

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/core/rescue"
	"github.com/world-in-progress/hermes/core/threading"
	"github.com/world-in-progress/hermes/handler"
	"github.com/world-in-progress/hermes/osreg"
)

type (
	// Registrar makes the OS route a scheme to the helper.
	Registrar interface {
		RegisterScheme(ctx context.Context, scheme string, debug bool) error
		UnregisterScheme(ctx context.Context, scheme string) error
	}

	// ExecRegistrar runs the hermes-urls helper. Registration runs in the background and
	// its exit status is only logged; unregistration waits for it first.
	ExecRegistrar struct {
		Helper string
		// Launch is stored as the protocol's command, see LaunchCommand.
		Launch []string

		command func(ctx context.Context, name string, args ...string) *exec.Cmd

		mu      sync.Mutex
		pending chan struct{}
	}

	// StoreRegistrar registers in-process through a handler, for when the helper binary is not around.
	StoreRegistrar struct {
		Handler *handler.Handler
		Launch  []string
	}
)

// LaunchCommand is how the helper starts the editor on a link when no server answers.
func LaunchCommand(editor, project string) []string {
	if editor == "" {
		return nil
	}
	cmd := []string{editor}
	if project != "" {
		cmd = append(cmd, project)
	}
	return append(cmd, "-HermesPath="+osreg.Placeholder)
}

// RegisterArgs are the helper arguments registering scheme with launch as its command.
func RegisterArgs(scheme string, debug bool, launch []string) []string {
	var args []string
	if debug {
		args = append(args, "--debug", "register", "--register-with-debugging")
	} else {
		args = append(args, "register")
	}
	args = append(args, "--", scheme)
	return append(args, launch...)
}

func UnregisterArgs(scheme string) []string {
	return []string{"unregister", "--", scheme}
}

func NewExecRegistrar(helper string, launch []string) *ExecRegistrar {
	return &ExecRegistrar{Helper: helper, Launch: launch}
}

func (r *ExecRegistrar) cmd(ctx context.Context, args ...string) *exec.Cmd {
	if r.command != nil {
		return r.command(ctx, r.Helper, args...)
	}
	return exec.CommandContext(ctx, r.Helper, args...)
}

func (r *ExecRegistrar) RegisterScheme(ctx context.Context, scheme string, debug bool) error {
	r.Wait(ctx)

	args := RegisterArgs(scheme, debug, r.Launch)
	logger.Debug("attempting to register %s:// using %s %q", scheme, r.Helper, args)

	// not bound to ctx: the registration outlives the call
	cmd := r.cmd(context.Background(), args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to register %s:// using %s: %w", scheme, r.Helper, err)
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.pending = done
	r.mu.Unlock()

	tagged := rescue.WithTag(context.WithoutCancel(ctx), "register "+scheme)
	threading.GoSafeCtx(tagged, func() {
		defer close(done)
		if code := exitCode(cmd.Wait()); code != 0 {
			logger.Error("URL registration of %s:// failed with status code %d", scheme, code)
			return
		}
		logger.Debug("URL registration of %s:// completed successfully", scheme)
	})
	return nil
}

func (r *ExecRegistrar) UnregisterScheme(ctx context.Context, scheme string) error {
	r.Wait(ctx)

	args := UnregisterArgs(scheme)
	logger.Debug("attempting to unregister %s:// using %s %q", scheme, r.Helper, args)

	err := r.cmd(ctx, args...).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Warn("unregistration of %s:// failed with status code %d", scheme, exitErr.ExitCode())
		return nil
	}
	return err
}

// Wait blocks until a background registration has finished or ctx is done.
func (r *ExecRegistrar) Wait(ctx context.Context) {
	r.mu.Lock()
	pending := r.pending
	r.mu.Unlock()
	if pending == nil {
		return
	}
	select {
	case <-pending:
	case <-ctx.Done():
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (r *StoreRegistrar) RegisterScheme(ctx context.Context, scheme string, debug bool) error {
	return r.Handler.Register(ctx, scheme, r.Launch, debug)
}

func (r *StoreRegistrar) UnregisterScheme(ctx context.Context, scheme string) error {
	return r.Handler.Unregister(ctx, scheme)
}
