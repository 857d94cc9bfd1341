package handler

import (
	"context"
	"errors"
	"os/exec"

	"github.com/world-in-progress/hermes/core/logger"
)

// Runner starts the command lines registered for a protocol.
type Runner interface {
	// Run waits for args to finish and reports its exit code.
	Run(ctx context.Context, args []string) (int, error)
	// Start launches args without waiting for it.
	Start(args []string) error
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	logger.Debug("running %q", args)
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

func (ExecRunner) Start(args []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	logger.Debug("starting %q", args)
	if err := cmd.Start(); err != nil {
		return err
	}
	logger.Info("started %s (pid %d)", args[0], cmd.Process.Pid)
	return cmd.Process.Release()
}
