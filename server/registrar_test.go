package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/world-in-progress/hermes/handler"
	"github.com/world-in-progress/hermes/store/file"
)

// TestHelperProcess stands in for hermes-urls when run by helperCommand.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("HERMES_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) > 0 {
		args = args[2:] // "--" and the helper path
	}
	f, err := os.OpenFile(os.Getenv("HERMES_HELPER_LOG"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		os.Exit(2)
	}
	fmt.Fprintln(f, strings.Join(args, " "))
	f.Close()

	code, _ := strconv.Atoi(os.Getenv("HERMES_HELPER_EXIT"))
	os.Exit(code)
}

func helperCommand(t *testing.T, exit int) (func(context.Context, string, ...string) *exec.Cmd, string) {
	log := filepath.Join(t.TempDir(), "helper.log")
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--", name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(),
			"HERMES_WANT_HELPER_PROCESS=1",
			"HERMES_HELPER_LOG="+log,
			"HERMES_HELPER_EXIT="+strconv.Itoa(exit),
		)
		return cmd
	}, log
}

func readLines(t *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestArgs(t *testing.T) {
	launch := LaunchCommand("/opt/ue/UnrealEditor", "/work/Shooter.uproject")
	assert.Equal(t, []string{"/opt/ue/UnrealEditor", "/work/Shooter.uproject", "-HermesPath=%1"}, launch)
	assert.Nil(t, LaunchCommand("", "/work/Shooter.uproject"))

	assert.Equal(t,
		[]string{"register", "--", "hunreal", "editor", "-HermesPath=%1"},
		RegisterArgs("hunreal", false, []string{"editor", "-HermesPath=%1"}))
	assert.Equal(t,
		[]string{"--debug", "register", "--register-with-debugging", "--", "hunreal"},
		RegisterArgs("hunreal", true, nil))
	assert.Equal(t, []string{"unregister", "--", "hunreal"}, UnregisterArgs("hunreal"))
}

func TestExecRegistrar(t *testing.T) {
	ctx := context.Background()
	command, log := helperCommand(t, 0)
	r := NewExecRegistrar("/bin/hermes-urls", []string{"editor", "-HermesPath=%1"})
	r.command = command

	require.NoError(t, r.RegisterScheme(ctx, "hunreal", true))
	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	r.Wait(waitCtx)
	require.NoError(t, r.UnregisterScheme(ctx, "hunreal"))

	assert.Equal(t, []string{
		"--debug register --register-with-debugging -- hunreal editor -HermesPath=%1",
		"unregister -- hunreal",
	}, readLines(t, log))
}

func TestExecRegistrarFailingHelper(t *testing.T) {
	ctx := context.Background()
	command, _ := helperCommand(t, 3)
	r := NewExecRegistrar("/bin/hermes-urls", nil)
	r.command = command

	// a failing background registration is only logged
	require.NoError(t, r.RegisterScheme(ctx, "hunreal", false))
	// a non-zero unregistration is a warning, not an error
	assert.NoError(t, r.UnregisterScheme(ctx, "hunreal"))

	missing := NewExecRegistrar(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	assert.Error(t, missing.RegisterScheme(ctx, "hunreal", false))
}

type nopIntegrator struct{}

func (nopIntegrator) Install(string, []string) error { return nil }
func (nopIntegrator) Uninstall(string) error         { return nil }

func TestStoreRegistrar(t *testing.T) {
	ctx := context.Background()
	h := &handler.Handler{
		Store:      file.NewFileStore(t.TempDir()),
		Integrator: nopIntegrator{},
		Executable: "/bin/hermes-urls",
	}
	r := &StoreRegistrar{Handler: h, Launch: LaunchCommand("editor", "game.uproject")}

	require.NoError(t, r.RegisterScheme(ctx, "hunreal", false))
	p, err := h.Store.Get(ctx, "hunreal")
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "game.uproject", "-HermesPath=%1"}, p.Command)

	require.NoError(t, r.UnregisterScheme(ctx, "hunreal"))
	list, err := h.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
