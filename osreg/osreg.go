// Package osreg installs and removes the operating system association that routes a URI
// scheme to the hermes-urls executable.
package osreg

import (
	"errors"
	"strings"
)

const (
	DisplayName = "Hermes URL Handler"
	Description = "Open links to Unreal assets or custom editor actions"

	// Placeholder stands for the activated URI in a handler command line.
	Placeholder = "%1"
)

var ErrUnsupported = errors.New("URI scheme registration is not supported on this platform")

// Integrator manages the OS-level association for one protocol.
type Integrator interface {
	// Install points protocol at command, whose arguments may contain Placeholder.
	Install(protocol string, command []string) error
	Uninstall(protocol string) error
}

// HandlerCommand is the command line the OS runs for an activated link.
func HandlerCommand(exe string, debug bool) []string {
	cmd := []string{exe}
	if debug {
		cmd = append(cmd, "--debug")
	}
	return append(cmd, "open", Placeholder)
}

// CommandLine renders args as one Windows-style command line. The executable and the
// placeholder are always quoted; other arguments only when they contain spaces.
func CommandLine(args []string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if i == 0 || arg == Placeholder || strings.ContainsAny(arg, " \t") || arg == "" {
			parts[i] = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		} else {
			parts[i] = arg
		}
	}
	return strings.Join(parts, " ")
}
