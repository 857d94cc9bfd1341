package content

import (
	"os/exec"
	"strings"

	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/osreg"
)

type (
	// Actions is what the endpoint does with a resolved asset.
	Actions interface {
		Edit(asset Asset) error
		Reveal(asset Asset) error
		// Focus brings the editor window to the front after every request.
		Focus() error
	}

	// CommandActions runs a configured command line per action; "%1" is replaced by the
	// asset file. An empty command line does nothing.
	CommandActions struct {
		EditCommand   []string
		RevealCommand []string
		FocusCommand  []string

		run func(args []string) error
	}
)

func NewCommandActions(edit, reveal, focus []string) *CommandActions {
	return &CommandActions{EditCommand: edit, RevealCommand: reveal, FocusCommand: focus}
}

func (c *CommandActions) Edit(asset Asset) error {
	logger.Debug("opening %s for editing", asset.Package)
	return c.exec(c.EditCommand, asset.File)
}

func (c *CommandActions) Reveal(asset Asset) error {
	logger.Debug("revealing %s", asset.Package)
	return c.exec(c.RevealCommand, asset.File)
}

func (c *CommandActions) Focus() error {
	return c.exec(c.FocusCommand, "")
}

func (c *CommandActions) exec(template []string, file string) error {
	if len(template) == 0 {
		return nil
	}
	args := make([]string, len(template))
	for i, arg := range template {
		args[i] = strings.ReplaceAll(arg, osreg.Placeholder, file)
	}
	if c.run != nil {
		return c.run(args)
	}
	return exec.Command(args[0], args[1:]...).Run()
}
