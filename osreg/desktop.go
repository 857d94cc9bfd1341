package osreg

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/world-in-progress/hermes/core/logger"
)

// DesktopIntegrator writes freedesktop.org desktop entries declaring
// x-scheme-handler/<protocol> and asks xdg-mime to make them the default.
type DesktopIntegrator struct {
	// Dir receives the .desktop files, normally $XDG_DATA_HOME/applications.
	Dir string
	// SetDefault runs after a file is written; nil skips it.
	SetDefault func(desktopFile, mimeType string) error
}

func NewDesktopIntegrator() *DesktopIntegrator {
	return &DesktopIntegrator{
		Dir:        ApplicationsDir(),
		SetDefault: xdgMimeDefault,
	}
}

// ApplicationsDir honours $XDG_DATA_HOME and falls back to ~/.local/share/applications.
func ApplicationsDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "applications")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "applications")
	}
	return filepath.Join(home, ".local", "share", "applications")
}

func DesktopFileName(protocol string) string {
	return "hermes-" + protocol + ".desktop"
}

func MimeType(protocol string) string {
	return "x-scheme-handler/" + protocol
}

func (d *DesktopIntegrator) Install(protocol string, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty handler command for %s", protocol)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}

	name := DesktopFileName(protocol)
	path := filepath.Join(d.Dir, name)
	if err := os.WriteFile(path, []byte(DesktopEntry(protocol, command)), 0o644); err != nil {
		return err
	}
	logger.Debug("wrote desktop entry %s", path)

	if d.SetDefault == nil {
		return nil
	}
	if err := d.SetDefault(name, MimeType(protocol)); err != nil {
		logger.Warn("could not make %s the default handler for %s: %v", name, protocol, err)
	}
	return nil
}

func (d *DesktopIntegrator) Uninstall(protocol string) error {
	err := os.Remove(filepath.Join(d.Dir, DesktopFileName(protocol)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DesktopEntry renders the desktop file for protocol. Placeholder becomes the %u field code.
func DesktopEntry(protocol string, command []string) string {
	exec := make([]string, len(command))
	for i, arg := range command {
		if arg == Placeholder {
			exec[i] = "%u"
			continue
		}
		exec[i] = quoteExecArg(arg)
	}

	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s (%s)\n", DisplayName, protocol)
	fmt.Fprintf(&b, "Comment=%s\n", Description)
	fmt.Fprintf(&b, "Exec=%s\n", strings.Join(exec, " "))
	fmt.Fprintf(&b, "MimeType=%s;\n", MimeType(protocol))
	b.WriteString("NoDisplay=true\n")
	b.WriteString("Terminal=false\n")
	return b.String()
}

func quoteExecArg(arg string) string {
	arg = strings.ReplaceAll(arg, "%", "%%")
	if !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`") && arg != "" {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(arg) + `"`
}

func xdgMimeDefault(desktopFile, mimeType string) error {
	bin, err := exec.LookPath("xdg-mime")
	if err != nil {
		return err
	}
	out, err := exec.Command(bin, "default", desktopFile, mimeType).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
