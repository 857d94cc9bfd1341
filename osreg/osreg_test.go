package osreg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerCommand(t *testing.T) {
	assert.Equal(t, []string{"/bin/hermes-urls", "open", "%1"}, HandlerCommand("/bin/hermes-urls", false))
	assert.Equal(t, []string{"/bin/hermes-urls", "--debug", "open", "%1"}, HandlerCommand("/bin/hermes-urls", true))
}

func TestCommandLine(t *testing.T) {
	got := CommandLine(HandlerCommand(`C:\Program Files\Hermes\hermes-urls.exe`, true))
	assert.Equal(t, `"C:\Program Files\Hermes\hermes-urls.exe" --debug open "%1"`, got)

	assert.Equal(t, `"editor" "" "two words"`, CommandLine([]string{"editor", "", "two words"}))
}

func TestDesktopEntry(t *testing.T) {
	entry := DesktopEntry("hunreal", HandlerCommand("/opt/hermes dir/hermes-urls", false))

	assert.Contains(t, entry, "[Desktop Entry]\n")
	assert.Contains(t, entry, "Exec=\"/opt/hermes dir/hermes-urls\" open %u\n")
	assert.Contains(t, entry, "MimeType=x-scheme-handler/hunreal;\n")
	assert.Contains(t, entry, "Name=Hermes URL Handler (hunreal)\n")
}

func TestDesktopIntegrator(t *testing.T) {
	dir := t.TempDir()
	var calls [][2]string
	d := &DesktopIntegrator{
		Dir: dir,
		SetDefault: func(file, mime string) error {
			calls = append(calls, [2]string{file, mime})
			return nil
		},
	}

	require.NoError(t, d.Install("hunreal", HandlerCommand("/usr/bin/hermes-urls", false)))
	path := filepath.Join(dir, "hermes-hunreal.desktop")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exec=/usr/bin/hermes-urls open %u")
	assert.Equal(t, [][2]string{{"hermes-hunreal.desktop", "x-scheme-handler/hunreal"}}, calls)

	assert.Error(t, d.Install("hunreal", nil))

	require.NoError(t, d.Uninstall("hunreal"))
	assert.NoFileExists(t, path)
	// uninstalling twice is fine
	require.NoError(t, d.Uninstall("hunreal"))
}

func TestApplicationsDirHonoursXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "applications"), ApplicationsDir())
}
