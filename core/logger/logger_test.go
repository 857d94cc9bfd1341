package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetFormat("json")
	SetLevel("warn")
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel("info")
	})

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown 2", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
}

func TestSetLevelFallsBackToInfo(t *testing.T) {
	SetLevel("nonsense")
	assert.Equal(t, "info", GetLevel())
	SetLevel("TRACE")
	assert.Equal(t, "trace", GetLevel())
	SetLevel("info")
}

func TestOpenRotated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hermes.log")

	// small file stays in place
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))
	f, err := OpenRotated(path, 16)
	require.NoError(t, err)
	_, err = f.WriteString("second\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
	assert.NoFileExists(t, path+".old")

	// once past the limit it is moved aside
	f, err = OpenRotated(path, 8)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(old))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
