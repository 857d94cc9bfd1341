package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArgs(t *testing.T) (string, []string) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir, []string{
		"--console=false",
		"--state-dir", filepath.Join(dir, "state"),
		"--log-file", filepath.Join(dir, "hermes-server.log"),
	}
}

func TestSplitLaunchPath(t *testing.T) {
	rest, path := splitLaunchPath([]string{"serve", "Game.uproject", `-HermesPath="content/Game/Map?edit"`})
	assert.Equal(t, []string{"serve", "Game.uproject"}, rest)
	assert.Equal(t, "content/Game/Map?edit", path)

	rest, path = splitLaunchPath([]string{"serve"})
	assert.Equal(t, []string{"serve"}, rest)
	assert.Empty(t, path)
}

func TestURICommand(t *testing.T) {
	_, global := testArgs(t)
	var out bytes.Buffer

	args := append(global, "--project-name", "Shooter", "uri", "content", "/Game/A", "/Game/B", "/Game/A", "--edit")
	require.NoError(t, run(context.Background(), args, &out))
	assert.Equal(t, "shooter://content/Game/A?edit\nshooter://content/Game/B?edit\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), append(global, "uri", "tools"), &out))
	assert.Equal(t, "hunreal://tools/\n", out.String())
}

func TestURICommandListsContent(t *testing.T) {
	dir, global := testArgs(t)
	root := filepath.Join(dir, "Content")
	for _, f := range []string{"Maps/Arena.umap", "Spells/Fireball.uasset", "readme.txt"} {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	t.Setenv("HERMES_CONTENT_ROOT", root)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), append(global, "uri", "content"), &out))
	assert.Equal(t, "hunreal://content/Game/Maps/Arena\nhunreal://content/Game/Spells/Fireball\n", out.String())
}

func TestSchemeCommand(t *testing.T) {
	_, global := testArgs(t)
	var out bytes.Buffer

	args := append(global, "--project-name", "Shooter", "--branch", "++Shooter+Main", "scheme")
	require.NoError(t, run(context.Background(), args, &out))
	assert.Equal(t, "Branch:  ++Shooter+Main\n"+
		"Scheme:  shooter-main\n"+
		"Example: shooter-main://content/Game/Spells/Fireball?edit\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), append(global, "scheme"), &out))
	assert.Equal(t, "Scheme:  hunreal\n", out.String())
}

func TestServeDispatchesLaunchPath(t *testing.T) {
	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}
	dir, global := testArgs(t)

	root := filepath.Join(dir, "Content")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Maps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Maps", "Arena.umap"), []byte("arena"), 0o644))
	marker := filepath.Join(dir, "revealed")

	cfgFile := filepath.Join(dir, "hermes.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
helper: `+filepath.Join(dir, "no-such-helper")+`
content:
  root: `+root+`
  reveal_command: ["cp", "%1", "`+marker+`"]
`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	args := append(global, "--config", cfgFile, "serve", "-HermesPath=content/Game/Maps/Arena")
	go func() { done <- run(ctx, args, &bytes.Buffer{}) }()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && string(data) == "arena"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
