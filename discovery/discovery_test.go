package discovery

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	require.NoError(t, Write(dir, Record{PID: 42, Port: 7000, Scheme: "hunreal"}))

	rec, err := Read(dir, "hunreal")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, Record{PID: 42, Port: 7000, Scheme: "hunreal", UpdatedAt: "2026-10-16T12:00:00Z"}, *rec)

	missing, err := Read(dir, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Error(t, Write(dir, Record{PID: 1, Port: 1}))
}

func TestRemoveOnlyWhenOwned(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, Record{PID: 42, Port: 7000, Scheme: "hunreal"}))

	require.NoError(t, Remove(dir, "hunreal", 7))
	assert.FileExists(t, Path(dir, "hunreal"))

	require.NoError(t, Remove(dir, "hunreal", 42))
	assert.NoFileExists(t, Path(dir, "hunreal"))

	// removing again is fine
	require.NoError(t, Remove(dir, "hunreal", 42))
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	alive := map[int]bool{os.Getpid(): true}
	isProcessAlive = func(pid int) bool { return alive[pid] }
	t.Cleanup(func() { isProcessAlive = processAlive })

	require.NoError(t, Write(dir, Record{PID: os.Getpid(), Port: 7000, Scheme: "live"}))
	require.NoError(t, Write(dir, Record{PID: 999999, Port: 7001, Scheme: "dead"}))
	require.NoError(t, Write(dir, Record{PID: os.Getpid(), Port: 0, Scheme: "noport"}))
	require.NoError(t, os.WriteFile(Path(dir, "broken"), []byte("{"), 0o600))

	rec, err := Lookup(dir, "live")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 7000, rec.Port)

	for _, scheme := range []string{"dead", "noport", "broken", "absent"} {
		rec, err := Lookup(dir, scheme)
		require.NoError(t, err, scheme)
		assert.Nil(t, rec, scheme)
		assert.NoFileExists(t, Path(dir, scheme), scheme)
	}
}

func TestProcessAliveSelf(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
}
