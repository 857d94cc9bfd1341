// Package storetest holds behaviour every store.Store implementation must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/world-in-progress/hermes/store"
)

// Run exercises s, which must start empty.
func Run(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "hunreal")
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	p := &store.Protocol{
		Name:    "hunreal",
		Command: []string{"/opt/ue/UnrealEditor", "/work/Shooter.uproject", "-HermesPath=%1"},
		Hosts:   map[string][]string{"shooter": {"/opt/ue/UnrealEditor", "%1"}},
	}
	require.NoError(t, s.Put(ctx, p))
	require.NoError(t, s.Put(ctx, &store.Protocol{Name: "other", Debug: true}))

	got, err := s.Get(ctx, "hunreal")
	require.NoError(t, err)
	assert.Equal(t, p.Command, got.Command)
	assert.Equal(t, p.Hosts, got.Hosts)
	assert.False(t, got.UpdatedAt.IsZero())

	cmd, ok := got.HostCommand("shooter")
	assert.True(t, ok)
	assert.Equal(t, []string{"/opt/ue/UnrealEditor", "%1"}, cmd)

	// put replaces the whole record
	got.Hosts = nil
	got.Command = []string{"editor"}
	require.NoError(t, s.Put(ctx, got))
	replaced, err := s.Get(ctx, "hunreal")
	require.NoError(t, err)
	assert.Empty(t, replaced.Hosts)
	assert.Equal(t, []string{"editor"}, replaced.Command)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hunreal", list[0].Name)
	assert.Equal(t, "other", list[1].Name)
	assert.True(t, list[1].Debug)

	require.NoError(t, s.Delete(ctx, "hunreal"))
	_, err = s.Get(ctx, "hunreal")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// deleting something absent is not an error
	require.NoError(t, s.Delete(ctx, "hunreal"))
}
