package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStateRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Nothing persisted yet.
	state := loadWindowState()
	assert.Nil(t, state.X)
	assert.Nil(t, state.Y)

	require.NoError(t, saveWindowState(120, -4))
	state = loadWindowState()
	require.NotNil(t, state.X)
	require.NotNil(t, state.Y)
	assert.Equal(t, 120, *state.X)
	assert.Equal(t, -4, *state.Y)
}

func TestLoadWindowStateDamagedFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.MkdirAll(configDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir(), "window-state.json"), []byte("{oops"), 0o644))

	state := loadWindowState()
	assert.Nil(t, state.X)
	assert.Nil(t, state.Y)
}

func TestWindowPositionPersistsAcrossWindows(t *testing.T) {
	f := newWindowFixture(t, "foo", nil, nil)
	require.NoError(t, f.win.OpenNewTweet(""))

	native := f.platform.LastWindow()
	native.mu.Lock()
	native.x, native.y = 33, 44
	native.mu.Unlock()

	<-f.win.Close()

	require.NoError(t, f.win.OpenNewTweet(""))
	next := f.platform.LastWindow()
	x, y := next.Position()
	assert.Equal(t, 33, x)
	assert.Equal(t, 44, y)
}
