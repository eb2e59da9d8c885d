package xdgpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := ConfigPath("config.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alerter", "config.toml"), path)

	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err), "config dir must not be created")
}

func TestConfigPath_HomeFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)

	path, err := ConfigPath("config.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "alerter", "config.toml"), path)
}

func TestSupportPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	path, err := SupportPath("alerter.app")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "alerter", "alerter.app"), path)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
